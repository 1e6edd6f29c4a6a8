// internal/probe/client.go
package probe

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// Client is a single Modbus TCP connection to the bridge, used by the
// probe tool to exercise the register file from the outside.
type Client struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("probe: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.SlaveId = cfg.UnitID
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func (c *Client) Close() error {
	return c.handler.Close()
}

func (c *Client) ReadCoil(addr uint16) (bool, error) {
	raw, err := c.client.ReadCoils(addr, 1)
	if err != nil {
		return false, fmt.Errorf("probe: read coil 0x%04x: %w", addr, err)
	}
	if len(raw) < 1 {
		return false, fmt.Errorf("probe: read coil 0x%04x: empty response", addr)
	}
	return raw[0]&0x01 != 0, nil
}

func (c *Client) WriteCoil(addr uint16, on bool) error {
	value := uint16(0x0000)
	if on {
		value = 0xFF00
	}
	if _, err := c.client.WriteSingleCoil(addr, value); err != nil {
		return fmt.Errorf("probe: write coil 0x%04x: %w", addr, err)
	}
	return nil
}

func (c *Client) ReadHolding(addr uint16) (uint16, error) {
	regs, err := c.ReadHoldingRange(addr, 1)
	if err != nil {
		return 0, err
	}
	return regs[0], nil
}

func (c *Client) ReadHoldingRange(addr, qty uint16) ([]uint16, error) {
	raw, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, fmt.Errorf("probe: read holding 0x%04x+%d: %w", addr, qty, err)
	}
	if len(raw) < int(qty)*2 {
		return nil, fmt.Errorf("probe: read holding 0x%04x+%d: short response", addr, qty)
	}
	regs := make([]uint16, qty)
	for i := range regs {
		regs[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	return regs, nil
}

func (c *Client) WriteHolding(addr, value uint16) error {
	if _, err := c.client.WriteSingleRegister(addr, value); err != nil {
		return fmt.Errorf("probe: write holding 0x%04x: %w", addr, err)
	}
	return nil
}
