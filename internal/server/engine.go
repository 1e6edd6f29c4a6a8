// internal/server/engine.go
package server

import (
	"errors"

	"github.com/simonvetter/modbus"

	"github.com/vpiyanov/haier-modbus-bridge/internal/ac"
	"github.com/vpiyanov/haier-modbus-bridge/internal/metrics"
	"github.com/vpiyanov/haier-modbus-bridge/internal/regmap"
)

// StateBridge is the synchronizer surface the engine depends on.
// Snapshot never blocks on the HVAC transport; Submit enqueues
// already-validated write intents, accepting or refusing the batch as
// a whole.
type StateBridge interface {
	Snapshot() ac.State
	Submit(writes ...regmap.Write) error
}

// Engine serves the register file. It implements
// modbus.RequestHandler; the library owns TCP/RTU framing below the PDU
// level and hands the engine decoded requests.
//
// Multi-coil and multi-register writes are all-or-nothing at the PDU
// boundary: every address and value is validated before the first intent
// is submitted.
type Engine struct {
	unitID uint8
	table  *regmap.Table
	bridge StateBridge
}

func New(unitID uint8, table *regmap.Table, bridge StateBridge) *Engine {
	return &Engine{unitID: unitID, table: table, bridge: bridge}
}

func (e *Engine) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	if req.UnitId != e.unitID {
		return nil, e.exception("illegal_function", modbus.ErrIllegalFunction)
	}
	if err := e.checkSpan(regmap.Coil, req.Addr, req.Quantity); err != nil {
		return nil, err
	}

	if !req.IsWrite {
		metrics.ModbusRequests.WithLabelValues("read_coils").Inc()

		snap := e.bridge.Snapshot()
		res := make([]bool, req.Quantity)
		for i := range res {
			res[i] = e.table.RenderCoil(&snap, req.Addr+uint16(i))
		}
		return res, nil
	}

	metrics.ModbusRequests.WithLabelValues("write_coils").Inc()

	writes := make([]regmap.Write, 0, req.Quantity)
	for i := uint16(0); i < req.Quantity; i++ {
		var raw int32
		if req.Args[i] {
			raw = 1
		}
		w, err := e.table.Decode(regmap.Coil, req.Addr+i, raw)
		if err != nil {
			return nil, e.mapDecodeError(err)
		}
		writes = append(writes, w)
	}
	return nil, e.submitAll(writes)
}

func (e *Engine) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	if req.UnitId != e.unitID {
		return nil, e.exception("illegal_function", modbus.ErrIllegalFunction)
	}
	if err := e.checkSpan(regmap.HoldingRegister, req.Addr, req.Quantity); err != nil {
		return nil, err
	}

	if !req.IsWrite {
		metrics.ModbusRequests.WithLabelValues("read_registers").Inc()

		snap := e.bridge.Snapshot()
		res := make([]uint16, req.Quantity)
		for i := range res {
			res[i] = e.table.RenderRegister(&snap, req.Addr+uint16(i))
		}
		return res, nil
	}

	metrics.ModbusRequests.WithLabelValues("write_registers").Inc()

	writes := make([]regmap.Write, 0, req.Quantity)
	for i := uint16(0); i < req.Quantity; i++ {
		// Registers holding signed fields are documented as two's
		// complement, so the raw word is widened through int16.
		raw := int32(int16(req.Args[i]))
		w, err := e.table.Decode(regmap.HoldingRegister, req.Addr+i, raw)
		if err != nil {
			return nil, e.mapDecodeError(err)
		}
		writes = append(writes, w)
	}
	return nil, e.submitAll(writes)
}

// No discrete inputs or input registers in the ONOKOM mapping.

func (e *Engine) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	return nil, e.exception("illegal_function", modbus.ErrIllegalFunction)
}

func (e *Engine) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	return nil, e.exception("illegal_function", modbus.ErrIllegalFunction)
}

// checkSpan rejects requests reaching outside the contiguous valid range
// of the register map.
func (e *Engine) checkSpan(k regmap.Kind, addr, quantity uint16) error {
	first, last := e.table.Span(k)
	if quantity == 0 {
		return e.exception("illegal_value", modbus.ErrIllegalDataValue)
	}
	end := uint32(addr) + uint32(quantity) - 1
	if addr < first || end > uint32(last) {
		return e.exception("illegal_address", modbus.ErrIllegalDataAddress)
	}
	return nil
}

// One Submit per PDU: either every write of the request is enqueued or
// none is, so a busy exception never leaves partial effects behind.
func (e *Engine) submitAll(writes []regmap.Write) error {
	if err := e.bridge.Submit(writes...); err != nil {
		return e.exception("busy", modbus.ErrServerDeviceBusy)
	}
	return nil
}

func (e *Engine) mapDecodeError(err error) error {
	switch {
	case errors.Is(err, regmap.ErrUnknownAddress), errors.Is(err, regmap.ErrReadOnly):
		return e.exception("illegal_address", modbus.ErrIllegalDataAddress)
	case errors.Is(err, regmap.ErrOutOfRange):
		return e.exception("illegal_value", modbus.ErrIllegalDataValue)
	default:
		return e.exception("device_failure", modbus.ErrServerDeviceFailure)
	}
}

func (e *Engine) exception(kind string, err error) error {
	metrics.ModbusExceptions.WithLabelValues(kind).Inc()
	return err
}
