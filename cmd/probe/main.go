// cmd/probe/main.go
//
// Modbus TCP diagnostic client for the bridge. Reads and writes the
// ONOKOM-compatible register file over the wire, exactly as a PLC or
// home-automation controller would.
//
// Usage:
//
//	probe -addr 192.168.1.50:502 status
//	probe -addr 192.168.1.50:502 power on
//	probe -addr 192.168.1.50:502 mode cool
//	probe -addr 192.168.1.50:502 temp 22.5
//	probe -addr 192.168.1.50:502 fan high
//	probe -addr 192.168.1.50:502 display off
//	probe -addr 192.168.1.50:502 beeper off
//	probe -addr 192.168.1.50:502 -interval 2s watch
//	probe -addr 192.168.1.50:502 read 0x0105
//	probe -addr 192.168.1.50:502 write 0x0105 2200
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/vpiyanov/haier-modbus-bridge/internal/ac"
	"github.com/vpiyanov/haier-modbus-bridge/internal/probe"
	"github.com/vpiyanov/haier-modbus-bridge/internal/regmap"
)

var (
	addr     = flag.String("addr", "127.0.0.1:502", "bridge address (host:port)")
	unitID   = flag.Uint("unit", 0x1F, "Modbus unit id")
	timeout  = flag.Duration("timeout", 2*time.Second, "request timeout")
	interval = flag.Duration("interval", 2*time.Second, "watch poll interval")
)

var modeNames = map[string]ac.Mode{
	"heat": ac.ModeHeat,
	"cool": ac.ModeCool,
	"auto": ac.ModeAuto,
	"dry":  ac.ModeDry,
	"fan":  ac.ModeFan,
}

var fanNames = map[string]ac.FanSpeed{
	"auto":   ac.FanAuto,
	"low":    ac.FanLow,
	"medium": ac.FanMedium,
	"high":   ac.FanHigh,
}

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	client, err := probe.NewClient(probe.Config{
		Endpoint: *addr,
		UnitID:   uint8(*unitID),
		Timeout:  *timeout,
	})
	if err != nil {
		log.Fatalf("connect %s: %v", *addr, err)
	}
	defer client.Close()

	table := regmap.New()

	switch cmd := flag.Arg(0); cmd {
	case "status":
		err = status(client, table)
	case "power":
		err = writeSwitch(client, table, ac.FieldPower, flag.Arg(1))
	case "display":
		err = writeSwitch(client, table, ac.FieldDisplay, flag.Arg(1))
	case "beeper":
		err = writeSwitch(client, table, ac.FieldBeeper, flag.Arg(1))
	case "mode":
		err = writeMode(client, table, flag.Arg(1))
	case "temp":
		err = writeTemp(client, table, flag.Arg(1))
	case "fan":
		err = writeFan(client, table, flag.Arg(1))
	case "watch":
		err = watch(client, table)
	case "read":
		err = readRaw(client, flag.Arg(1))
	case "write":
		err = writeRaw(client, flag.Arg(1), flag.Arg(2))
	default:
		log.Fatalf("unknown command %q", cmd)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// status dumps every mapped address with its current value, temperatures
// converted back to degrees.
func status(c *probe.Client, t *regmap.Table) error {
	first, last := t.Span(regmap.Coil)
	for a := first; a <= last; a++ {
		d := t.Lookup(regmap.Coil, a)
		if d == nil {
			continue
		}
		v, err := c.ReadCoil(a)
		if err != nil {
			return err
		}
		fmt.Printf("  0x%04X  %-16s %v\n", a, d.Field, v)
	}

	first, last = t.Span(regmap.HoldingRegister)
	regs, err := c.ReadHoldingRange(first, last-first+1)
	if err != nil {
		return err
	}
	for a := first; a <= last; a++ {
		d := t.Lookup(regmap.HoldingRegister, a)
		if d == nil {
			continue
		}
		raw := int32(int16(regs[a-first]))
		switch d.Field {
		case ac.FieldIndoorTemp, ac.FieldTargetTemp:
			fmt.Printf("  0x%04X  %-16s %.2f C\n", a, d.Field, float64(raw)/100)
		case ac.FieldTempCorrection:
			fmt.Printf("  0x%04X  %-16s %.1f C\n", a, d.Field, float64(raw)/10)
		default:
			fmt.Printf("  0x%04X  %-16s %d\n", a, d.Field, raw)
		}
	}
	return nil
}

// watch polls the register file and prints fields as they change,
// until interrupted.
func watch(c *probe.Client, t *regmap.Table) error {
	w, err := probe.NewWatcher(t, c, *interval)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	snaps := make(chan probe.Snapshot)
	go w.Run(ctx, snaps)

	var prev map[ac.Field]int32
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-snaps:
			if snap.Err != nil {
				log.Printf("poll: %v", snap.Err)
				continue
			}
			for f := ac.Field(0); f < ac.NumFields; f++ {
				v, ok := snap.Fields[f]
				if !ok {
					continue
				}
				if prev != nil && prev[f] == v {
					continue
				}
				fmt.Printf("%s  %-16s %d\n", snap.At.Format(time.TimeOnly), f, v)
			}
			prev = snap.Fields
		}
	}
}

func writeSwitch(c *probe.Client, t *regmap.Table, f ac.Field, arg string) error {
	var on bool
	switch arg {
	case "on", "1":
		on = true
	case "off", "0":
		on = false
	default:
		return fmt.Errorf("%s: want on|off, got %q", f, arg)
	}
	return c.WriteCoil(t.ByField(f).Address, on)
}

func writeMode(c *probe.Client, t *regmap.Table, arg string) error {
	m, ok := modeNames[arg]
	if !ok {
		return fmt.Errorf("mode: want heat|cool|auto|dry|fan, got %q", arg)
	}
	return c.WriteHolding(t.ByField(ac.FieldMode).Address, uint16(m))
}

func writeTemp(c *probe.Client, t *regmap.Table, arg string) error {
	deg, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return fmt.Errorf("temp: %q is not a number", arg)
	}
	raw := int32(deg * 100)
	if err := ac.Validate(ac.FieldTargetTemp, raw); err != nil {
		return err
	}
	return c.WriteHolding(t.ByField(ac.FieldTargetTemp).Address, uint16(raw))
}

// readRaw and writeRaw bypass the field vocabulary and hit one address
// directly. Coil addresses are below 0x0100 in the device table.
func readRaw(c *probe.Client, addrArg string) error {
	a, err := parseAddr(addrArg)
	if err != nil {
		return err
	}
	if a < 0x0100 {
		v, err := c.ReadCoil(a)
		if err != nil {
			return err
		}
		fmt.Printf("0x%04X = %v\n", a, v)
		return nil
	}
	v, err := c.ReadHolding(a)
	if err != nil {
		return err
	}
	fmt.Printf("0x%04X = %d (0x%04X)\n", a, int16(v), v)
	return nil
}

func writeRaw(c *probe.Client, addrArg, valArg string) error {
	a, err := parseAddr(addrArg)
	if err != nil {
		return err
	}
	v, err := strconv.ParseInt(valArg, 0, 17)
	if err != nil {
		return fmt.Errorf("write: bad value %q", valArg)
	}
	if a < 0x0100 {
		return c.WriteCoil(a, v != 0)
	}
	return c.WriteHolding(a, uint16(int16(v)))
}

func parseAddr(arg string) (uint16, error) {
	a, err := strconv.ParseUint(arg, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("bad address %q", arg)
	}
	return uint16(a), nil
}

func writeFan(c *probe.Client, t *regmap.Table, arg string) error {
	s, ok := fanNames[arg]
	if !ok {
		return fmt.Errorf("fan: want auto|low|medium|high, got %q", arg)
	}
	return c.WriteHolding(t.ByField(ac.FieldFanSpeed).Address, uint16(s))
}
