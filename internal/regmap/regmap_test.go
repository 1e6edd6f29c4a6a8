// internal/regmap/regmap_test.go
package regmap

import (
	"errors"
	"testing"

	"github.com/vpiyanov/haier-modbus-bridge/internal/ac"
)

func TestSpans(t *testing.T) {
	tbl := New()

	if first, last := tbl.Span(Coil); first != 0x0001 || last != 0x0005 {
		t.Fatalf("coil span 0x%04x..0x%04x, want 0x0001..0x0005", first, last)
	}
	if first, last := tbl.Span(HoldingRegister); first != 0x0101 || last != 0x0114 {
		t.Fatalf("register span 0x%04x..0x%04x, want 0x0101..0x0114", first, last)
	}
}

func TestDecode_RenderRoundTrip(t *testing.T) {
	tbl := New()

	// Every writable descriptor: rendering a state and decoding the
	// rendered raw value must yield the value that produced it.
	s := ac.Default()
	s.Power = true
	s.Mode = ac.ModeHeat
	s.TargetTemp = 2100
	s.FanSpeed = ac.FanLow
	s.HorizontalVane = ac.HVanePosition1
	s.VerticalVane = ac.VVanePosition5
	s.TempCorrection = -25
	s.Display = true
	s.Beeper = true

	for _, k := range []Kind{Coil, HoldingRegister} {
		first, last := tbl.Span(k)
		for addr := first; addr <= last; addr++ {
			d := tbl.Lookup(k, addr)
			if d == nil || d.Access != ReadWrite {
				continue
			}

			var raw int32
			if k == Coil {
				if tbl.RenderCoil(&s, addr) {
					raw = 1
				}
			} else {
				raw = int32(int16(tbl.RenderRegister(&s, addr)))
			}

			w, err := tbl.Decode(k, addr, raw)
			if err != nil {
				t.Errorf("%s 0x%04x: decode(render)=%v", k, addr, err)
				continue
			}
			if w.Field != d.Field || w.Value != s.Get(d.Field) {
				t.Errorf("%s 0x%04x: round trip %s=%d, want %s=%d",
					k, addr, w.Field, w.Value, d.Field, s.Get(d.Field))
			}
		}
	}
}

func TestDecode_UnknownAddress(t *testing.T) {
	tbl := New()

	for _, c := range []struct {
		kind Kind
		addr uint16
	}{
		{Coil, 0x0000},
		{Coil, 0x0003}, // hole
		{Coil, 0x0006},
		{HoldingRegister, 0x0100},
		{HoldingRegister, 0x0104}, // hole
		{HoldingRegister, 0x0115},
	} {
		_, err := tbl.Decode(c.kind, c.addr, 0)
		if !errors.Is(err, ErrUnknownAddress) {
			t.Errorf("%s 0x%04x: err=%v, want ErrUnknownAddress", c.kind, c.addr, err)
		}
	}
}

func TestDecode_ReadOnlyViolation(t *testing.T) {
	tbl := New()

	for _, addr := range []uint16{0x0102, 0x0103, 0x0106} {
		_, err := tbl.Decode(HoldingRegister, addr, 1)
		if !errors.Is(err, ErrReadOnly) {
			t.Errorf("0x%04x: err=%v, want ErrReadOnly", addr, err)
		}
	}
}

func TestDecode_OutOfRange(t *testing.T) {
	tbl := New()

	for _, c := range []struct {
		kind Kind
		addr uint16
		raw  int32
	}{
		{HoldingRegister, 0x0105, 3300},
		{HoldingRegister, 0x0105, 1500},
		{HoldingRegister, 0x0105, 2250}, // off-step
		{HoldingRegister, 0x0101, 0},
		{HoldingRegister, 0x0101, 6},
		{HoldingRegister, 0x0107, 4},
		{HoldingRegister, 0x0114, 31},
		{HoldingRegister, 0x0114, -31},
		{Coil, 0x0001, 2},
	} {
		_, err := tbl.Decode(c.kind, c.addr, c.raw)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("%s 0x%04x raw=%d: err=%v, want ErrOutOfRange", c.kind, c.addr, c.raw, err)
		}
	}
}

func TestRender_SignedRegisters(t *testing.T) {
	tbl := New()

	s := ac.Default()
	s.TempCorrection = -30
	s.IndoorTemp = -150 // -1.5 degC

	if got := tbl.RenderRegister(&s, 0x0114); got != 0xFFE2 {
		t.Fatalf("temp correction raw 0x%04x, want 0xFFE2", got)
	}
	if got := tbl.RenderRegister(&s, 0x0103); got != 0xFF6A {
		t.Fatalf("indoor temp raw 0x%04x, want 0xFF6A", got)
	}
}

func TestRender_Holes(t *testing.T) {
	tbl := New()
	s := ac.Default()

	if tbl.RenderCoil(&s, 0x0004) {
		t.Fatal("coil hole must render false")
	}
	if got := tbl.RenderRegister(&s, 0x0108); got != 0 {
		t.Fatalf("register hole rendered 0x%04x, want 0", got)
	}
}

func TestByField(t *testing.T) {
	tbl := New()

	d := tbl.ByField(ac.FieldTargetTemp)
	if d == nil || d.Address != 0x0105 {
		t.Fatalf("ByField(target_temp) = %+v", d)
	}
	if tbl.ByField(ac.NumFields) != nil {
		t.Fatal("out-of-range field must return nil")
	}
}
