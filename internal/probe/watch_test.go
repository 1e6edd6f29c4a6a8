// internal/probe/watch_test.go
package probe

import (
	"errors"
	"testing"
	"time"

	"github.com/vpiyanov/haier-modbus-bridge/internal/ac"
	"github.com/vpiyanov/haier-modbus-bridge/internal/regmap"
)

type fakeReader struct {
	coils    map[uint16]bool
	regs     map[uint16]uint16
	failRegs bool
}

func (f *fakeReader) ReadCoil(addr uint16) (bool, error) {
	return f.coils[addr], nil
}

func (f *fakeReader) ReadHoldingRange(addr, qty uint16) ([]uint16, error) {
	if f.failRegs {
		return nil, errors.New("fail read")
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = f.regs[addr+uint16(i)]
	}
	return out, nil
}

func TestPollOnce_Success(t *testing.T) {
	reader := &fakeReader{
		coils: map[uint16]bool{0x0001: true, 0x0002: true},
		regs: map[uint16]uint16{
			0x0101: 2,      // mode cool
			0x0105: 2200,   // 22.00 C
			0x0114: 0xFFE2, // -3.0 C correction
		},
	}

	w, err := NewWatcher(regmap.New(), reader, time.Second)
	if err != nil {
		t.Fatalf("NewWatcher() err=%v", err)
	}

	snap := w.PollOnce()
	if snap.Err != nil {
		t.Fatalf("PollOnce err=%v", snap.Err)
	}
	if got := snap.Fields[ac.FieldPower]; got != 1 {
		t.Fatalf("power=%d, want 1", got)
	}
	if got := snap.Fields[ac.FieldTargetTemp]; got != 2200 {
		t.Fatalf("target=%d, want 2200", got)
	}
	if got := snap.Fields[ac.FieldTempCorrection]; got != -30 {
		t.Fatalf("correction=%d, want -30", got)
	}
	if got := snap.Fields[ac.FieldBeeper]; got != 0 {
		t.Fatalf("beeper=%d, want 0", got)
	}
}

func TestPollOnce_Failure(t *testing.T) {
	w, err := NewWatcher(regmap.New(), &fakeReader{failRegs: true}, time.Second)
	if err != nil {
		t.Fatalf("NewWatcher() err=%v", err)
	}

	snap := w.PollOnce()
	if snap.Err == nil {
		t.Fatalf("expected error, got nil")
	}
	if len(snap.Fields) != 0 {
		t.Fatalf("expected no fields on failed cycle, got %d", len(snap.Fields))
	}
}

func TestNewWatcher_RejectsBadInterval(t *testing.T) {
	if _, err := NewWatcher(regmap.New(), &fakeReader{}, 0); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}
