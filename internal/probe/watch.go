// internal/probe/watch.go
package probe

import (
	"context"
	"errors"
	"time"

	"github.com/vpiyanov/haier-modbus-bridge/internal/ac"
	"github.com/vpiyanov/haier-modbus-bridge/internal/regmap"
)

// Reader abstracts the Modbus reads the watcher needs.
// The watcher depends on geometry only.
type Reader interface {
	ReadCoil(addr uint16) (bool, error)
	ReadHoldingRange(addr, qty uint16) ([]uint16, error)
}

// Snapshot is one complete read of the register file, decoded back into
// field values.
type Snapshot struct {
	At     time.Time
	Fields map[ac.Field]int32
	Err    error
}

// Watcher is a dumb, clock-driven reader of the bridge's register file.
type Watcher struct {
	table    *regmap.Table
	reader   Reader
	interval time.Duration
}

func NewWatcher(table *regmap.Table, reader Reader, interval time.Duration) (*Watcher, error) {
	if interval <= 0 {
		return nil, errors.New("probe: watch interval must be > 0")
	}
	return &Watcher{table: table, reader: reader, interval: interval}, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (w *Watcher) PollOnce() Snapshot {
	snap := Snapshot{
		At:     time.Now(),
		Fields: make(map[ac.Field]int32, ac.NumFields),
	}

	first, last := w.table.Span(regmap.Coil)
	for a := first; a <= last; a++ {
		d := w.table.Lookup(regmap.Coil, a)
		if d == nil {
			continue
		}
		on, err := w.reader.ReadCoil(a)
		if err != nil {
			return Snapshot{At: snap.At, Err: err}
		}
		var v int32
		if on {
			v = 1
		}
		snap.Fields[d.Field] = v
	}

	first, last = w.table.Span(regmap.HoldingRegister)
	regs, err := w.reader.ReadHoldingRange(first, last-first+1)
	if err != nil {
		return Snapshot{At: snap.At, Err: err}
	}
	for a := first; a <= last; a++ {
		d := w.table.Lookup(regmap.HoldingRegister, a)
		if d == nil {
			continue
		}
		snap.Fields[d.Field] = int32(int16(regs[a-first]))
	}
	return snap
}

// Run starts the ticker loop and emits a Snapshot per cycle.
// No overlap. No retries.
func (w *Watcher) Run(ctx context.Context, out chan<- Snapshot) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			out <- w.PollOnce()
		}
	}
}
