// internal/regmap/regmap.go
package regmap

import (
	"errors"
	"fmt"

	"github.com/vpiyanov/haier-modbus-bridge/internal/ac"
)

// Kind is the Modbus primitive a descriptor is exposed as.
type Kind uint8

const (
	Coil Kind = iota
	HoldingRegister
)

func (k Kind) String() string {
	if k == Coil {
		return "coil"
	}
	return "holding register"
}

// Access is the client-facing access mode of one address.
type Access uint8

const (
	ReadOnly Access = iota
	ReadWrite
)

// Scale converts between the canonical field value and the raw register
// value: raw = canonical * Mul / Div. The ONOKOM table stores every field
// in its canonical unit, so all entries are identity today; the metadata
// stays because it is part of the descriptor contract.
type Scale struct {
	Mul int32
	Div int32
}

var identity = Scale{Mul: 1, Div: 1}

func (s Scale) raw(canonical int32) int32 {
	return canonical * s.Mul / s.Div
}

func (s Scale) canonical(raw int32) int32 {
	return raw * s.Div / s.Mul
}

// Descriptor is one exposed Modbus address.
type Descriptor struct {
	Address uint16
	Kind    Kind
	Access  Access
	Field   ac.Field
	Scale   Scale

	// Raw-value bounds for writes. Both zero means "bool coil" for coils
	// and "field-validated only" for registers.
	Min int32
	Max int32
}

// Validation failures surfaced to the server engine. Each maps to a
// Modbus exception: unknown address and read-only violations to
// IllegalDataAddress, range violations to IllegalDataValue.
var (
	ErrUnknownAddress = errors.New("regmap: unknown address")
	ErrReadOnly       = errors.New("regmap: write to read-only address")
	ErrOutOfRange     = errors.New("regmap: value out of range")
)

// Write is one validated field-write intent produced by Decode.
type Write struct {
	Field ac.Field
	Value int32
}

// The ONOKOM-AIR-HR-1-MB-B address table. Bit-exact: addresses, value
// encodings and ranges must not drift from the documented mapping.
var descriptors = []Descriptor{
	{Address: 0x0001, Kind: Coil, Access: ReadWrite, Field: ac.FieldPower, Scale: identity},
	{Address: 0x0002, Kind: Coil, Access: ReadWrite, Field: ac.FieldDisplay, Scale: identity},
	{Address: 0x0005, Kind: Coil, Access: ReadWrite, Field: ac.FieldBeeper, Scale: identity},

	{Address: 0x0101, Kind: HoldingRegister, Access: ReadWrite, Field: ac.FieldMode, Scale: identity, Min: 1, Max: 5},
	{Address: 0x0102, Kind: HoldingRegister, Access: ReadOnly, Field: ac.FieldActiveMode, Scale: identity},
	{Address: 0x0103, Kind: HoldingRegister, Access: ReadOnly, Field: ac.FieldIndoorTemp, Scale: identity}, // 0.01 degC
	{Address: 0x0105, Kind: HoldingRegister, Access: ReadWrite, Field: ac.FieldTargetTemp, Scale: identity, Min: 1600, Max: 3200}, // 0.01 degC
	{Address: 0x0106, Kind: HoldingRegister, Access: ReadOnly, Field: ac.FieldThermostatState, Scale: identity},
	{Address: 0x0107, Kind: HoldingRegister, Access: ReadWrite, Field: ac.FieldFanSpeed, Scale: identity, Min: 0, Max: 3},
	{Address: 0x0109, Kind: HoldingRegister, Access: ReadWrite, Field: ac.FieldHorizontalVane, Scale: identity, Min: 1, Max: 8},
	{Address: 0x010A, Kind: HoldingRegister, Access: ReadWrite, Field: ac.FieldVerticalVane, Scale: identity, Min: 0, Max: 6},
	{Address: 0x0114, Kind: HoldingRegister, Access: ReadWrite, Field: ac.FieldTempCorrection, Scale: identity, Min: -30, Max: 30}, // 0.1 degC
}

// Table is the immutable register map, built once at startup.
// Lookups are O(1): by address offset for decode, by field for render.
type Table struct {
	coilFirst, coilLast uint16
	regFirst, regLast   uint16

	coils   []*Descriptor // indexed by address - coilFirst; nil = hole
	regs    []*Descriptor // indexed by address - regFirst; nil = hole
	byField [ac.NumFields]*Descriptor
}

// New builds the table from the static descriptor set.
func New() *Table {
	t := &Table{coilFirst: 0xFFFF, regFirst: 0xFFFF}
	for i := range descriptors {
		d := &descriptors[i]
		if d.Kind == Coil {
			t.coilFirst = min(t.coilFirst, d.Address)
			t.coilLast = max(t.coilLast, d.Address)
		} else {
			t.regFirst = min(t.regFirst, d.Address)
			t.regLast = max(t.regLast, d.Address)
		}
	}
	t.coils = make([]*Descriptor, t.coilLast-t.coilFirst+1)
	t.regs = make([]*Descriptor, t.regLast-t.regFirst+1)
	for i := range descriptors {
		d := &descriptors[i]
		if d.Kind == Coil {
			t.coils[d.Address-t.coilFirst] = d
		} else {
			t.regs[d.Address-t.regFirst] = d
		}
		t.byField[d.Field] = d
	}
	return t
}

// Span returns the contiguous addressable range for a kind.
// Holes inside the span read as zero and reject writes.
func (t *Table) Span(k Kind) (first, last uint16) {
	if k == Coil {
		return t.coilFirst, t.coilLast
	}
	return t.regFirst, t.regLast
}

// Lookup returns the descriptor at an address, or nil for holes and
// addresses outside the span.
func (t *Table) Lookup(k Kind, addr uint16) *Descriptor {
	switch k {
	case Coil:
		if addr < t.coilFirst || addr > t.coilLast {
			return nil
		}
		return t.coils[addr-t.coilFirst]
	default:
		if addr < t.regFirst || addr > t.regLast {
			return nil
		}
		return t.regs[addr-t.regFirst]
	}
}

// ByField returns the descriptor exposing a field, or nil if the field
// has no Modbus address.
func (t *Table) ByField(f ac.Field) *Descriptor {
	if f >= ac.NumFields {
		return nil
	}
	return t.byField[f]
}

// Decode validates one raw write against the table and produces a field
// write intent. Coil writes pass raw 0/1.
func (t *Table) Decode(k Kind, addr uint16, raw int32) (Write, error) {
	d := t.Lookup(k, addr)
	if d == nil {
		return Write{}, fmt.Errorf("%w: %s 0x%04x", ErrUnknownAddress, k, addr)
	}
	if d.Access != ReadWrite {
		return Write{}, fmt.Errorf("%w: %s 0x%04x", ErrReadOnly, k, addr)
	}

	canonical := d.Scale.canonical(raw)

	if d.Kind == Coil {
		if raw != 0 && raw != 1 {
			return Write{}, fmt.Errorf("%w: coil 0x%04x value %d", ErrOutOfRange, addr, raw)
		}
	} else {
		if (d.Min != 0 || d.Max != 0) && (raw < d.Min || raw > d.Max) {
			return Write{}, fmt.Errorf("%w: register 0x%04x value %d outside %d..%d",
				ErrOutOfRange, addr, raw, d.Min, d.Max)
		}
	}

	// Field invariants (enum membership, temperature step) are stricter
	// than the raw range metadata.
	if err := ac.Validate(d.Field, canonical); err != nil {
		return Write{}, fmt.Errorf("%w: %s 0x%04x: %v", ErrOutOfRange, k, addr, err)
	}

	return Write{Field: d.Field, Value: canonical}, nil
}

// RenderCoil projects one coil address from a state snapshot.
// Holes render as false.
func (t *Table) RenderCoil(s *ac.State, addr uint16) bool {
	d := t.Lookup(Coil, addr)
	if d == nil {
		return false
	}
	return d.Scale.raw(s.Get(d.Field)) != 0
}

// RenderRegister projects one holding register address from a state
// snapshot. Holes render as zero. Signed fields are exposed in two's
// complement, per the documented mapping.
func (t *Table) RenderRegister(s *ac.State, addr uint16) uint16 {
	d := t.Lookup(HoldingRegister, addr)
	if d == nil {
		return 0
	}
	return uint16(int16(d.Scale.raw(s.Get(d.Field))))
}
