// internal/ac/state.go
package ac

import "fmt"

// Field identifies one property of the air conditioner.
// Fields are the unit of write intents and telemetry updates.
type Field uint8

const (
	FieldPower Field = iota
	FieldMode
	FieldActiveMode
	FieldIndoorTemp
	FieldTargetTemp
	FieldThermostatState
	FieldFanSpeed
	FieldHorizontalVane
	FieldVerticalVane
	FieldTempCorrection
	FieldDisplay
	FieldBeeper

	NumFields
)

var fieldNames = [NumFields]string{
	"power",
	"mode",
	"active_mode",
	"indoor_temp",
	"target_temp",
	"thermostat_state",
	"fan_speed",
	"horizontal_vane",
	"vertical_vane",
	"temp_correction",
	"display",
	"beeper",
}

func (f Field) String() string {
	if f < NumFields {
		return fieldNames[f]
	}
	return fmt.Sprintf("field(%d)", uint8(f))
}

// Reported fields are set by device telemetry only.
// The bridge never originates writes to them.
func (f Field) Reported() bool {
	switch f {
	case FieldActiveMode, FieldIndoorTemp, FieldThermostatState:
		return true
	}
	return false
}

// ---- ENUMS ----
// Numeric values match both the Haier status vocabulary and the
// ONOKOM-AIR register encoding, so no per-field translation is needed.

type Mode int32

const (
	ModeHeat Mode = 1
	ModeCool Mode = 2
	ModeAuto Mode = 3
	ModeDry  Mode = 4
	ModeFan  Mode = 5
)

type FanSpeed int32

const (
	FanAuto   FanSpeed = 0
	FanLow    FanSpeed = 1
	FanMedium FanSpeed = 2
	FanHigh   FanSpeed = 3
)

type ThermostatState int32

const (
	ThermostatIdle    ThermostatState = 0
	ThermostatHeating ThermostatState = 1
	ThermostatCooling ThermostatState = 2
)

// Horizontal vane: 1 = swing, 2..8 = fixed positions 1..7.
type HorizontalVane int32

const (
	HVaneSwing     HorizontalVane = 1
	HVanePosition1 HorizontalVane = 2
	HVanePosition7 HorizontalVane = 8
)

// Vertical vane: 0 = stop, 1 = swing, 2..6 = fixed positions 1..5.
type VerticalVane int32

const (
	VVaneStop      VerticalVane = 0
	VVaneSwing     VerticalVane = 1
	VVanePosition1 VerticalVane = 2
	VVanePosition5 VerticalVane = 6
)

// Temperature limits advertised by the unit, in centi-degrees C.
const (
	TargetTempMin  = 1600
	TargetTempMax  = 3200
	TargetTempStep = 100
)

// Temperature correction limits, in deci-degrees C.
const (
	TempCorrectionMin = -30
	TempCorrectionMax = 30
)

// State is the canonical, protocol-neutral snapshot of the unit.
// It is a value type: copies are cheap and safe to hand out.
type State struct {
	Power           bool
	Mode            Mode
	ActiveMode      Mode            // device-reported
	IndoorTemp      int16           // centi-degrees C, device-reported
	TargetTemp      int16           // centi-degrees C
	ThermostatState ThermostatState // device-reported
	FanSpeed        FanSpeed
	HorizontalVane  HorizontalVane
	VerticalVane    VerticalVane
	TempCorrection  int16 // deci-degrees C
	Display         bool
	Beeper          bool
}

// Default returns the state assumed before the first telemetry frame.
func Default() State {
	return State{
		Mode:           ModeAuto,
		ActiveMode:     ModeAuto,
		TargetTemp:     2400,
		HorizontalVane: HVaneSwing,
		VerticalVane:   VVaneSwing,
		Display:        true,
	}
}

// InvalidValueError reports a value outside a field's invariant.
type InvalidValueError struct {
	Field Field
	Value int32
	Min   int32
	Max   int32
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("ac: %s value %d outside %d..%d", e.Field, e.Value, e.Min, e.Max)
}

// Validate checks v against the field's invariant without touching state.
func Validate(f Field, v int32) error {
	min, max := fieldRange(f)
	if v < min || v > max {
		return &InvalidValueError{Field: f, Value: v, Min: min, Max: max}
	}
	if f == FieldTargetTemp && v%TargetTempStep != 0 {
		return &InvalidValueError{Field: f, Value: v, Min: min, Max: max}
	}
	return nil
}

func fieldRange(f Field) (min, max int32) {
	switch f {
	case FieldPower, FieldDisplay, FieldBeeper:
		return 0, 1
	case FieldMode, FieldActiveMode:
		return int32(ModeHeat), int32(ModeFan)
	case FieldIndoorTemp:
		return -32768, 32767
	case FieldTargetTemp:
		return TargetTempMin, TargetTempMax
	case FieldThermostatState:
		return int32(ThermostatIdle), int32(ThermostatCooling)
	case FieldFanSpeed:
		return int32(FanAuto), int32(FanHigh)
	case FieldHorizontalVane:
		return int32(HVaneSwing), int32(HVanePosition7)
	case FieldVerticalVane:
		return int32(VVaneStop), int32(VVanePosition5)
	case FieldTempCorrection:
		return TempCorrectionMin, TempCorrectionMax
	}
	return 0, -1 // unknown field: nothing validates
}

// Get returns the field as a canonical scalar.
// Booleans map to 0/1; temperatures keep their centi/deci units.
func (s *State) Get(f Field) int32 {
	switch f {
	case FieldPower:
		return b2i(s.Power)
	case FieldMode:
		return int32(s.Mode)
	case FieldActiveMode:
		return int32(s.ActiveMode)
	case FieldIndoorTemp:
		return int32(s.IndoorTemp)
	case FieldTargetTemp:
		return int32(s.TargetTemp)
	case FieldThermostatState:
		return int32(s.ThermostatState)
	case FieldFanSpeed:
		return int32(s.FanSpeed)
	case FieldHorizontalVane:
		return int32(s.HorizontalVane)
	case FieldVerticalVane:
		return int32(s.VerticalVane)
	case FieldTempCorrection:
		return int32(s.TempCorrection)
	case FieldDisplay:
		return b2i(s.Display)
	case FieldBeeper:
		return b2i(s.Beeper)
	}
	return 0
}

// Set validates v and updates the field.
// Out-of-range values are rejected, never clamped.
func (s *State) Set(f Field, v int32) error {
	if err := Validate(f, v); err != nil {
		return err
	}
	switch f {
	case FieldPower:
		s.Power = v != 0
	case FieldMode:
		s.Mode = Mode(v)
	case FieldActiveMode:
		s.ActiveMode = Mode(v)
	case FieldIndoorTemp:
		s.IndoorTemp = int16(v)
	case FieldTargetTemp:
		s.TargetTemp = int16(v)
	case FieldThermostatState:
		s.ThermostatState = ThermostatState(v)
	case FieldFanSpeed:
		s.FanSpeed = FanSpeed(v)
	case FieldHorizontalVane:
		s.HorizontalVane = HorizontalVane(v)
	case FieldVerticalVane:
		s.VerticalVane = VerticalVane(v)
	case FieldTempCorrection:
		s.TempCorrection = int16(v)
	case FieldDisplay:
		s.Display = v != 0
	case FieldBeeper:
		s.Beeper = v != 0
	}
	return nil
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
