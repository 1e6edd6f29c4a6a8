// internal/haier/vocab.go
package haier

import "github.com/vpiyanov/haier-modbus-bridge/internal/ac"

// Logical frame/command vocabulary shared by both dialects.
// Wire framing around these bytes differs per variant.

const (
	frameHeader byte = 0xFF

	frameTypeStatusRequest byte = 0x01
	frameTypeStatus        byte = 0x02
	frameTypeAck           byte = 0x05 // extended variant only
	frameTypeControl       byte = 0x60
)

// Control command codes. Values are always carried as int16 big-endian.
const (
	cmdPower      byte = 0x01
	cmdMode       byte = 0x02
	cmdFanSpeed   byte = 0x03
	cmdTargetTemp byte = 0x04
	cmdHVane      byte = 0x05
	cmdVVane      byte = 0x06
	cmdTempCorr   byte = 0x07
	cmdDisplay    byte = 0x08
	cmdBeeper     byte = 0x09 // extended variant only
)

func commandCode(f ac.Field) (byte, bool) {
	switch f {
	case ac.FieldPower:
		return cmdPower, true
	case ac.FieldMode:
		return cmdMode, true
	case ac.FieldFanSpeed:
		return cmdFanSpeed, true
	case ac.FieldTargetTemp:
		return cmdTargetTemp, true
	case ac.FieldHorizontalVane:
		return cmdHVane, true
	case ac.FieldVerticalVane:
		return cmdVVane, true
	case ac.FieldTempCorrection:
		return cmdTempCorr, true
	case ac.FieldDisplay:
		return cmdDisplay, true
	case ac.FieldBeeper:
		return cmdBeeper, true
	}
	return 0, false
}

// Status payload layout, common to both dialects.
// The extended dialect appends one flags byte for its extra capabilities.
const (
	statusPower      = 0  // 0/1
	statusMode       = 1  // 1..5
	statusActiveMode = 2  // 1..5
	statusFanSpeed   = 3  // 0..3
	statusTargetTemp = 4  // int16 BE, centi-degrees C
	statusIndoorTemp = 6  // int16 BE, centi-degrees C
	statusHVane      = 8  // 1..8
	statusVVane      = 9  // 0..6
	statusThermostat = 10 // 0..2
	statusFlags      = 11 // bit0: display backlight
	statusTempCorr   = 12 // int16 BE, deci-degrees C

	statusLen = 14

	statusFlags2 = 14 // bit0: beeper (extended only)
	statusLenExt = 15
	flagDisplay  = 0x01
	flagBeeper   = 0x01
)

func parseStatus(p []byte, withBeeper bool) (map[ac.Field]int32, bool) {
	want := statusLen
	if withBeeper {
		want = statusLenExt
	}
	if len(p) < want {
		return nil, false
	}

	fields := map[ac.Field]int32{
		ac.FieldPower:           int32(p[statusPower]),
		ac.FieldMode:            int32(p[statusMode]),
		ac.FieldActiveMode:      int32(p[statusActiveMode]),
		ac.FieldFanSpeed:        int32(p[statusFanSpeed]),
		ac.FieldTargetTemp:      beInt16(p[statusTargetTemp:]),
		ac.FieldIndoorTemp:      beInt16(p[statusIndoorTemp:]),
		ac.FieldHorizontalVane:  int32(p[statusHVane]),
		ac.FieldVerticalVane:    int32(p[statusVVane]),
		ac.FieldThermostatState: int32(p[statusThermostat]),
		ac.FieldTempCorrection:  beInt16(p[statusTempCorr:]),
	}
	if p[statusFlags]&flagDisplay != 0 {
		fields[ac.FieldDisplay] = 1
	} else {
		fields[ac.FieldDisplay] = 0
	}
	if withBeeper {
		if p[statusFlags2]&flagBeeper != 0 {
			fields[ac.FieldBeeper] = 1
		} else {
			fields[ac.FieldBeeper] = 0
		}
	}
	return fields, true
}

func beInt16(p []byte) int32 {
	return int32(int16(uint16(p[0])<<8 | uint16(p[1])))
}

func beValue(v int32) (hi, lo byte) {
	u := uint16(int16(v))
	return byte(u >> 8), byte(u)
}
