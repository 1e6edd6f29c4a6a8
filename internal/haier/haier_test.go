// internal/haier/haier_test.go
package haier

import "encoding/binary"

// testStatusPayload builds a status payload reporting a fixed, known state.
// withBeeper appends the extended flags byte.
func testStatusPayload(withBeeper bool) []byte {
	n := statusLen
	if withBeeper {
		n = statusLenExt
	}
	p := make([]byte, n)
	p[statusPower] = 1
	p[statusMode] = 2       // cool
	p[statusActiveMode] = 2 // cool
	p[statusFanSpeed] = 3   // high
	binary.BigEndian.PutUint16(p[statusTargetTemp:], 2200)
	binary.BigEndian.PutUint16(p[statusIndoorTemp:], uint16(int16(2345)))
	p[statusHVane] = 1
	p[statusVVane] = 0
	p[statusThermostat] = 2 // cooling
	p[statusFlags] = flagDisplay
	tempCorr := int16(-10)
	binary.BigEndian.PutUint16(p[statusTempCorr:], uint16(tempCorr))
	if withBeeper {
		p[statusFlags2] = flagBeeper
	}
	return p
}

// sa2Frame assembles a baseline frame around a type and payload.
func sa2Frame(ftype byte, payload []byte) []byte {
	return (&SmartAir2{}).frame(ftype, payload)
}

// honFrame assembles an extended frame around a type, seq and payload.
func honFrame(ftype, seq byte, payload []byte) []byte {
	return (&HOn{}).frame(ftype, seq, payload)
}
