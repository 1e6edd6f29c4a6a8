// internal/haier/smartair2.go
package haier

import (
	"bufio"
	"fmt"
	"time"

	"github.com/vpiyanov/haier-modbus-bridge/internal/ac"
)

// SmartAir2 is the baseline Haier dialect.
//
// Wire format:
//
//	0xFF 0xFF | LEN | TYPE | PAYLOAD... | CHK
//
// LEN counts TYPE through CHK. CHK is the modular 8-bit sum of LEN, TYPE
// and PAYLOAD. There is no command correlation: the unit answers control
// frames with plain status frames only.
type SmartAir2 struct{}

func NewSmartAir2() *SmartAir2 { return &SmartAir2{} }

func (p *SmartAir2) Name() string { return "smartair2" }

func (p *SmartAir2) PollInterval() time.Duration { return 5 * time.Second }

func (p *SmartAir2) EncodeCommand(field ac.Field, value int32) (Command, error) {
	code, ok := commandCode(field)
	if !ok || field == ac.FieldBeeper {
		return Command{}, ErrUnsupported
	}
	hi, lo := beValue(value)
	return Command{Frame: p.frame(frameTypeControl, []byte{code, hi, lo})}, nil
}

func (p *SmartAir2) PollFrame() []byte {
	return p.frame(frameTypeStatusRequest, nil)
}

func (p *SmartAir2) frame(ftype byte, payload []byte) []byte {
	length := byte(1 + len(payload) + 1)
	out := make([]byte, 0, 3+int(length))
	out = append(out, frameHeader, frameHeader, length, ftype)
	out = append(out, payload...)
	out = append(out, sa2Checksum(out[2:]))
	return out
}

func (p *SmartAir2) DecodeTelemetry(frame []byte) (Delta, error) {
	if len(frame) < 5 || frame[0] != frameHeader || frame[1] != frameHeader {
		return Delta{}, &FrameError{Reason: "short frame or missing header"}
	}
	length := int(frame[2])
	if len(frame) != 3+length {
		return Delta{}, &FrameError{Reason: fmt.Sprintf("length mismatch: header says %d", length)}
	}
	if got, want := frame[len(frame)-1], sa2Checksum(frame[2:len(frame)-1]); got != want {
		return Delta{}, &FrameError{Reason: fmt.Sprintf("checksum 0x%02x, computed 0x%02x", got, want)}
	}

	ftype := frame[3]
	payload := frame[4 : len(frame)-1]

	if ftype != frameTypeStatus {
		return Delta{}, &FrameError{Reason: fmt.Sprintf("unexpected frame type 0x%02x", ftype)}
	}
	fields, ok := parseStatus(payload, false)
	if !ok {
		return Delta{}, &FrameError{Reason: "truncated status payload"}
	}
	return Delta{Fields: fields}, nil
}

func (p *SmartAir2) ReadFrame(r *bufio.Reader) ([]byte, error) {
	if err := syncHeader(r); err != nil {
		return nil, err
	}
	length, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if length < 2 || length > 64 {
		return nil, &FrameError{Reason: fmt.Sprintf("implausible length %d", length)}
	}
	frame := make([]byte, 3+int(length))
	frame[0], frame[1], frame[2] = frameHeader, frameHeader, length
	if _, err := readFull(r, frame[3:]); err != nil {
		return nil, err
	}
	return frame, nil
}

func sa2Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// syncHeader consumes bytes until two consecutive header bytes are seen.
func syncHeader(r *bufio.Reader) error {
	var prev byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if prev == frameHeader && b == frameHeader {
			return nil
		}
		prev = b
	}
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
