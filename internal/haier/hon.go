// internal/haier/hon.go
package haier

import (
	"bufio"
	"fmt"
	"time"

	"github.com/vpiyanov/haier-modbus-bridge/internal/ac"
)

// HOn is the extended Haier dialect.
//
// Wire format:
//
//	0xFF 0xFF | LEN | TYPE | SEQ | PAYLOAD... | CHK | CRC_HI | CRC_LO
//
// LEN counts TYPE through CHK. CHK is the modular 8-bit sum of LEN
// through PAYLOAD; the CRC-16 trailer covers LEN through CHK. Control
// frames carry a sequence byte that the unit echoes back in ack frames,
// so commands can be correlated without re-encoding.
type HOn struct {
	seq uint8
}

func NewHOn() *HOn { return &HOn{} }

func (p *HOn) Name() string { return "hon" }

func (p *HOn) PollInterval() time.Duration { return 2 * time.Second }

func (p *HOn) EncodeCommand(field ac.Field, value int32) (Command, error) {
	code, ok := commandCode(field)
	if !ok {
		return Command{}, ErrUnsupported
	}
	hi, lo := beValue(value)
	seq := p.nextSeq()
	return Command{
		Frame:      p.frame(frameTypeControl, seq, []byte{code, hi, lo}),
		Seq:        seq,
		Correlated: true,
	}, nil
}

func (p *HOn) PollFrame() []byte {
	return p.frame(frameTypeStatusRequest, p.nextSeq(), nil)
}

func (p *HOn) nextSeq() uint8 {
	p.seq++
	return p.seq
}

func (p *HOn) frame(ftype, seq byte, payload []byte) []byte {
	length := byte(2 + len(payload) + 1)
	out := make([]byte, 0, 5+int(length))
	out = append(out, frameHeader, frameHeader, length, ftype, seq)
	out = append(out, payload...)
	out = append(out, honChecksum(out[2:]))
	crc := crc16(out[2:])
	out = append(out, byte(crc>>8), byte(crc))
	return out
}

func (p *HOn) DecodeTelemetry(frame []byte) (Delta, error) {
	if len(frame) < 8 || frame[0] != frameHeader || frame[1] != frameHeader {
		return Delta{}, &FrameError{Reason: "short frame or missing header"}
	}
	length := int(frame[2])
	if len(frame) != 5+length {
		return Delta{}, &FrameError{Reason: fmt.Sprintf("length mismatch: header says %d", length)}
	}

	crcAt := len(frame) - 2
	if got, want := uint16(frame[crcAt])<<8|uint16(frame[crcAt+1]), crc16(frame[2:crcAt]); got != want {
		return Delta{}, &FrameError{Reason: fmt.Sprintf("crc 0x%04x, computed 0x%04x", got, want)}
	}
	if got, want := frame[crcAt-1], honChecksum(frame[2:crcAt-1]); got != want {
		return Delta{}, &FrameError{Reason: fmt.Sprintf("checksum 0x%02x, computed 0x%02x", got, want)}
	}

	ftype := frame[3]
	seq := frame[4]
	payload := frame[5 : crcAt-1]

	switch ftype {
	case frameTypeStatus:
		fields, ok := parseStatus(payload, true)
		if !ok {
			return Delta{}, &FrameError{Reason: "truncated status payload"}
		}
		return Delta{Fields: fields}, nil

	case frameTypeAck:
		s := seq
		return Delta{AckSeq: &s}, nil

	default:
		return Delta{}, &FrameError{Reason: fmt.Sprintf("unexpected frame type 0x%02x", ftype)}
	}
}

func (p *HOn) ReadFrame(r *bufio.Reader) ([]byte, error) {
	if err := syncHeader(r); err != nil {
		return nil, err
	}
	length, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if length < 3 || length > 64 {
		return nil, &FrameError{Reason: fmt.Sprintf("implausible length %d", length)}
	}
	frame := make([]byte, 5+int(length))
	frame[0], frame[1], frame[2] = frameHeader, frameHeader, length
	if _, err := readFull(r, frame[3:]); err != nil {
		return nil, err
	}
	return frame, nil
}

func honChecksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}
