// internal/haier/protocol.go
package haier

import (
	"bufio"
	"errors"
	"time"

	"github.com/vpiyanov/haier-modbus-bridge/internal/ac"
)

// ErrUnsupported is returned by EncodeCommand for fields the active
// protocol variant cannot express. Callers must treat it as a permanent
// rejection, not a retryable failure.
var ErrUnsupported = errors.New("haier: capability not supported by protocol variant")

// FrameError reports a malformed or checksum-failing frame.
// The adapter never retries; retry policy lives in the synchronizer.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string {
	return "haier: bad frame: " + e.Reason
}

// Command is one encoded control frame ready for the transport.
type Command struct {
	Frame []byte

	// Seq correlates the command with a later ack frame.
	// Only meaningful when Correlated is true (extended variant).
	Seq        uint8
	Correlated bool
}

// Delta is a partial device-state update decoded from one frame.
// Fields absent from the map were not reported and must be left untouched.
type Delta struct {
	Fields map[ac.Field]int32

	// AckSeq is set when the frame acknowledges a previously sent command.
	AckSeq *uint8
}

// Protocol is the capability contract over the closed set of Haier
// dialects. Framing, checksums and escaping are internal to each variant;
// only the logical command/telemetry vocabulary is shared.
//
// Implementations are not safe for concurrent use: the synchronizer is
// the single caller.
type Protocol interface {
	Name() string

	// EncodeCommand renders one field change as a control frame.
	EncodeCommand(field ac.Field, value int32) (Command, error)

	// DecodeTelemetry parses one frame as read off the wire.
	DecodeTelemetry(frame []byte) (Delta, error)

	// PollFrame returns a status-request frame.
	PollFrame() []byte

	// PollInterval is the advisory status polling period to use when no
	// write is pending.
	PollInterval() time.Duration

	// ReadFrame extracts the next complete frame from the byte stream,
	// resynchronizing on the frame header. It returns *FrameError for
	// recoverable framing faults and passes transport errors through.
	ReadFrame(r *bufio.Reader) ([]byte, error)
}
