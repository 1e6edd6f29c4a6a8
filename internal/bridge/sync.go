// internal/bridge/sync.go
package bridge

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/vpiyanov/haier-modbus-bridge/internal/ac"
	"github.com/vpiyanov/haier-modbus-bridge/internal/haier"
	"github.com/vpiyanov/haier-modbus-bridge/internal/metrics"
	"github.com/vpiyanov/haier-modbus-bridge/internal/regmap"
)

// ErrQueueFull is returned by Submit when the event queue is saturated.
// The server engine maps it to a device-busy exception.
var ErrQueueFull = errors.New("bridge: event queue full")

// Config is the synchronizer's retry/timing policy.
type Config struct {
	// CommandTimeout bounds one command/ack exchange.
	CommandTimeout time.Duration
	// RetryBudget is the number of retransmissions after the first send.
	RetryBudget int
	// PollInterval overrides the protocol's advisory hint when non-zero.
	PollInterval time.Duration
}

// Synchronizer reconciles Modbus-side write intents with HVAC-side
// telemetry. It is the single writer of the canonical device state:
// writes and telemetry are enqueued as events and applied one at a time,
// so no torn state is ever observable.
type Synchronizer struct {
	proto haier.Protocol
	port  io.ReadWriter
	cfg   Config

	events chan event

	// view is confirmed state overlaid with pending targets. It is the
	// only surface exposed to the server engine and is never blocked on
	// the HVAC transport.
	mu   sync.RWMutex
	view ac.State

	// Loop-owned. Never touched outside the event loop.
	confirmed ac.State
	tracks    [ac.NumFields]track
}

type fieldStatus uint8

const (
	statusConfirmed fieldStatus = iota
	statusPending
	statusRejected
)

// track is the per-field intent state machine.
type track struct {
	status fieldStatus
	intent intent
}

// intent is one accepted write awaiting confirmation from the unit.
type intent struct {
	value       int32
	frame       []byte
	seq         uint8
	correlated  bool
	deadline    time.Time
	retriesLeft int
}

type eventKind uint8

const (
	evWrite eventKind = iota
	evFrame
)

type event struct {
	kind   eventKind
	writes []regmap.Write
	frame  []byte
}

func New(proto haier.Protocol, port io.ReadWriter, cfg Config) *Synchronizer {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 500 * time.Millisecond
	}
	if cfg.RetryBudget < 0 {
		cfg.RetryBudget = 0
	}
	s := &Synchronizer{
		proto:     proto,
		port:      port,
		cfg:       cfg,
		events:    make(chan event, 64),
		view:      ac.Default(),
		confirmed: ac.Default(),
	}
	return s
}

// Snapshot returns the state the register file serves: last confirmed
// telemetry overlaid with pending write targets.
func (s *Synchronizer) Snapshot() ac.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Submit enqueues validated write intents. Non-blocking. The batch
// occupies one queue slot, so a multi-write PDU is accepted or refused
// as a whole: ErrQueueFull means no intent of the batch was enqueued.
func (s *Synchronizer) Submit(writes ...regmap.Write) error {
	if len(writes) == 0 {
		return nil
	}
	select {
	case s.events <- event{kind: evWrite, writes: writes}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run drives the event loop until ctx is done. It owns all state
// transitions; the frame reader goroutine only feeds the queue.
func (s *Synchronizer) Run(ctx context.Context) error {
	go s.readLoop(ctx)

	// Converge fast: request a full status frame before the first tick.
	s.sendPoll()

	pollEvery := s.proto.PollInterval()
	if s.cfg.PollInterval > 0 {
		pollEvery = s.cfg.PollInterval
	}
	poll := time.NewTicker(pollEvery)
	defer poll.Stop()

	retry := time.NewTicker(retryScan(s.cfg.CommandTimeout))
	defer retry.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-s.events:
			switch ev.kind {
			case evWrite:
				for _, w := range ev.writes {
					s.handleWrite(w)
				}
			case evFrame:
				s.handleFrame(ev.frame)
			}

		case <-poll.C:
			// A pending exchange owns the line; poll only when idle.
			if !s.anyPending() {
				s.sendPoll()
			}

		case <-retry.C:
			s.checkDeadlines(time.Now())
		}
	}
}

func retryScan(timeout time.Duration) time.Duration {
	scan := timeout / 4
	if scan < 5*time.Millisecond {
		scan = 5 * time.Millisecond
	}
	return scan
}

// readLoop extracts frames from the HVAC byte stream and feeds the event
// queue. Framing faults are counted and skipped; transport errors end
// the loop when the context is gone.
func (s *Synchronizer) readLoop(ctx context.Context) {
	r := bufio.NewReader(s.port)
	for {
		frame, err := s.proto.ReadFrame(r)
		if err != nil {
			var fe *haier.FrameError
			if errors.As(err, &fe) {
				metrics.FrameErrors.Inc()
				log.Printf("bridge: dropped frame: %v", err)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Printf("bridge: hvac read failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		select {
		case s.events <- event{kind: evFrame, frame: frame}:
		case <-ctx.Done():
			return
		}
	}
}

// ---- EVENT HANDLERS (loop goroutine only) ----

func (s *Synchronizer) handleWrite(w regmap.Write) {
	// The register map already validated; re-check the field invariant
	// before anything reaches the wire.
	if err := ac.Validate(w.Field, w.Value); err != nil {
		log.Printf("bridge: dropping invalid intent: %v", err)
		return
	}

	tr := &s.tracks[w.Field]

	cmd, err := s.proto.EncodeCommand(w.Field, w.Value)
	if errors.Is(err, haier.ErrUnsupported) {
		// Permanent rejection: the register keeps serving the last
		// confirmed value and the client observes it on re-read.
		tr.status = statusRejected
		tr.intent = intent{}
		s.setView(w.Field, s.confirmed.Get(w.Field))
		metrics.WritesRejected.Inc()
		log.Printf("bridge: %s not supported by %s variant, write rejected", w.Field, s.proto.Name())
		return
	}
	if err != nil {
		log.Printf("bridge: encode %s=%d failed: %v", w.Field, w.Value, err)
		return
	}

	// One intent per field: a new write supersedes, never queues.
	tr.status = statusPending
	tr.intent = intent{
		value:       w.Value,
		frame:       cmd.Frame,
		seq:         cmd.Seq,
		correlated:  cmd.Correlated,
		deadline:    time.Now().Add(s.cfg.CommandTimeout),
		retriesLeft: s.cfg.RetryBudget,
	}
	s.setView(w.Field, w.Value)
	s.send(cmd.Frame)
	metrics.CommandsSent.Inc()
	s.updateGauges()
}

func (s *Synchronizer) handleFrame(frame []byte) {
	delta, err := s.proto.DecodeTelemetry(frame)
	if err != nil {
		metrics.FrameErrors.Inc()
		log.Printf("bridge: telemetry decode failed: %v", err)
		return
	}
	metrics.FramesReceived.Inc()
	metrics.LastTelemetry.SetToCurrentTime()

	if delta.AckSeq != nil {
		s.applyAck(*delta.AckSeq)
	}

	for f, v := range delta.Fields {
		s.applyTelemetry(f, v)
	}
	s.updateGauges()
}

// applyAck confirms the pending intent the unit acknowledged.
func (s *Synchronizer) applyAck(seq uint8) {
	for f := ac.Field(0); f < ac.NumFields; f++ {
		tr := &s.tracks[f]
		if tr.status != statusPending || !tr.intent.correlated || tr.intent.seq != seq {
			continue
		}
		if err := s.confirmed.Set(f, tr.intent.value); err != nil {
			log.Printf("bridge: ack apply failed: %v", err)
			continue
		}
		tr.status = statusConfirmed
		tr.intent = intent{}
	}
}

func (s *Synchronizer) applyTelemetry(f ac.Field, v int32) {
	// The read-only class never has intent machinery: telemetry is the
	// only writer of these fields.
	if f.Reported() {
		if err := s.confirmed.Set(f, v); err != nil {
			log.Printf("bridge: telemetry %s=%d rejected: %v", f, v, err)
			return
		}
		s.setView(f, v)
		return
	}

	tr := &s.tracks[f]
	switch tr.status {
	case statusPending:
		// Only a report matching the pending target confirms it;
		// stale or unrelated telemetry must not clobber the intent.
		if v != tr.intent.value {
			return
		}
		if err := s.confirmed.Set(f, v); err != nil {
			log.Printf("bridge: telemetry %s=%d rejected: %v", f, v, err)
			return
		}
		tr.status = statusConfirmed
		tr.intent = intent{}

	case statusRejected:
		// Rejection is terminal for the client's intent only; the unit
		// still owns the field, so its own reports resume tracking.
		if err := s.confirmed.Set(f, v); err != nil {
			log.Printf("bridge: telemetry %s=%d rejected: %v", f, v, err)
			return
		}
		tr.status = statusConfirmed
		s.setView(f, v)

	default:
		// Confirmed: identical values apply as a no-op, without churn.
		if s.confirmed.Get(f) == v {
			return
		}
		if err := s.confirmed.Set(f, v); err != nil {
			log.Printf("bridge: telemetry %s=%d rejected: %v", f, v, err)
			return
		}
		tr.status = statusConfirmed
		s.setView(f, v)
	}
}

// checkDeadlines retransmits or reverts timed-out intents.
func (s *Synchronizer) checkDeadlines(now time.Time) {
	for f := ac.Field(0); f < ac.NumFields; f++ {
		tr := &s.tracks[f]
		if tr.status != statusPending || now.Before(tr.intent.deadline) {
			continue
		}

		if tr.intent.retriesLeft <= 0 {
			// Lossy write: revert to the last confirmed value. Modbus
			// has no push channel, so the client observes the loss only
			// by re-reading the register.
			tr.status = statusConfirmed
			tr.intent = intent{}
			s.setView(f, s.confirmed.Get(f))
			metrics.WritesLost.Inc()
			log.Printf("bridge: %s write lost after retries, reverting", f)
			continue
		}

		tr.intent.retriesLeft--
		metrics.CommandRetries.Inc()

		if tr.intent.correlated {
			// Same encoded command id, so a late ack still matches.
			s.send(tr.intent.frame)
		} else {
			// Re-encode from the current target; it may have been
			// superseded since the first send.
			cmd, err := s.proto.EncodeCommand(f, tr.intent.value)
			if err != nil {
				log.Printf("bridge: re-encode %s failed: %v", f, err)
				continue
			}
			tr.intent.frame = cmd.Frame
			s.send(cmd.Frame)
		}
		tr.intent.deadline = now.Add(s.cfg.CommandTimeout)
	}
	s.updateGauges()
}

// ---- HELPERS (loop goroutine only) ----

func (s *Synchronizer) anyPending() bool {
	for f := range s.tracks {
		if s.tracks[f].status == statusPending {
			return true
		}
	}
	return false
}

func (s *Synchronizer) sendPoll() {
	s.send(s.proto.PollFrame())
}

func (s *Synchronizer) send(frame []byte) {
	if _, err := s.port.Write(frame); err != nil {
		log.Printf("bridge: hvac write failed: %v", err)
	}
}

func (s *Synchronizer) setView(f ac.Field, v int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.view.Set(f, v); err != nil {
		log.Printf("bridge: view update failed: %v", err)
	}
}

func (s *Synchronizer) updateGauges() {
	snap := s.Snapshot()
	metrics.IndoorTemp.Set(float64(snap.IndoorTemp) / 100)
	metrics.TargetTemp.Set(float64(snap.TargetTemp) / 100)
	if snap.Power {
		metrics.PowerOn.Set(1)
	} else {
		metrics.PowerOn.Set(0)
	}
}
