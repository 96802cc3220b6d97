package server

import (
	"github.com/google/uuid"

	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/pkg/buffer"
	"github.com/c360/hlxmatrix/protocol/framing"
)

// FlowControl pauses and resumes reading from a session's connection.
// transport.Conn implements it.
type FlowControl interface {
	Pause()
	Resume()
}

// Session is one connected client. Its framing state and lifecycle are
// owned by the application loop; Next, Ready and Done are for the
// session's writer goroutine.
type Session struct {
	id      string
	codec   *framing.Codec
	egress  buffer.Buffer[[]byte]
	metrics *metric.Metrics

	ready  chan struct{}
	done   chan struct{}
	closed bool
	cause  error
}

func newSession(a *Application, flow FlowControl) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		codec:   framing.NewCodec(framing.WithMaxFrame(a.maxFrame)),
		metrics: a.metrics,
		ready:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	onWatermark := func(above bool) {
		if flow == nil {
			return
		}
		if above {
			a.metrics.RecordReadPause()
			a.logger.Debug("Pausing session reads", "session", s.id)
			flow.Pause()
			return
		}
		flow.Resume()
	}
	egress, err := buffer.NewCircularBuffer(a.egressCapacity,
		buffer.WithOverflowPolicy[[]byte](buffer.Reject),
		buffer.WithWatermark[[]byte](a.egressHigh, a.egressLow, onWatermark))
	if err != nil {
		return nil, err
	}
	s.egress = egress
	return s, nil
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Ready is signalled when frames were queued.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns why the session ended. Only valid after Done is closed.
func (s *Session) Err() error { return s.cause }

// Next removes the oldest queued frame.
func (s *Session) Next() ([]byte, bool) {
	frame, ok := s.egress.Read()
	if ok {
		s.metrics.AddEgress(-1)
	}
	return frame, ok
}

// Pending returns the number of queued frames.
func (s *Session) Pending() int { return s.egress.Size() }

func (s *Session) enqueue(frame []byte) error {
	if err := s.egress.Write(frame); err != nil {
		return err
	}
	s.metrics.AddEgress(1)
	select {
	case s.ready <- struct{}{}:
	default:
	}
	return nil
}

func (s *Session) close(cause error) bool {
	if s.closed {
		return false
	}
	s.closed = true
	s.cause = cause
	_ = s.egress.Close()
	// Queued frames are dropped.
	for _, ok := s.Next(); ok; _, ok = s.Next() {
	}
	close(s.done)
	return true
}
