package exchange

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/pkg/clock"
	"github.com/c360/hlxmatrix/protocol/framing"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// DefaultTimeout applies to requests that do not set their own.
const DefaultTimeout = 2 * time.Second

// Sender writes one encoded request frame to the connection.
type Sender interface {
	Send(frame []byte) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(frame []byte) error

// Send calls f.
func (f SenderFunc) Send(frame []byte) error { return f(frame) }

// Timers schedules timeout callbacks. Both clock.Clock and loop.Scheduler
// satisfy it; the latter keeps callbacks on the event loop.
type Timers interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) *clock.Timer
}

// Request describes one exchange.
type Request struct {
	// Payload is sent wrapped in request delimiters.
	Payload string
	// Expect is the response pattern that completes the exchange.
	Expect *grammar.Pattern
	// Accept optionally narrows Expect, for example to the requested id.
	Accept func(grammar.Captures) bool
	// Timeout overrides the manager default when positive.
	Timeout time.Duration
	// Complete runs once on the loop when the exchange reaches a terminal
	// state. err is nil exactly when the exchange completed.
	Complete func(captures grammar.Captures, err error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout sets the default per-exchange timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records exchange outcomes, latency and queue depth under the
// given connection label.
func WithMetrics(metrics *metric.Metrics, connection string) Option {
	return func(m *Manager) {
		m.metrics = metrics
		m.connection = connection
	}
}

// Manager serializes exchanges on one connection.
type Manager struct {
	sender     Sender
	timers     Timers
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metric.Metrics
	connection string

	seq     uint64
	queue   []*Handle
	pending *Handle
	pumping bool
}

// NewManager returns a Manager sending through sender and timing out
// through timers.
func NewManager(sender Sender, timers Timers, opts ...Option) *Manager {
	m := &Manager{
		sender:  sender,
		timers:  timers,
		timeout: DefaultTimeout,
		logger:  slog.Default().With("component", "exchange"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit queues req and starts it if nothing is pending.
func (m *Manager) Submit(req Request) (*Handle, error) {
	if req.Payload == "" || req.Expect == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidArgument, "exchange", "Submit", "request validation")
	}
	m.seq++
	h := &Handle{
		id:      m.seq,
		req:     req,
		manager: m,
		state:   Queued,
		done:    make(chan struct{}),
	}
	m.queue = append(m.queue, h)
	m.logger.Debug("Exchange queued", "exchange_id", h.id, "payload", req.Payload, "queue_depth", len(m.queue))
	m.pump()
	return h, nil
}

// Pending returns the in-flight exchange, or nil.
func (m *Manager) Pending() *Handle { return m.pending }

// QueueLen returns the number of queued exchanges, the pending one excluded.
func (m *Manager) QueueLen() int { return len(m.queue) }

// HandleResponse offers a response payload to the pending exchange and
// reports whether it was consumed.
func (m *Manager) HandleResponse(payload string) bool {
	h := m.pending
	if h == nil {
		return false
	}
	if grammar.Error.Match(payload) {
		m.finish(h, Failed, nil, fmt.Errorf("%q: %w", h.req.Payload, errors.ErrRequestRejected))
		return true
	}
	if !h.req.Expect.Match(payload) {
		return false
	}
	captures, err := h.req.Expect.Parse(payload)
	if err != nil {
		m.logger.Warn("Response capture mismatch", "exchange_id", h.id, "payload", payload, "error", err)
		return false
	}
	if h.req.Accept != nil && !h.req.Accept(captures) {
		return false
	}
	m.finish(h, Completed, captures, nil)
	return true
}

// Cancel moves h to Cancelled. A pending h frees the connection for the
// next queued exchange.
func (m *Manager) Cancel(h *Handle) {
	if h == nil || h.manager != m || h.State().Terminal() {
		return
	}
	m.finish(h, Cancelled, nil, errors.ErrCancelled)
}

// Fail fails the pending exchange and then every queued one, in FIFO
// order, with err. A nil err means errors.ErrTransportLost.
func (m *Manager) Fail(err error) {
	if err == nil {
		err = errors.ErrTransportLost
	}
	victims := make([]*Handle, 0, len(m.queue)+1)
	if m.pending != nil {
		victims = append(victims, m.pending)
	}
	victims = append(victims, m.queue...)
	m.queue = nil
	if len(victims) > 0 {
		m.logger.Error("Failing outstanding exchanges", "count", len(victims), "error", err)
	}
	for _, h := range victims {
		m.finish(h, Failed, nil, err)
	}
}

func (m *Manager) pump() {
	if m.pumping {
		return
	}
	m.pumping = true
	defer func() { m.pumping = false }()

	for m.pending == nil && len(m.queue) > 0 {
		h := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		m.start(h)
	}
	m.metrics.SetQueueDepth(m.connection, len(m.queue))
}

func (m *Manager) start(h *Handle) {
	m.pending = h
	h.setState(Pending)
	h.sentAt = m.timers.Now()

	timeout := h.req.Timeout
	if timeout <= 0 {
		timeout = m.timeout
	}
	h.timer = m.timers.AfterFunc(timeout, func() {
		if m.pending == h {
			m.finish(h, TimedOut, nil, fmt.Errorf("%q after %s: %w", h.req.Payload, timeout, errors.ErrExchangeTimeout))
		}
	})

	if err := m.sender.Send(framing.Encode(framing.Request, h.req.Payload)); err != nil && m.pending == h {
		m.finish(h, Failed, nil, errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrTransportLost, err),
			"exchange", "start", "send request"))
	}
}

func (m *Manager) finish(h *Handle, s State, captures grammar.Captures, err error) {
	if !h.terminate(s, captures, err) {
		return
	}
	h.timer.Stop()

	if m.pending == h {
		m.pending = nil
	} else {
		m.remove(h)
	}

	var latency time.Duration
	if !h.sentAt.IsZero() {
		latency = m.timers.Now().Sub(h.sentAt)
	}
	m.metrics.RecordExchange(s.String(), latency)

	switch s {
	case Completed, Cancelled:
		m.logger.Debug("Exchange finished", "exchange_id", h.id, "state", s.String(), "latency", latency)
	case Failed:
		if errors.Is(err, errors.ErrRequestRejected) {
			m.logger.Warn("Request rejected", "exchange_id", h.id, "payload", h.req.Payload)
		} else {
			m.logger.Error("Exchange failed", "exchange_id", h.id, "payload", h.req.Payload, "error", err)
		}
	case TimedOut:
		m.logger.Error("Exchange timed out", "exchange_id", h.id, "payload", h.req.Payload)
	}

	if h.req.Complete != nil {
		h.req.Complete(captures, err)
	}
	m.pump()
}

func (m *Manager) remove(h *Handle) {
	for i, q := range m.queue {
		if q == h {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}
