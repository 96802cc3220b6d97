// Package natspub publishes engine events to NATS.
//
// Each event is published as a JSON event.Envelope on
// "<prefix>.<Kind>", e.g. "hlx.events.ZoneVolume". Publishing happens on a
// worker pool keyed by kind, so events of one kind, and therefore on one
// subject, keep their order.
package natspub

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/pkg/clock"
	"github.com/c360/hlxmatrix/pkg/worker"
)

// DefaultSubjectPrefix is used when Config.SubjectPrefix is empty.
const DefaultSubjectPrefix = "hlx.events"

// Publisher sends raw messages. natsclient.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Config configures a Sink.
type Config struct {
	SubjectPrefix string
	// Source is stamped into every envelope, typically the endpoint
	// address.
	Source    string
	Workers   int
	QueueSize int
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics counts published events and registers pool metrics.
func WithMetrics(m *metric.Metrics, registry *metric.MetricsRegistry) Option {
	return func(s *Sink) {
		s.metrics = m
		s.registry = registry
	}
}

// WithClock sets the clock stamping envelopes.
func WithClock(c clock.Clock) Option {
	return func(s *Sink) { s.clock = c }
}

type message struct {
	subject string
	kind    event.Kind
	data    []byte
}

// Sink is an event.Handler that forwards events to NATS.
type Sink struct {
	pub      Publisher
	prefix   string
	source   string
	logger   *slog.Logger
	metrics  *metric.Metrics
	registry *metric.MetricsRegistry
	clock    clock.Clock
	pool     *worker.Pool[message]
}

// New creates a Sink publishing through pub.
func New(pub Publisher, cfg Config, opts ...Option) *Sink {
	s := &Sink{
		pub:    pub,
		prefix: cfg.SubjectPrefix,
		source: cfg.Source,
		logger: slog.Default(),
		clock:  clock.Real(),
	}
	if s.prefix == "" {
		s.prefix = DefaultSubjectPrefix
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "natspub")

	workers, queue := cfg.Workers, cfg.QueueSize
	if workers <= 0 {
		workers = 2
	}
	if queue <= 0 {
		queue = 256
	}
	poolOpts := []worker.Option[message]{
		worker.WithKey(func(m message) uint64 { return uint64(m.kind) }),
	}
	if s.registry != nil {
		poolOpts = append(poolOpts, worker.WithMetricsRegistry[message](s.registry, "natspub"))
	}
	s.pool = worker.NewPool(workers, queue, s.publish, poolOpts...)
	return s
}

// Subject returns the subject events of kind k are published on.
func (s *Sink) Subject(k event.Kind) string { return s.prefix + "." + k.String() }

// Start launches the publishing workers.
func (s *Sink) Start(ctx context.Context) error {
	if err := s.pool.Start(ctx); err != nil {
		return errors.WrapFatal(err, "natspub", "Start", "start workers")
	}
	return nil
}

// Stop drains queued events for up to timeout.
func (s *Sink) Stop(timeout time.Duration) error {
	return s.pool.Stop(timeout)
}

// Handle queues e for publishing. It never blocks; a full queue drops the
// event.
func (s *Sink) Handle(e event.Event) {
	if e.Kind().Internal() {
		return
	}
	data, err := event.Marshal(e, s.source, s.clock.Now())
	if err != nil {
		s.logger.Error("Event encoding failed", "kind", e.Kind().String(), "error", err)
		return
	}
	msg := message{subject: s.Subject(e.Kind()), kind: e.Kind(), data: data}
	if err := s.pool.Submit(msg); err != nil {
		s.logger.Warn("Dropping event", "subject", msg.subject, "error", err)
	}
}

func (s *Sink) publish(ctx context.Context, m message) error {
	if err := s.pub.Publish(ctx, m.subject, m.data); err != nil {
		s.logger.Warn("Publish failed", "subject", m.subject, "error", err)
		return errors.WrapTransient(err, "natspub", "publish", "publish event")
	}
	s.metrics.RecordEvent("nats")
	return nil
}
