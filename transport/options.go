package transport

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/pkg/retry"
)

// Resolver looks up host addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

type options struct {
	logger      *slog.Logger
	metrics     *metric.Metrics
	endpoint    string
	observer    Observer
	retry       *retry.Config
	resolver    Resolver
	dialTimeout time.Duration
	readSize    int
}

// Option configures Dial and Listen.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records connection states under endpoint.
func WithMetrics(m *metric.Metrics, endpoint string) Option {
	return func(o *options) {
		o.metrics = m
		o.endpoint = endpoint
	}
}

// WithObserver sets the state observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithRetry overrides the connect or bind backoff.
func WithRetry(cfg retry.Config) Option {
	return func(o *options) { o.retry = &cfg }
}

// WithResolver overrides name resolution.
func WithResolver(r Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithDialTimeout bounds each connect attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

// WithReadBufferSize sets the size of each socket read.
func WithReadBufferSize(n int) Option {
	return func(o *options) { o.readSize = n }
}

func applyOptions(opts []Option) *options {
	o := &options{
		endpoint:    metric.EndpointClient,
		resolver:    net.DefaultResolver,
		dialTimeout: 5 * time.Second,
		readSize:    4096,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "transport", "endpoint", o.endpoint)
	return o
}
