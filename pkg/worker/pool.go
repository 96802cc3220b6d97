package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/metric"
)

// Lifecycle and submission errors.
var (
	ErrPoolNotStarted     = errors.New("worker: pool not started")
	ErrPoolStopped        = errors.New("worker: pool stopped")
	ErrPoolAlreadyStarted = errors.New("worker: pool already started")
	ErrQueueFull          = errors.New("worker: queue full")
	ErrNilProcessor       = errors.New("worker: nil processor")
	ErrStopTimeout        = errors.New("worker: stop timed out")
)

// Pool processes items of type T on a fixed set of workers. Each worker
// owns a queue; items with the same key land on the same worker and are
// processed in submission order.
type Pool[T any] struct {
	workers   int
	queueSize int
	processor func(context.Context, T) error
	key       func(T) uint64

	queues  []chan T
	next    atomic.Uint64
	metrics *poolMetrics
	wg      sync.WaitGroup

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool

	submitted atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	metricsRegistry *metric.MetricsRegistry
	metricsPrefix   string
}

type poolMetrics struct {
	queueDepth     prometheus.Gauge
	submitted      prometheus.Counter
	processed      prometheus.Counter
	failed         prometheus.Counter
	dropped        prometheus.Counter
	processingTime *prometheus.HistogramVec
}

// Option configures a Pool.
type Option[T any] func(*Pool[T])

// WithMetricsRegistry exports pool metrics named after prefix.
func WithMetricsRegistry[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(p *Pool[T]) {
		p.metricsRegistry = registry
		p.metricsPrefix = prefix
	}
}

// WithKey routes each item to worker key(item) % workers. Without a key
// items are spread round robin and no order is kept between workers.
func WithKey[T any](key func(T) uint64) Option[T] {
	return func(p *Pool[T]) {
		p.key = key
	}
}

// NewPool creates a pool. workers and queueSize default to 1 and 256;
// queueSize is per worker.
func NewPool[T any](workers, queueSize int, processor func(context.Context, T) error, opts ...Option[T]) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if processor == nil {
		panic(ErrNilProcessor)
	}

	p := &Pool[T]{
		workers:   workers,
		queueSize: queueSize,
		processor: processor,
		queues:    make([]chan T, workers),
	}
	for i := range p.queues {
		p.queues[i] = make(chan T, queueSize)
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metricsRegistry != nil && p.metricsPrefix != "" {
		p.metrics = newPoolMetrics(p.metricsRegistry, p.metricsPrefix)
	}
	return p
}

func newPoolMetrics(registry *metric.MetricsRegistry, prefix string) *poolMetrics {
	labels := prometheus.Labels{"pool": prefix}
	m := &poolMetrics{
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hlxmatrix", Subsystem: "worker", Name: "queue_depth",
			Help: "Items waiting across all worker queues", ConstLabels: labels,
		}),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hlxmatrix", Subsystem: "worker", Name: "submitted_total",
			Help: "Items accepted", ConstLabels: labels,
		}),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hlxmatrix", Subsystem: "worker", Name: "processed_total",
			Help: "Items processed", ConstLabels: labels,
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hlxmatrix", Subsystem: "worker", Name: "failed_total",
			Help: "Items whose processor returned an error", ConstLabels: labels,
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hlxmatrix", Subsystem: "worker", Name: "dropped_total",
			Help: "Items refused because the worker queue was full", ConstLabels: labels,
		}),
		processingTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hlxmatrix", Subsystem: "worker", Name: "processing_duration_seconds",
			Help:        "Time spent in the processor",
			Buckets:     []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			ConstLabels: labels,
		}, []string{"status"}),
	}

	service := "worker_" + prefix
	_ = registry.Register(service, "queue_depth", m.queueDepth)
	_ = registry.Register(service, "submitted", m.submitted)
	_ = registry.Register(service, "processed", m.processed)
	_ = registry.Register(service, "failed", m.failed)
	_ = registry.Register(service, "dropped", m.dropped)
	_ = registry.Register(service, "processing_duration", m.processingTime)
	return m
}

// Submit queues work without blocking. It fails with ErrQueueFull when the
// target worker's queue is full.
func (p *Pool[T]) Submit(work T) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.started {
		return ErrPoolNotStarted
	}
	if p.stopped {
		return ErrPoolStopped
	}

	var shard uint64
	if p.key != nil {
		shard = p.key(work) % uint64(p.workers)
	} else {
		shard = p.next.Add(1) % uint64(p.workers)
	}

	select {
	case p.queues[shard] <- work:
		p.submitted.Add(1)
		if p.metrics != nil {
			p.metrics.submitted.Inc()
			p.metrics.queueDepth.Set(float64(p.depth()))
		}
		return nil
	default:
		p.dropped.Add(1)
		if p.metrics != nil {
			p.metrics.dropped.Inc()
		}
		return ErrQueueFull
	}
}

func (p *Pool[T]) depth() int {
	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}

// Start launches the workers. They exit when ctx ends or Stop is called.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}
	for _, q := range p.queues {
		p.wg.Add(1)
		go p.worker(ctx, q)
	}
	p.started = true
	return nil
}

// Stop closes the queues and waits up to timeout for queued work to
// finish.
func (p *Pool[T]) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	if !p.started || p.stopped {
		p.lifecycleMu.Unlock()
		return nil
	}
	p.stopped = true
	for _, q := range p.queues {
		close(q)
	}
	p.lifecycleMu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[T]) Stats() PoolStats {
	return PoolStats{
		Workers:    p.workers,
		QueueSize:  p.queueSize,
		QueueDepth: p.depth(),
		Submitted:  p.submitted.Load(),
		Processed:  p.processed.Load(),
		Failed:     p.failed.Load(),
		Dropped:    p.dropped.Load(),
	}
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Workers    int   `json:"workers"`
	QueueSize  int   `json:"queue_size"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
	Dropped    int64 `json:"dropped"`
}

func (p *Pool[T]) worker(ctx context.Context, queue <-chan T) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case work, ok := <-queue:
			if !ok {
				return
			}
			start := time.Now()
			err := p.processor(ctx, work)
			p.processed.Add(1)
			status := "success"
			if err != nil {
				p.failed.Add(1)
				status = "error"
			}
			if p.metrics != nil {
				p.metrics.processed.Inc()
				if err != nil {
					p.metrics.failed.Inc()
				}
				p.metrics.processingTime.WithLabelValues(status).Observe(time.Since(start).Seconds())
				p.metrics.queueDepth.Set(float64(p.depth()))
			}
		}
	}
}
