package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/pkg/clock"
)

// Defaults.
const (
	DefaultBufferSize    = 100
	DefaultFlushInterval = time.Second
)

// Config holds configuration for the journal.
type Config struct {
	Path          string
	Append        bool
	BufferSize    int
	FlushInterval time.Duration
	// Source is stamped into every envelope.
	Source string
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// WithMetrics counts written events.
func WithMetrics(m *metric.Metrics) Option {
	return func(j *Journal) { j.metrics = m }
}

// WithClock sets the clock stamped into envelopes.
func WithClock(c clock.Clock) Option {
	return func(j *Journal) { j.clock = c }
}

// Journal appends event envelopes to a file.
type Journal struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metric.Metrics
	clock   clock.Clock

	file   *os.File
	fileMu sync.Mutex

	buffer   [][]byte
	bufferMu sync.Mutex

	lifecycleMu sync.Mutex
	running     atomic.Bool
	shutdown    chan struct{}
	wg          sync.WaitGroup

	written atomic.Int64
	failed  atomic.Int64
}

// New returns a stopped Journal.
func New(cfg Config, opts ...Option) *Journal {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	j := &Journal{
		cfg:    cfg,
		logger: slog.Default(),
		clock:  clock.Real(),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.logger = j.logger.With("component", "journal", "path", cfg.Path)
	return j
}

// Start opens the file and starts the flush loop.
func (j *Journal) Start(context.Context) error {
	j.lifecycleMu.Lock()
	defer j.lifecycleMu.Unlock()

	if j.running.Load() {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "journal", "Start", "check running state")
	}
	if j.cfg.Path == "" {
		return errors.WrapFatal(errors.ErrMissingConfig, "journal", "Start", "path check")
	}
	if err := os.MkdirAll(filepath.Dir(j.cfg.Path), 0o755); err != nil {
		return errors.WrapFatal(err, "journal", "Start", "create directory")
	}

	flags := os.O_CREATE | os.O_WRONLY
	if j.cfg.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(j.cfg.Path, flags, 0o644)
	if err != nil {
		return errors.WrapFatal(err, "journal", "Start", "open file")
	}

	j.fileMu.Lock()
	j.file = f
	j.fileMu.Unlock()

	j.shutdown = make(chan struct{})
	j.wg.Add(1)
	go j.flushLoop(j.shutdown)
	j.running.Store(true)

	j.logger.Info("Journal started", "append", j.cfg.Append, "buffer_size", j.cfg.BufferSize)
	return nil
}

// Stop flushes the buffer and closes the file.
func (j *Journal) Stop(timeout time.Duration) error {
	j.lifecycleMu.Lock()
	defer j.lifecycleMu.Unlock()

	if !j.running.Swap(false) {
		return nil
	}
	close(j.shutdown)

	waitCh := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("shutdown timeout after %v", timeout), "journal", "Stop", "shutdown")
	}

	j.flush()

	j.fileMu.Lock()
	defer j.fileMu.Unlock()
	err := j.file.Close()
	j.file = nil
	if err != nil {
		return errors.WrapTransient(err, "journal", "Stop", "close file")
	}
	j.logger.Info("Journal stopped", "written", j.written.Load(), "failed", j.failed.Load())
	return nil
}

// Handle buffers e. Events arriving while stopped are dropped.
func (j *Journal) Handle(e event.Event) {
	if e.Kind().Internal() || !j.running.Load() {
		return
	}
	data, err := event.Marshal(e, j.cfg.Source, j.clock.Now())
	if err != nil {
		j.failed.Add(1)
		j.logger.Warn("Failed to encode event", "kind", e.Kind().String(), "error", err)
		return
	}

	j.bufferMu.Lock()
	j.buffer = append(j.buffer, append(data, '\n'))
	full := len(j.buffer) >= j.cfg.BufferSize
	j.bufferMu.Unlock()

	if full {
		j.flush()
	}
}

// Written reports how many events reached the file.
func (j *Journal) Written() int64 { return j.written.Load() }

func (j *Journal) flushLoop(shutdown <-chan struct{}) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-shutdown:
			return
		case <-ticker.C:
			j.flush()
		}
	}
}

// flush writes the buffered lines in arrival order.
func (j *Journal) flush() {
	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	j.bufferMu.Lock()
	lines := j.buffer
	j.buffer = nil
	j.bufferMu.Unlock()

	if len(lines) == 0 {
		return
	}
	if j.file == nil {
		j.failed.Add(int64(len(lines)))
		j.logger.Error("File closed during flush", "lost", len(lines))
		return
	}

	for _, line := range lines {
		if _, err := j.file.Write(line); err != nil {
			j.failed.Add(1)
			j.logger.Error("Failed to write event", "error", err)
			continue
		}
		j.written.Add(1)
		j.metrics.RecordEvent("file")
	}
}
