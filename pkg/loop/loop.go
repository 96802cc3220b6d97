// Package loop provides the single-threaded event loop that owns an
// endpoint's protocol state.
//
// Framing, dispatch, exchange bookkeeping and model mutation all run as
// tasks on one Loop. Reader goroutines and timers never touch that state
// directly; they Post closures instead.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/c360/hlxmatrix/errors"
)

// Loop runs posted tasks one at a time in posting order.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	running bool
}

// New creates a Loop. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger.With("component", "loop"),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Post queues fn. It never blocks and is safe from any goroutine,
// including from a task running on the loop. It reports false once the
// loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits for its result. It must not be
// called from a task already running on the loop.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if !l.Post(func() { result <- fn() }) {
		return errors.ErrShuttingDown
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return errors.ErrShuttingDown
	}
}

// Run executes tasks until ctx is cancelled. Tasks still queued at that
// point are discarded.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.ErrAlreadyStarted
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	}()

	for {
		for {
			task, ok := l.next()
			if !ok {
				break
			}
			l.run(task)
			if ctx.Err() != nil {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Drain runs every queued task on the calling goroutine, including tasks
// posted while draining. It is for tests that drive the loop by hand and
// must not be combined with Run.
func (l *Loop) Drain() int {
	count := 0
	for {
		task, ok := l.next()
		if !ok {
			return count
		}
		l.run(task)
		count++
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "panic", fmt.Sprint(r))
		}
	}()
	task()
}
