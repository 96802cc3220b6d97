package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/pkg/clock"
	"github.com/c360/hlxmatrix/pkg/loop"
	"github.com/c360/hlxmatrix/transport"
)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithDialOptions passes options to transport.Dial.
func WithDialOptions(opts ...transport.Option) RunnerOption {
	return func(r *Runner) { r.dial = append(r.dial, opts...) }
}

// WithOnConnect runs fn on the loop after every attach, typically to
// start a refresh.
func WithOnConnect(fn func(*Application) error) RunnerOption {
	return func(r *Runner) { r.onConnect = fn }
}

// WithReconnect redials delay after a connection is lost. Without it Run
// returns the first connection error.
func WithReconnect(delay time.Duration) RunnerOption {
	return func(r *Runner) {
		r.reconnect = true
		r.reconnectDelay = delay
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRunnerClock sets the clock for reconnect delays.
func WithRunnerClock(c clock.Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// Runner connects an Application to a server and feeds it on a loop.
type Runner struct {
	app    *Application
	loop   *loop.Loop
	addr   string
	logger *slog.Logger
	clock  clock.Clock

	dial           []transport.Option
	onConnect      func(*Application) error
	reconnect      bool
	reconnectDelay time.Duration

	connected     chan struct{}
	connectedOnce sync.Once
}

// NewRunner returns a Runner that connects app to addr. app must have
// been built with timers from a loop.Scheduler on l.
func NewRunner(app *Application, l *loop.Loop, addr string, opts ...RunnerOption) *Runner {
	r := &Runner{
		app:       app,
		loop:      l,
		addr:      addr,
		logger:    slog.Default(),
		clock:     clock.Real(),
		connected: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "runner", "addr", addr)
	return r
}

// Connected is closed after the first successful attach.
func (r *Runner) Connected() <-chan struct{} { return r.connected }

// Run runs the loop and the connection until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.loop.Run(ctx) })
	g.Go(func() error { return r.connect(ctx) })
	return g.Wait()
}

// Do runs op on the loop and waits for the exchange it starts.
func (r *Runner) Do(ctx context.Context, op func(*Application) (*exchange.Handle, error)) error {
	var h *exchange.Handle
	err := r.loop.Call(ctx, func() error {
		var err error
		h, err = op(r.app)
		return err
	})
	if err != nil {
		return err
	}
	return h.Wait(ctx)
}

func (r *Runner) connect(ctx context.Context) error {
	for {
		err := r.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if !r.reconnect {
			return err
		}
		r.logger.Warn("Connection ended, reconnecting", "delay", r.reconnectDelay, "error", err)
		select {
		case <-ctx.Done():
			return nil
		case <-r.clock.After(r.reconnectDelay):
		}
	}
}

// session runs one connection from dial to detach.
func (r *Runner) session(ctx context.Context) error {
	conn, err := transport.Dial(ctx, r.addr, r.dial...)
	if err != nil {
		return err
	}

	err = r.loop.Call(ctx, func() error {
		r.app.Attach(conn, func(error) { _ = conn.Close() })
		if r.onConnect != nil {
			return r.onConnect(r.app)
		}
		return nil
	})
	if err != nil {
		_ = conn.Close()
		r.loop.Post(func() { r.app.Detach(err) })
		return errors.Wrap(err, "client", "session", "attach")
	}
	r.connectedOnce.Do(func() { close(r.connected) })

	readErr := conn.ReadLoop(ctx, func(p []byte) {
		r.loop.Post(func() { r.app.Receive(p) })
	})
	_ = conn.Close()
	r.loop.Post(func() { r.app.Detach(readErr) })
	return readErr
}
