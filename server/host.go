package server

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/c360/hlxmatrix/pkg/loop"
	"github.com/c360/hlxmatrix/transport"
)

// Host serves an Application over TCP. Application state is touched only
// from the loop; each connection gets a reader and a writer goroutine.
type Host struct {
	app    *Application
	loop   *loop.Loop
	logger *slog.Logger
}

// NewHost returns a Host running app on l.
func NewHost(app *Application, l *loop.Loop, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{app: app, loop: l, logger: logger.With("component", "host")}
}

// Run runs the loop and serves ln until ctx ends.
func (h *Host) Run(ctx context.Context, ln *transport.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.loop.Run(ctx) })
	g.Go(func() error { return h.Serve(ctx, ln) })
	return g.Wait()
}

// Serve accepts connections on ln until ctx ends. The loop must be
// running.
func (h *Host) Serve(ctx context.Context, ln *transport.Listener) error {
	h.logger.Info("Serving", "addr", ln.Addr().String())
	return ln.Serve(ctx, h.handle)
}

func (h *Host) handle(ctx context.Context, conn *transport.Conn) {
	var s *Session
	err := h.loop.Call(ctx, func() error {
		var err error
		s, err = h.app.Open(conn)
		return err
	})
	if err != nil {
		h.logger.Error("Session rejected", "addr", conn.Addr(), "error", err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			for frame, ok := s.Next(); ok; frame, ok = s.Next() {
				if err := conn.Send(frame); err != nil {
					return err
				}
			}
			select {
			case <-s.Ready():
			case <-s.Done():
				return nil
			case <-gctx.Done():
				return nil
			}
		}
	})
	g.Go(func() error {
		return conn.ReadLoop(gctx, func(p []byte) {
			h.loop.Post(func() { h.app.Receive(s, p) })
		})
	})
	g.Go(func() error {
		select {
		case <-s.Done():
			_ = conn.Close()
		case <-gctx.Done():
		}
		return nil
	})

	cause := g.Wait()
	h.loop.Post(func() { h.app.Close(s, cause) })
}
