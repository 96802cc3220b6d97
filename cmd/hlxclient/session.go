package main

import (
	"context"
	"time"

	"github.com/c360/hlxmatrix/client"
	"github.com/c360/hlxmatrix/config"
	"github.com/c360/hlxmatrix/discovery"
	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/pkg/clock"
	"github.com/c360/hlxmatrix/pkg/loop"
	"github.com/c360/hlxmatrix/transport"
)

const connectTimeout = 5 * time.Second

// session is one client application running against one server.
type session struct {
	app    *client.Application
	loop   *loop.Loop
	runner *client.Runner
	addr   string

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// resolve returns the server address, browsing mDNS when asked to or
// when no address is configured.
func (c *cli) resolve(ctx context.Context) (string, error) {
	if !c.flags.discover && (c.cfg.Address != "" || !c.cfg.Discovery.Enabled) {
		return c.cfg.Address, nil
	}
	wait := c.cfg.Discovery.BrowseTimeout
	if wait <= 0 {
		wait = config.DefaultBrowseTimeout
	}
	servers, err := discovery.Find(ctx, wait, c.logger)
	if err != nil {
		return "", err
	}
	if len(servers) == 0 {
		return "", errors.WrapTransient(errors.ErrNotFound, appName, "resolve", "discover server")
	}
	c.logger.Info("Using discovered server", "instance", servers[0].Instance, "addr", servers[0].Addr())
	return servers[0].Addr(), nil
}

// newSession builds an application for addr without connecting it.
func (c *cli) newSession(addr string, metrics *metric.Metrics, opts ...client.RunnerOption) (*session, error) {
	l := loop.New(c.logger)
	app, err := client.New(client.Deps{
		Timers:   loop.NewScheduler(l, clock.Real()),
		Timeout:  c.cfg.Timeout,
		MaxFrame: c.cfg.MaxFrame,
		Logger:   c.logger,
		Metrics:  metrics,
	})
	if err != nil {
		return nil, err
	}

	dial := []transport.Option{
		transport.WithLogger(c.logger),
		transport.WithDialTimeout(connectTimeout),
	}
	if metrics != nil {
		dial = append(dial, transport.WithMetrics(metrics, metric.EndpointClient))
	}
	opts = append([]client.RunnerOption{
		client.WithDialOptions(dial...),
		client.WithRunnerLogger(c.logger),
	}, opts...)

	return &session{
		app:    app,
		loop:   l,
		runner: client.NewRunner(app, l, addr, opts...),
		addr:   addr,
		done:   make(chan struct{}),
	}, nil
}

// start runs the session until close or a connection error.
func (s *session) start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go func() {
		defer close(s.done)
		s.err = s.runner.Run(ctx)
	}()
}

// waitConnected blocks until the first attach.
func (s *session) waitConnected(ctx context.Context) error {
	timer := time.NewTimer(connectTimeout)
	defer timer.Stop()
	select {
	case <-s.runner.Connected():
		return nil
	case <-s.done:
		if s.err == nil {
			return errors.ErrTransportLost
		}
		return s.err
	case <-timer.C:
		return errors.WrapTransient(errors.ErrConnectionTimeout, appName, "connect", s.addr)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// do runs op and waits for its exchange.
func (s *session) do(ctx context.Context, op func(*client.Application) (*exchange.Handle, error)) error {
	return s.runner.Do(ctx, op)
}

// read runs fn against the model on the loop.
func (s *session) read(ctx context.Context, fn func(*model.Model) error) error {
	return s.loop.Call(ctx, func() error { return fn(s.app.Model()) })
}

func (s *session) close() error {
	s.cancel()
	<-s.done
	return s.err
}

// dial resolves the server and returns a connected session.
func (c *cli) dial(ctx context.Context) (*session, error) {
	addr, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	s, err := c.newSession(addr, nil)
	if err != nil {
		return nil, err
	}
	s.start(ctx)
	if err := s.waitConnected(ctx); err != nil {
		_ = s.close()
		return nil, err
	}
	return s, nil
}
