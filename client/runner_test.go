package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/pkg/clock"
	"github.com/c360/hlxmatrix/pkg/loop"
	"github.com/c360/hlxmatrix/pkg/retry"
	"github.com/c360/hlxmatrix/server"
	"github.com/c360/hlxmatrix/transport"
)

func startServer(ctx context.Context, t *testing.T) (*server.Application, *loop.Loop, string) {
	t.Helper()
	app, err := server.New(server.Deps{})
	require.NoError(t, err)
	l := loop.New(nil)
	ln, err := transport.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = server.NewHost(app, l, nil).Run(ctx, ln) }()
	return app, l, ln.Addr().String()
}

func TestRunnerAgainstServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv, srvLoop, addr := startServer(ctx, t)

	l := loop.New(nil)
	app, err := New(Deps{Timers: loop.NewScheduler(l, clock.Real()), Timeout: time.Second})
	require.NoError(t, err)
	runner := NewRunner(app, l, addr,
		WithDialOptions(transport.WithRetry(retry.Config{MaxAttempts: 3, InitialDelay: 10 * time.Millisecond})))

	runErr := make(chan error, 1)
	go func() { runErr <- runner.Run(ctx) }()

	select {
	case <-runner.Connected():
	case <-ctx.Done():
		t.Fatal("runner never connected")
	}

	require.NoError(t, runner.Do(ctx, func(a *Application) (*exchange.Handle, error) {
		return a.Zones().SetVolume(2, -15)
	}))

	var local, remote int
	require.NoError(t, l.Call(ctx, func() error {
		zone, err := app.Model().Zone(2)
		local = zone.Volume
		return err
	}))
	require.NoError(t, srvLoop.Call(ctx, func() error {
		zone, err := srv.Model().Zone(2)
		remote = zone.Volume
		return err
	}))
	assert.Equal(t, -15, local)
	assert.Equal(t, -15, remote)

	err = runner.Do(ctx, func(a *Application) (*exchange.Handle, error) {
		return a.Configuration().LoadFromBackup()
	})
	assert.ErrorIs(t, err, errors.ErrRequestRejected)

	cancel()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}
