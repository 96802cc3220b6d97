package transport

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/pkg/retry"
)

type stateLog struct {
	mu     sync.Mutex
	states []State
	errs   []error
}

func (l *stateLog) ConnectionStateChanged(_ string, s State, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
	if err != nil {
		l.errs = append(l.errs, err)
	}
}

func (l *stateLog) snapshot() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

type failingResolver struct{}

func (failingResolver) LookupHost(context.Context, string) ([]string, error) {
	return nil, &net.DNSError{Err: "no such host", Name: "hlx.invalid", IsNotFound: true}
}

func fastRetry(attempts int) retry.Config {
	return retry.Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "did_connect", DidConnect.String())
	assert.Equal(t, "did_not_disconnect", DidNotDisconnect.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.True(t, DidNotResolve.Failed())
	assert.False(t, DidDisconnect.Failed())
}

func TestDialAndServeEcho(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := Listen(ctx, "127.0.0.1:0", WithMetrics(metric.NewMetrics(), metric.EndpointServer))
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() {
		served <- ln.Serve(ctx, func(ctx context.Context, c *Conn) {
			_ = c.ReadLoop(ctx, func(b []byte) { _ = c.Send(b) })
		})
	}()

	log := &stateLog{}
	c, err := Dial(ctx, ln.Addr().String(), WithObserver(log))
	require.NoError(t, err)
	assert.Equal(t, []State{WillResolve, IsResolving, DidResolve, WillConnect, IsConnecting, DidConnect}, log.snapshot())
	assert.Equal(t, DidConnect, c.State())

	got := make(chan []byte, 4)
	go func() { _ = c.ReadLoop(ctx, func(b []byte) { got <- b }) }()

	require.NoError(t, c.Send([]byte("[QO1]")))
	var echoed []byte
	for len(echoed) < len("[QO1]") {
		select {
		case b := <-got:
			echoed = append(echoed, b...)
		case <-time.After(2 * time.Second):
			t.Fatal("no echo")
		}
	}
	assert.Equal(t, "[QO1]", string(echoed))

	require.NoError(t, c.Close())
	assert.Equal(t, DidDisconnect, c.State())
	assert.ErrorIs(t, c.Send([]byte("[QO1]")), errors.ErrNoConnection)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestDialInvalidAddress(t *testing.T) {
	log := &stateLog{}
	_, err := Dial(context.Background(), "no-port", WithObserver(log))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	assert.True(t, errors.IsInvalid(err))
	assert.Equal(t, []State{WillResolve, DidNotResolve}, log.snapshot())
	assert.Len(t, log.errs, 1)
}

func TestDialResolveFailure(t *testing.T) {
	log := &stateLog{}
	_, err := Dial(context.Background(), "hlx.invalid:10001", WithObserver(log), WithResolver(failingResolver{}))
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, []State{WillResolve, IsResolving, DidNotResolve}, log.snapshot())
}

func TestDialRefusedRetriesThenFails(t *testing.T) {
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := probe.Addr().String()
	require.NoError(t, probe.Close())

	log := &stateLog{}
	_, err = Dial(context.Background(), addr, WithObserver(log), WithRetry(fastRetry(3)))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConnectionTimeout)

	states := log.snapshot()
	connecting := 0
	for _, s := range states {
		if s == IsConnecting {
			connecting++
		}
	}
	assert.Equal(t, 3, connecting)
	assert.Equal(t, DidNotConnect, states[len(states)-1])
}

func TestPeerCloseReportsTransportLost(t *testing.T) {
	local, remote := net.Pipe()
	c := newConn(local, "pipe", applyOptions(nil))

	done := make(chan error, 1)
	go func() { done <- c.ReadLoop(context.Background(), func([]byte) {}) }()
	require.NoError(t, remote.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, errors.ErrTransportLost)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLoop did not return")
	}
}

func TestPauseHoldsReadsUntilResume(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	c := newConn(local, "pipe", applyOptions(nil))
	defer c.Close()

	c.Pause()
	assert.True(t, c.Paused())

	got := make(chan string, 1)
	go func() { _ = c.ReadLoop(context.Background(), func(b []byte) { got <- string(b) }) }()
	go func() { _, _ = remote.Write([]byte("(VO1R-30)")) }()

	select {
	case <-got:
		t.Fatal("read while paused")
	case <-time.After(50 * time.Millisecond):
	}

	c.Resume()
	select {
	case s := <-got:
		assert.Equal(t, "(VO1R-30)", s)
	case <-time.After(2 * time.Second):
		t.Fatal("no read after resume")
	}
}

func TestCloseWakesPausedReader(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	log := &stateLog{}
	c := newConn(local, "pipe", applyOptions([]Option{WithObserver(log)}))
	c.Pause()

	done := make(chan error, 1)
	go func() { done <- c.ReadLoop(context.Background(), func([]byte) {}) }()

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLoop stuck while paused")
	}
	assert.Equal(t, []State{WillDisconnect, DidDisconnect}, log.snapshot())
}

func TestContextCancelEndsReadLoop(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	c := newConn(local, "pipe", applyOptions(nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.ReadLoop(ctx, func([]byte) {}) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLoop ignored cancellation")
	}
	assert.Equal(t, DidDisconnect, c.State())
}
