package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/pkg/loop"
	"github.com/c360/hlxmatrix/pkg/retry"
	"github.com/c360/hlxmatrix/protocol/framing"
	"github.com/c360/hlxmatrix/transport"
)

// peer is a raw protocol client collecting response payloads.
type peer struct {
	conn *transport.Conn

	mu       sync.Mutex
	codec    *framing.Codec
	payloads []string
}

func dialPeer(ctx context.Context, t *testing.T, addr string) *peer {
	t.Helper()
	conn, err := transport.Dial(ctx, addr, transport.WithRetry(retry.Config{MaxAttempts: 3, InitialDelay: 10 * time.Millisecond}))
	require.NoError(t, err)
	p := &peer{conn: conn, codec: framing.NewCodec()}
	go func() {
		_ = conn.ReadLoop(ctx, func(data []byte) {
			p.mu.Lock()
			defer p.mu.Unlock()
			frames, _ := p.codec.Feed(data)
			for _, f := range frames {
				p.payloads = append(p.payloads, f.Payload)
			}
		})
	}()
	t.Cleanup(func() { _ = conn.Close() })
	return p
}

func (p *peer) send(t *testing.T, payload string) {
	t.Helper()
	require.NoError(t, p.conn.Send(framing.Encode(framing.Request, payload)))
}

func (p *peer) received() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.payloads...)
}

func TestHostServesLoopbackClients(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := New(Deps{})
	require.NoError(t, err)
	l := loop.New(nil)
	ln, err := transport.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)
	host := NewHost(app, l, nil)

	runErr := make(chan error, 1)
	go func() { runErr <- host.Run(ctx, ln) }()

	addr := ln.Addr().String()
	a := dialPeer(ctx, t, addr)
	b := dialPeer(ctx, t, addr)

	sessions := func() int {
		n := 0
		_ = l.Call(ctx, func() error {
			n = len(app.Sessions())
			return nil
		})
		return n
	}
	require.Eventually(t, func() bool { return sessions() == 2 }, 5*time.Second, 10*time.Millisecond)

	a.send(t, "VO2R-10")
	a.send(t, "VO2R-90")

	require.Eventually(t, func() bool { return len(a.received()) == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"VO2R-10", "ERR"}, a.received())
	require.Eventually(t, func() bool { return len(b.received()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"VO2R-10"}, b.received())

	var volume int
	require.NoError(t, l.Call(ctx, func() error {
		zone, err := app.Model().Zone(2)
		volume = zone.Volume
		return err
	}))
	assert.Equal(t, -10, volume)

	require.NoError(t, b.conn.Close())
	require.Eventually(t, func() bool { return sessions() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("host did not stop")
	}
}
