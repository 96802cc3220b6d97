package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/pkg/clock"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func readEnvelope(t *testing.T, conn *websocket.Conn) (MessageEnvelope, event.Envelope) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg MessageEnvelope
	require.NoError(t, json.Unmarshal(data, &msg))
	var env struct {
		Kind   string          `json:"kind"`
		Source string          `json:"source"`
		Time   time.Time       `json:"time"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &env))
	return msg, event.Envelope{Kind: env.Kind, Source: env.Source, Time: env.Time}
}

func TestOutputBroadcastsEvents(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry := metric.NewMetricsRegistry()
	core := registry.CoreMetrics()
	out := New(Config{Source: "hlx-1"}, WithClock(clock.Fake(at)), WithMetrics(core, registry))
	srv := httptest.NewServer(out.Handler())
	defer srv.Close()
	defer func() { _ = out.Stop(time.Second) }()

	a := dial(t, wsURL(srv, DefaultPath))
	b := dial(t, wsURL(srv, DefaultPath))
	require.Eventually(t, func() bool { return out.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	out.Handle(event.ZoneSource{Zone: 2, Source: 4})

	for _, conn := range []*websocket.Conn{a, b} {
		msg, env := readEnvelope(t, conn)
		assert.Equal(t, "event", msg.Type)
		assert.NotEmpty(t, msg.ID)
		assert.Equal(t, at.UnixMilli(), msg.Timestamp)
		assert.Equal(t, "ZoneSource", env.Kind)
		assert.Equal(t, "hlx-1", env.Source)
		assert.True(t, at.Equal(env.Time))
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(core.EventsPublished.WithLabelValues("websocket")))
	assert.Equal(t, 2.0, testutil.ToFloat64(out.metrics.connectionTotal))
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(out.metrics.messagesSent) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestOutputSkipsInternalEvents(t *testing.T) {
	out := New(Config{})
	srv := httptest.NewServer(out.Handler())
	defer srv.Close()
	defer func() { _ = out.Stop(time.Second) }()

	conn := dial(t, wsURL(srv, DefaultPath))
	require.Eventually(t, func() bool { return out.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	out.Handle(event.GroupIncreaseVolume{Group: 1})
	out.Handle(event.FrontPanelBrightness{Brightness: 2})

	_, env := readEnvelope(t, conn)
	assert.Equal(t, "FrontPanelBrightness", env.Kind)
}

func TestOutputRemovesDisconnectedClients(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	out := New(Config{}, WithMetrics(nil, registry))
	srv := httptest.NewServer(out.Handler())
	defer srv.Close()
	defer func() { _ = out.Stop(time.Second) }()

	conn := dial(t, wsURL(srv, DefaultPath))
	require.Eventually(t, func() bool { return out.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return out.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(out.metrics.clientsConnected))
	assert.Equal(t, 1.0, testutil.ToFloat64(out.metrics.disconnectionTotal.WithLabelValues("normal")))

	assert.NotPanics(t, func() { out.Handle(event.ZoneMute{Zone: 1, Mute: true}) })
}

func TestDeliverReportsFullQueue(t *testing.T) {
	c := &client{send: make(chan []byte, 1)}

	assert.True(t, deliver(c, []byte("a")))
	assert.False(t, deliver(c, []byte("b")))

	c.closed.Store(true)
	assert.True(t, deliver(c, []byte("c")), "closed clients are skipped, not reported")
}

func TestOutputStartStop(t *testing.T) {
	out := New(Config{Addr: "127.0.0.1:0", Path: "/ws"})
	require.NoError(t, out.Start(context.Background()))
	require.Error(t, out.Start(context.Background()))

	conn := dial(t, "ws://"+out.Addr()+"/ws")
	require.Eventually(t, func() bool { return out.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, out.Stop(2*time.Second))
	assert.Equal(t, 0, out.ClientCount())
	assert.Empty(t, out.Addr())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
