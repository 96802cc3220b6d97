package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/c360/hlxmatrix/config"
	"github.com/c360/hlxmatrix/event"
)

type recorder struct {
	calls []string
}

func (r *recorder) service(name string, startErr error) Service {
	return Func(name,
		func(context.Context) error {
			r.calls = append(r.calls, "start "+name)
			return startErr
		},
		func(time.Duration) error {
			r.calls = append(r.calls, "stop "+name)
			return nil
		})
}

type ManagerSuite struct {
	suite.Suite
	rec *recorder
	m   *Manager
}

func (s *ManagerSuite) SetupTest() {
	s.rec = &recorder{}
	s.m = NewManager(nil)
}

func (s *ManagerSuite) TestStartsInOrderStopsInReverse() {
	s.m.Add(s.rec.service("metrics", nil))
	s.m.Add(s.rec.service("nats", nil))
	s.m.Add(s.rec.service("websocket", nil))

	s.Require().NoError(s.m.StartAll(context.Background()))
	s.Equal([]string{"metrics", "nats", "websocket"}, s.m.Names())
	s.True(s.m.Health("hlx").IsHealthy())

	s.Require().NoError(s.m.StopAll(time.Second))
	s.Equal([]string{
		"start metrics", "start nats", "start websocket",
		"stop websocket", "stop nats", "stop metrics",
	}, s.rec.calls)
}

func (s *ManagerSuite) TestFailedStartRollsBack() {
	s.m.Add(s.rec.service("metrics", nil))
	s.m.Add(s.rec.service("nats", fmt.Errorf("connection refused")))
	s.m.Add(s.rec.service("websocket", nil))

	err := s.m.StartAll(context.Background())
	s.Require().Error(err)
	s.Contains(err.Error(), "start service nats")
	s.Equal([]string{"start metrics", "start nats", "stop metrics"}, s.rec.calls)

	status := s.m.Health("hlx")
	s.True(status.IsUnhealthy())
}

func (s *ManagerSuite) TestStartTwiceFails() {
	s.m.Add(s.rec.service("metrics", nil))
	s.Require().NoError(s.m.StartAll(context.Background()))
	s.Error(s.m.StartAll(context.Background()))
	s.Require().NoError(s.m.StopAll(time.Second))
	s.NoError(s.m.StopAll(time.Second), "second stop is a no-op")
}

func (s *ManagerSuite) TestStopErrorsAreJoined() {
	s.m.Add(Func("a", nil, func(time.Duration) error { return fmt.Errorf("a failed") }))
	s.m.Add(Func("b", nil, func(time.Duration) error { return fmt.Errorf("b failed") }))
	s.Require().NoError(s.m.StartAll(context.Background()))

	err := s.m.StopAll(time.Second)
	s.Require().Error(err)
	s.Contains(err.Error(), "a failed")
	s.Contains(err.Error(), "b failed")
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func TestStackWithoutSideServices(t *testing.T) {
	stack, err := NewStack(StackConfig{Name: "hlxclient"}, nil)
	require.NoError(t, err)

	assert.Empty(t, stack.Names())
	assert.Nil(t, stack.NATS)
	assert.Equal(t, 0, stack.Sinks())
	assert.NotPanics(t, func() { stack.Handle(event.ZoneMute{Zone: 1}) })
}

func TestStackBuildsConfiguredServices(t *testing.T) {
	stack, err := NewStack(StackConfig{
		Name:      "hlxserver",
		NATS:      config.NATSConfig{URL: "nats://127.0.0.1:4222", SubjectPrefix: "hlx.events"},
		Metrics:   config.MetricsConfig{Port: 9099},
		WebSocket: config.WebSocketConfig{Addr: "127.0.0.1:0"},
		Journal:   config.JournalConfig{Path: filepath.Join(t.TempDir(), "events.jsonl")},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"metrics", "nats", "natspub", "websocket", "journal"}, stack.Names())
	assert.NotNil(t, stack.NATS)
	assert.Equal(t, 3, stack.Sinks())
}

func TestStackStreamsEventsOverWebSocket(t *testing.T) {
	stack, err := NewStack(StackConfig{
		Name:      "hlxserver",
		Source:    "rack-1",
		WebSocket: config.WebSocketConfig{Addr: "127.0.0.1:0", Path: "/events"},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, stack.StartAll(context.Background()))
	defer func() { _ = stack.StopAll(2 * time.Second) }()

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+stack.WebSocket.Addr()+"/events", nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()
	require.Eventually(t, func() bool { return stack.WebSocket.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	stack.Handle(event.ZoneVolume{Zone: 4, Volume: -12})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg struct {
		Payload struct {
			Kind   string `json:"kind"`
			Source string `json:"source"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "ZoneVolume", msg.Payload.Kind)
	assert.Equal(t, "rack-1", msg.Payload.Source)
}
