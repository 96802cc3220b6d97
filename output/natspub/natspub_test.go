package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/pkg/clock"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	fail error
}

func (f *fakePublisher) Publish(_ context.Context, subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return nil
}

func (f *fakePublisher) snapshot() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.msgs...)
}

func startSink(t *testing.T, pub Publisher, cfg Config, opts ...Option) *Sink {
	t.Helper()
	s := New(pub, cfg, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() {
		_ = s.Stop(time.Second)
		cancel()
	})
	return s
}

func TestSinkPublishesEnvelopes(t *testing.T) {
	pub := &fakePublisher{}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	registry := metric.NewMetricsRegistry()
	metrics := registry.CoreMetrics()
	s := startSink(t, pub, Config{Source: "127.0.0.1:4999"},
		WithClock(clock.Fake(at)), WithMetrics(metrics, registry))

	s.Handle(event.ZoneVolume{Zone: 3, Volume: -20})

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	msg := pub.snapshot()[0]
	assert.Equal(t, "hlx.events.ZoneVolume", msg.subject)

	var got struct {
		Kind   string         `json:"kind"`
		Source string         `json:"source"`
		Time   time.Time      `json:"time"`
		Data   map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.data, &got))
	assert.Equal(t, "ZoneVolume", got.Kind)
	assert.Equal(t, "127.0.0.1:4999", got.Source)
	assert.True(t, at.Equal(got.Time))
	assert.Equal(t, map[string]int{"zone": 3, "volume": -20}, got.Data)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("nats")))
}

func TestSinkSkipsInternalEvents(t *testing.T) {
	pub := &fakePublisher{}
	s := startSink(t, pub, Config{SubjectPrefix: "site.a"})

	s.Handle(event.GroupSetVolume{Group: 1, Volume: -10})
	s.Handle(event.ZoneMute{Zone: 1, Mute: true})

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "site.a.ZoneMute", pub.snapshot()[0].subject)
}

func TestSinkKeepsOrderPerSubject(t *testing.T) {
	pub := &fakePublisher{}
	s := startSink(t, pub, Config{Workers: 4, QueueSize: 128})

	for v := -60; v < 0; v++ {
		s.Handle(event.ZoneVolume{Zone: 1, Volume: v})
		s.Handle(event.ZoneMute{Zone: 1, Mute: v%2 == 0})
	}

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 120 }, 2*time.Second, 5*time.Millisecond)
	want := -60
	for _, m := range pub.snapshot() {
		if m.subject != s.Subject(event.KindZoneVolume) {
			continue
		}
		var env struct {
			Data struct {
				Volume int `json:"volume"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(m.data, &env))
		assert.Equal(t, want, env.Data.Volume)
		want++
	}
	assert.Equal(t, 0, want)
}

func TestSinkSurvivesPublishFailures(t *testing.T) {
	pub := &fakePublisher{fail: fmt.Errorf("nats: connection closed")}
	registry := metric.NewMetricsRegistry()
	metrics := registry.CoreMetrics()
	s := startSink(t, pub, Config{}, WithMetrics(metrics, registry))

	s.Handle(event.ZoneName{Zone: 1, Name: "Kitchen"})

	require.Eventually(t, func() bool { return s.pool.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, pub.snapshot())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("nats")))
}

func TestSinkDropsBeforeStart(t *testing.T) {
	pub := &fakePublisher{}
	s := New(pub, Config{})

	assert.NotPanics(t, func() { s.Handle(event.ZoneMute{Zone: 1}) })
	assert.Empty(t, pub.snapshot())
}
