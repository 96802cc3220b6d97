package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/metric"
)

type item struct {
	key  uint64
	seq  int
	fail bool
}

func TestNewPoolDefaults(t *testing.T) {
	p := NewPool(0, 0, func(context.Context, item) error { return nil })
	stats := p.Stats()
	assert.Equal(t, 1, stats.Workers)
	assert.Equal(t, 256, stats.QueueSize)

	assert.Panics(t, func() { NewPool[item](1, 1, nil) })
}

func TestLifecycleErrors(t *testing.T) {
	p := NewPool(1, 1, func(context.Context, item) error { return nil })
	assert.ErrorIs(t, p.Submit(item{}), ErrPoolNotStarted)

	require.NoError(t, p.Start(context.Background()))
	assert.ErrorIs(t, p.Start(context.Background()), ErrPoolAlreadyStarted)

	require.NoError(t, p.Stop(time.Second))
	assert.ErrorIs(t, p.Submit(item{}), ErrPoolStopped)
	assert.NoError(t, p.Stop(time.Second))
}

func TestKeyedOrdering(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[uint64][]int)
	// Keys 0/4 and 1/5 share a worker; each queue holds a full run.
	p := NewPool(4, 200, func(_ context.Context, it item) error {
		mu.Lock()
		seen[it.key] = append(seen[it.key], it.seq)
		mu.Unlock()
		return nil
	}, WithKey(func(it item) uint64 { return it.key }))
	require.NoError(t, p.Start(context.Background()))

	for seq := range 100 {
		for key := range uint64(6) {
			require.NoError(t, p.Submit(item{key: key, seq: seq}))
		}
	}
	require.NoError(t, p.Stop(5*time.Second))

	for key := range uint64(6) {
		require.Len(t, seen[key], 100, "key %d", key)
		for i, seq := range seen[key] {
			assert.Equal(t, i, seq, "key %d out of order", key)
		}
	}
	assert.Equal(t, int64(600), p.Stats().Processed)
}

func TestQueueFull(t *testing.T) {
	release := make(chan struct{})
	p := NewPool(1, 1, func(context.Context, item) error {
		<-release
		return nil
	})
	require.NoError(t, p.Start(context.Background()))

	require.NoError(t, p.Submit(item{seq: 1}))
	require.Eventually(t, func() bool { return p.Stats().QueueDepth == 0 }, time.Second, time.Millisecond)
	require.NoError(t, p.Submit(item{seq: 2}))
	assert.ErrorIs(t, p.Submit(item{seq: 3}), ErrQueueFull)
	assert.Equal(t, int64(1), p.Stats().Dropped)

	close(release)
	require.NoError(t, p.Stop(time.Second))
}

func TestStopTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	p := NewPool(1, 1, func(context.Context, item) error {
		<-release
		return nil
	})
	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Submit(item{}))
	require.Eventually(t, func() bool { return p.Stats().QueueDepth == 0 }, time.Second, time.Millisecond)

	assert.ErrorIs(t, p.Stop(10*time.Millisecond), ErrStopTimeout)
}

func TestContextCancelStopsWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(2, 4, func(context.Context, item) error { return nil })
	require.NoError(t, p.Start(ctx))
	cancel()
	assert.NoError(t, p.Stop(time.Second))
}

func TestMetricsAndFailures(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	p := NewPool(1, 8, func(_ context.Context, it item) error {
		if it.fail {
			return fmt.Errorf("item %d", it.seq)
		}
		return nil
	}, WithMetricsRegistry[item](registry, "sink_test"))
	require.NoError(t, p.Start(context.Background()))

	require.NoError(t, p.Submit(item{seq: 1}))
	require.NoError(t, p.Submit(item{seq: 2, fail: true}))
	require.NoError(t, p.Stop(time.Second))

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.Submitted)
	assert.Equal(t, int64(2), stats.Processed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, float64(2), testutil.ToFloat64(p.metrics.processed))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.metrics.failed))
}
