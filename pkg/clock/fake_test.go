package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClock_NowAndAdvance(t *testing.T) {
	clock := Fake(epoch)
	assert.True(t, clock.Now().Equal(epoch))

	clock.Advance(5 * time.Second)
	assert.True(t, clock.Now().Equal(epoch.Add(5*time.Second)))
}

func TestFakeClock_AfterFiresOnAdvance(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(3 * time.Second)

	clock.Advance(2 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case <-channel:
	default:
		t.Fatal("After did not fire at deadline")
	}
}

func TestFakeClock_AfterFuncOrderAndStop(t *testing.T) {
	clock := Fake(epoch)
	var fired []string

	clock.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "late") })
	clock.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "early") })
	stopped := clock.AfterFunc(200*time.Millisecond, func() { fired = append(fired, "stopped") })

	require.True(t, stopped.Stop())
	assert.False(t, stopped.Stop(), "second Stop reports already stopped")
	assert.Equal(t, 2, clock.PendingCount())

	clock.Advance(time.Second)
	assert.Equal(t, []string{"early", "late"}, fired)
	assert.Equal(t, 0, clock.PendingCount())
}

func TestFakeClock_CallbackSeesDeadline(t *testing.T) {
	clock := Fake(epoch)
	var seen time.Time
	clock.AfterFunc(100*time.Millisecond, func() { seen = clock.Now() })

	clock.Advance(time.Second)
	assert.True(t, seen.Equal(epoch.Add(100*time.Millisecond)))
	assert.True(t, clock.Now().Equal(epoch.Add(time.Second)))
}

func TestFakeClock_CallbackSchedulesWithinAdvance(t *testing.T) {
	clock := Fake(epoch)
	count := 0
	clock.AfterFunc(100*time.Millisecond, func() {
		count++
		clock.AfterFunc(100*time.Millisecond, func() { count++ })
	})

	clock.Advance(150 * time.Millisecond)
	assert.Equal(t, 1, count)

	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, 2, count)
}

func TestFakeClock_StopAfterFire(t *testing.T) {
	clock := Fake(epoch)
	timer := clock.AfterFunc(time.Millisecond, func() {})
	clock.Advance(time.Millisecond)
	assert.False(t, timer.Stop())
}
