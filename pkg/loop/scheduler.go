package loop

import (
	"time"

	"github.com/c360/hlxmatrix/pkg/clock"
)

// Scheduler runs timer callbacks on a Loop. A timer stopped from the loop
// never runs its callback, even when the underlying clock already fired
// and the callback is waiting in the queue.
type Scheduler struct {
	loop  *Loop
	clock clock.Clock
}

// NewScheduler returns a Scheduler posting to l. A nil clock means the
// real clock.
func NewScheduler(l *Loop, c clock.Clock) *Scheduler {
	if c == nil {
		c = clock.Real()
	}
	return &Scheduler{loop: l, clock: c}
}

// Now returns the scheduler clock's time.
func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// AfterFunc posts f to the loop once d has elapsed.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) *clock.Timer {
	stopped := false
	inner := s.clock.AfterFunc(d, func() {
		s.loop.Post(func() {
			if !stopped {
				stopped = true
				f()
			}
		})
	})
	return clock.NewTimer(func() bool {
		inner.Stop()
		if stopped {
			return false
		}
		stopped = true
		return true
	})
}
