// Package clock abstracts time for the protocol engine so exchange
// timeouts and reconnect backoff can be driven deterministically in tests.
//
// Production code takes a Clock and uses Real(); tests use Fake() and
// move time forward with Advance.
package clock

import "time"

// Clock is the subset of the time package the engine schedules against.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time

	// AfterFunc calls f once d has elapsed. The returned Timer cancels
	// a call that has not happened yet.
	AfterFunc(d time.Duration, f func()) *Timer

	// Sleep blocks the calling goroutine for d.
	Sleep(d time.Duration)
}

// Timer is a scheduled call created by AfterFunc.
type Timer struct {
	stopFunc func() bool
}

// NewTimer returns a Timer whose Stop delegates to stop. Wrappers that
// schedule on another clock use it to hand out their own timers.
func NewTimer(stop func() bool) *Timer {
	return &Timer{stopFunc: stop}
}

// Stop prevents the timer from firing. It reports whether the call
// stopped the timer; false means it already fired or was stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}
	return t.stopFunc()
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)
	return &Timer{stopFunc: timer.Stop}
}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
