package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/c360/hlxmatrix/pkg/clock"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// Handle tracks one submitted exchange.
type Handle struct {
	id      uint64
	req     Request
	manager *Manager
	timer   *clock.Timer
	sentAt  time.Time

	mu       sync.Mutex
	state    State
	err      error
	captures grammar.Captures
	done     chan struct{}
}

// ID is the manager-assigned sequence number, starting at 1.
func (h *Handle) ID() uint64 { return h.id }

// Payload is the request payload without delimiters.
func (h *Handle) Payload() string { return h.req.Payload }

// State returns the current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Err returns the terminal error, nil while in flight or when completed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Captures returns the matched response captures once completed.
func (h *Handle) Captures() grammar.Captures {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.captures
}

// Done is closed when the exchange reaches a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the exchange is terminal or ctx ends. It must not be
// called from the manager's loop.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel moves a queued or pending exchange to Cancelled. Cancelling a
// terminal exchange does nothing.
func (h *Handle) Cancel() {
	if h.manager != nil {
		h.manager.Cancel(h)
	}
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// terminate records the outcome and reports whether this call did it.
func (h *Handle) terminate(s State, captures grammar.Captures, err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state.Terminal() {
		return false
	}
	h.state = s
	h.err = err
	h.captures = captures
	close(h.done)
	return true
}
