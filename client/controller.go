package client

import (
	"fmt"
	"log/slog"

	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/codec"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// RefreshState is the progress of a domain refresh.
type RefreshState int

const (
	RefreshIdle RefreshState = iota
	RefreshRequested
	RefreshInProgress
	RefreshDone
)

func (s RefreshState) String() string {
	switch s {
	case RefreshIdle:
		return "idle"
	case RefreshRequested:
		return "requested"
	case RefreshInProgress:
		return "in_progress"
	case RefreshDone:
		return "complete"
	default:
		return "unknown"
	}
}

type refreshTracker struct {
	state      RefreshState
	total      int
	done       int
	generation int
	waiters    []func(error)
}

func (r *refreshTracker) active() bool {
	return r.state == RefreshRequested || r.state == RefreshInProgress
}

// base is embedded by every controller.
type base struct {
	domain    event.Domain
	model     *model.Model
	exchanges *exchange.Manager
	bus       *event.Bus
	logger    *slog.Logger
	refresh   refreshTracker
}

func newBase(domain event.Domain, m *model.Model, exchanges *exchange.Manager, bus *event.Bus, logger *slog.Logger) base {
	return base{
		domain:    domain,
		model:     m,
		exchanges: exchanges,
		bus:       bus,
		logger:    logger.With("domain", domain.String()),
	}
}

// RefreshState returns the state of the domain's most recent refresh.
func (b *base) RefreshState() RefreshState { return b.refresh.state }

// Refreshing reports whether a refresh is outstanding.
func (b *base) Refreshing() bool { return b.refresh.active() }

// publish emits e when status is Applied.
func (b *base) publish(status model.Status, err error, e event.Event) (model.Status, error) {
	if err != nil {
		return model.Invalid, err
	}
	if status.Changed() {
		b.bus.Publish(e)
	} else {
		b.logger.Debug("Value already set", "event", e.Kind().String())
	}
	return status, nil
}

func (b *base) reportError(err error) {
	b.bus.Publish(event.ControllerError{ErrorKind: errors.KindOf(err), Detail: err.Error()})
}

// send submits a request. On completion apply consumes the response
// captures; failures are reported as ControllerError. after, when set,
// runs last with the outcome.
func (b *base) send(payload string, expect *grammar.Pattern, accept func(grammar.Captures) bool,
	apply dispatch.Handler, after func(error),
) (*exchange.Handle, error) {
	return b.exchanges.Submit(exchange.Request{
		Payload: payload,
		Expect:  expect,
		Accept:  accept,
		Complete: func(captures grammar.Captures, err error) {
			if err == nil && apply != nil {
				err = apply(captures)
			}
			if err != nil {
				b.reportError(err)
			}
			if after != nil {
				after(err)
			}
		},
	})
}

// runRefresh issues query(1..n). It completes the refresh once every query
// succeeded, publishing RefreshComplete, or abandons it on the first
// failure. A refresh requested while one is outstanding joins it.
func (b *base) runRefresh(n int, query queryFunc, after func(error)) error {
	r := &b.refresh
	if r.active() {
		if after != nil {
			r.waiters = append(r.waiters, after)
		}
		return nil
	}

	r.generation++
	gen := r.generation
	r.state = RefreshRequested
	r.total = n
	r.done = 0
	r.waiters = nil
	if after != nil {
		r.waiters = append(r.waiters, after)
	}
	b.logger.Debug("Refresh requested", "queries", n)

	for i := 1; i <= n; i++ {
		if err := query(i, func(err error) { b.refreshStep(gen, err) }); err != nil {
			b.refreshFinish(gen, err)
			return err
		}
	}
	return nil
}

func (b *base) refreshStep(gen int, err error) {
	r := &b.refresh
	if gen != r.generation || !r.active() {
		return
	}
	if err != nil {
		b.refreshFinish(gen, err)
		return
	}
	r.state = RefreshInProgress
	r.done++
	if r.done == r.total {
		b.refreshFinish(gen, nil)
	}
}

func (b *base) refreshFinish(gen int, err error) {
	r := &b.refresh
	if gen != r.generation || !r.active() {
		return
	}
	waiters := r.waiters
	r.waiters = nil
	if err != nil {
		r.state = RefreshIdle
		b.logger.Error("Refresh abandoned", "completed", r.done, "total", r.total, "error", err)
	} else {
		r.state = RefreshDone
		b.logger.Info("Refresh complete", "queries", r.total)
		b.bus.Publish(event.RefreshComplete{Domain: b.domain})
	}
	for _, w := range waiters {
		w(err)
	}
}

// acceptAt matches responses whose capture index holds id.
func acceptAt(index, id int) func(grammar.Captures) bool {
	return func(c grammar.Captures) bool {
		v, err := c.Int(index)
		return err == nil && v == id
	}
}

// handler decodes captures of p into E and applies it.
func handler[E event.Event](p *grammar.Pattern, apply func(E) error) dispatch.Handler {
	return func(c grammar.Captures) error {
		decoded, err := codec.DecodeFrom(p, c)
		if err != nil {
			return err
		}
		e, ok := decoded.(E)
		if !ok {
			return fmt.Errorf("%s decoded to %s: %w", p.Name(), decoded.Kind(), errors.ErrParseMismatch)
		}
		return apply(e)
	}
}

// on registers a typed notification handler.
func on[E event.Event](t *dispatch.Table, p *grammar.Pattern, apply func(E) error) {
	t.Register(p, handler(p, apply))
}

// ignore registers p as a recognized frame with no effect, used for query
// echoes that arrive after their exchange ended.
func ignore(t *dispatch.Table, logger *slog.Logger, patterns ...*grammar.Pattern) {
	for _, p := range patterns {
		name := p.Name()
		t.Register(p, func(grammar.Captures) error {
			logger.Debug("Ignoring unsolicited echo", "pattern", name)
			return nil
		})
	}
}

// queryFunc queries entity i and calls after with the outcome.
type queryFunc func(i int, after func(error)) error

// refresher is implemented by every domain controller.
type refresher interface {
	refreshThen(after func(error)) error
	Refreshing() bool
}
