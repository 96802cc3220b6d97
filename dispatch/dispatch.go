// Package dispatch routes frame payloads to handlers by pattern.
//
// The client registers one handler per notification pattern; the server
// registers one per request pattern. Patterns are tried in registration
// order and the first match wins. A payload no pattern matches is counted
// and dropped.
package dispatch

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// Handler consumes the captures of a matched payload.
type Handler func(grammar.Captures) error

type entry struct {
	pattern *grammar.Pattern
	handler Handler
}

// Option configures a Table.
type Option func(*Table)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMetrics counts unmatched and mismatched payloads.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(t *Table) { t.metrics = metrics }
}

// Table is an ordered list of pattern registrations. Registration happens
// during setup; Dispatch runs on the owner's loop.
type Table struct {
	endpoint string
	entries  []entry
	logger   *slog.Logger
	metrics  *metric.Metrics

	unmatched  atomic.Uint64
	mismatched atomic.Uint64
}

// NewTable returns an empty table. endpoint labels metrics and logs.
func NewTable(endpoint string, opts ...Option) *Table {
	t := &Table{
		endpoint: endpoint,
		logger:   slog.Default().With("component", "dispatch", "endpoint", endpoint),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register appends a handler for p. Registering the same pattern twice is
// a programming error and panics.
func (t *Table) Register(p *grammar.Pattern, h Handler) {
	if p == nil || h == nil {
		panic("dispatch: nil pattern or handler")
	}
	for _, e := range t.entries {
		if e.pattern == p {
			panic(fmt.Sprintf("dispatch: %s registered twice", p.Name()))
		}
	}
	t.entries = append(t.entries, entry{pattern: p, handler: h})
}

// Registered reports whether p has a handler.
func (t *Table) Registered(p *grammar.Pattern) bool {
	for _, e := range t.entries {
		if e.pattern == p {
			return true
		}
	}
	return false
}

// Len returns the number of registrations.
func (t *Table) Len() int { return len(t.entries) }

// Dispatch runs the first handler whose pattern matches payload. It
// reports whether a pattern matched and returns the handler's error, or
// ErrParseMismatch when the captures could not be extracted.
func (t *Table) Dispatch(payload string) (bool, error) {
	for _, e := range t.entries {
		if !e.pattern.Match(payload) {
			continue
		}
		captures, err := e.pattern.Parse(payload)
		if err != nil {
			t.mismatched.Add(1)
			t.metrics.RecordParseMismatch(t.endpoint)
			t.logger.Warn("Dropping frame with bad captures", "pattern", e.pattern.Name(), "payload", payload, "error", err)
			return true, err
		}
		if err := e.handler(captures); err != nil {
			return true, errors.Wrap(err, "dispatch", "Dispatch", e.pattern.Name())
		}
		return true, nil
	}

	t.unmatched.Add(1)
	t.metrics.RecordUnmatched(t.endpoint)
	t.logger.Warn("Dropping unmatched frame", "payload", payload)
	return false, nil
}

// Unmatched returns how many payloads matched no pattern.
func (t *Table) Unmatched() uint64 { return t.unmatched.Load() }

// Mismatched returns how many payloads matched a pattern but failed to
// parse.
func (t *Table) Mismatched() uint64 { return t.mismatched.Load() }
