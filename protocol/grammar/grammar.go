// Package grammar holds the compiled message patterns of the HLX protocol.
//
// Every message kind has one anchored pattern with a fixed capture count
// and a printf format that renders the same payload. A pattern is used for
// both roles when the request and response payloads share a shape; the
// framing delimiters, not the pattern, say which role a frame plays.
//
// The tables are built once at package initialization and are immutable
// afterwards, so handlers on any goroutine may hold them.
package grammar

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/c360/hlxmatrix/errors"
)

// Pattern is one compiled message kind.
type Pattern struct {
	name     string
	expr     *regexp.Regexp
	captures int
	format   string
}

// Captures are the submatches of a parsed payload, whole match excluded.
type Captures []string

// Int parses capture i as a base-10 integer.
func (c Captures) Int(i int) (int, error) {
	if i < 0 || i >= len(c) {
		return 0, fmt.Errorf("capture %d of %d: %w", i, len(c), errors.ErrParseMismatch)
	}
	v, err := strconv.Atoi(c[i])
	if err != nil {
		return 0, fmt.Errorf("capture %d %q: %w", i, c[i], errors.ErrParseMismatch)
	}
	return v, nil
}

// Bool parses capture i as "0" or "1".
func (c Captures) Bool(i int) (bool, error) {
	if i < 0 || i >= len(c) {
		return false, fmt.Errorf("capture %d of %d: %w", i, len(c), errors.ErrParseMismatch)
	}
	switch c[i] {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("capture %d %q not a flag: %w", i, c[i], errors.ErrParseMismatch)
}

// Name is the message kind, for logs and metrics.
func (p *Pattern) Name() string { return p.name }

// Captures is the number of submatches a valid payload yields.
func (p *Pattern) Captures() int { return p.captures }

// String returns the regular expression source.
func (p *Pattern) String() string { return p.expr.String() }

// Match reports whether payload is an instance of p.
func (p *Pattern) Match(payload string) bool {
	return p.expr.MatchString(payload)
}

// Parse returns the captures of payload. A payload that does not match, or
// yields a different number of captures than expected, is ErrParseMismatch.
func (p *Pattern) Parse(payload string) (Captures, error) {
	m := p.expr.FindStringSubmatch(payload)
	if m == nil {
		return nil, fmt.Errorf("%s: %q: %w", p.name, payload, errors.ErrParseMismatch)
	}
	if len(m)-1 != p.captures {
		return nil, fmt.Errorf("%s: %d captures, want %d: %w", p.name, len(m)-1, p.captures, errors.ErrParseMismatch)
	}
	return Captures(m[1:]), nil
}

// Format renders a payload from args using the pattern's format.
func (p *Pattern) Format(args ...any) string {
	return fmt.Sprintf(p.format, args...)
}

var registry []*Pattern

// mustCompile anchors expr, checks the capture count and registers the
// pattern. A mismatch is a programming error and panics at init.
func mustCompile(name, expr string, captures int, format string) *Pattern {
	re := regexp.MustCompile("^" + expr + "$")
	if re.NumSubexp() != captures {
		panic(fmt.Sprintf("grammar: %s has %d captures, declared %d", name, re.NumSubexp(), captures))
	}
	p := &Pattern{name: name, expr: re, captures: captures, format: format}
	registry = append(registry, p)
	return p
}

// All returns every pattern in declaration order.
func All() []*Pattern {
	out := make([]*Pattern, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the pattern with the given name.
func Lookup(name string) (*Pattern, bool) {
	for _, p := range registry {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}
