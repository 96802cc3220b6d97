// Package framing splits an HLX byte stream into role-delimited frames.
//
// Requests are wrapped in square brackets and responses in parentheses.
// Bytes outside a delimiter pair are noise and are discarded, which lets a
// reader resynchronize after joining a stream mid-frame.
package framing

import (
	"fmt"

	"github.com/c360/hlxmatrix/errors"
)

// Role is the role a frame plays, given by its delimiters.
type Role int

const (
	// Request frames are wrapped in [ and ].
	Request Role = iota + 1
	// Response frames are wrapped in ( and ).
	Response
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case Request:
		return "request"
	case Response:
		return "response"
	default:
		return "unknown"
	}
}

// Open returns the opening delimiter.
func (r Role) Open() byte {
	if r == Request {
		return '['
	}
	return '('
}

// Close returns the closing delimiter.
func (r Role) Close() byte {
	if r == Request {
		return ']'
	}
	return ')'
}

// Frame is one complete delimited payload.
type Frame struct {
	Role    Role
	Payload string
}

// String renders the frame with its delimiters.
func (f Frame) String() string {
	return string(Encode(f.Role, f.Payload))
}

// Encode wraps payload in the delimiters of role.
func Encode(role Role, payload string) []byte {
	out := make([]byte, 0, len(payload)+2)
	out = append(out, role.Open())
	out = append(out, payload...)
	return append(out, role.Close())
}

// DefaultMaxFrame bounds a partial frame when no option overrides it.
const DefaultMaxFrame = 512

// Codec accumulates partial frames across Feed calls. It is not safe for
// concurrent use; each connection owns one on its loop.
type Codec struct {
	max     int
	buf     []byte
	role    Role
	inFrame bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithMaxFrame bounds the payload of a partial frame. Values <= 0 keep the
// default.
func WithMaxFrame(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.max = n
		}
	}
}

// NewCodec creates a Codec.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{max: DefaultMaxFrame}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Feed consumes p and returns the frames it completes, in order.
//
// An opening delimiter inside a partial frame restarts the frame. A closing
// delimiter of the other role abandons the partial frame. When a partial
// frame grows past the maximum it is dropped and Feed keeps decoding the
// rest of p; the frames completed in this call are returned together with
// an error wrapping ErrFramingOverflow.
func (c *Codec) Feed(p []byte) ([]Frame, error) {
	var frames []Frame
	overflows := 0

	for _, b := range p {
		switch b {
		case '[', '(':
			c.start(roleOf(b))
		case ']', ')':
			if c.inFrame && roleOf(b) == c.role {
				frames = append(frames, Frame{Role: c.role, Payload: string(c.buf)})
			}
			c.reset()
		default:
			if !c.inFrame {
				continue
			}
			if len(c.buf) >= c.max {
				overflows++
				c.reset()
				continue
			}
			c.buf = append(c.buf, b)
		}
	}

	if overflows > 0 {
		return frames, fmt.Errorf("framing: %d partial frame(s) over %d bytes dropped: %w",
			overflows, c.max, errors.ErrFramingOverflow)
	}
	return frames, nil
}

// Pending returns the length of the partial frame held.
func (c *Codec) Pending() int { return len(c.buf) }

// Reset discards any partial frame.
func (c *Codec) Reset() { c.reset() }

func (c *Codec) start(role Role) {
	c.role = role
	c.inFrame = true
	c.buf = c.buf[:0]
}

func (c *Codec) reset() {
	c.inFrame = false
	c.role = 0
	c.buf = c.buf[:0]
}

func roleOf(b byte) Role {
	if b == '[' || b == ']' {
		return Request
	}
	return Response
}
