package server

import (
	"fmt"
	"log/slog"

	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/codec"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// base is embedded by every controller. reply returns the Reply of the
// request being handled.
type base struct {
	model  *model.Model
	logger *slog.Logger
	reply  func() *Reply
}

// change broadcasts e and publishes it when status is Applied. An
// AlreadySet value is still acknowledged so the requester's exchange
// completes.
func (b *base) change(status model.Status, err error, e event.Event) error {
	if err != nil {
		return err
	}
	r := b.reply()
	r.Broadcast(codec.MustEncode(e))
	if status.Changed() {
		r.Publish(e)
	} else {
		b.logger.Debug("Value already set", "event", e.Kind().String())
	}
	return nil
}

// on registers a request handler for p that receives the decoded,
// range-checked value.
func on[E event.Event](t *dispatch.Table, p *grammar.Pattern, apply func(E) error) {
	t.Register(p, func(c grammar.Captures) error {
		decoded, err := codec.DecodeFrom(p, c)
		if err != nil {
			return err
		}
		e, ok := decoded.(E)
		if !ok {
			return fmt.Errorf("%s decoded to %s: %w", p.Name(), decoded.Kind(), errors.ErrParseMismatch)
		}
		return apply(e)
	})
}

func zoneAt(c grammar.Captures, i int) (model.ZoneID, error) {
	v, err := c.Int(i)
	if err != nil {
		return 0, err
	}
	id := model.ZoneID(v)
	return id, id.Validate()
}

func groupAt(c grammar.Captures, i int) (model.GroupID, error) {
	v, err := c.Int(i)
	if err != nil {
		return 0, err
	}
	id := model.GroupID(v)
	return id, id.Validate()
}

func presetAt(c grammar.Captures, i int) (model.PresetID, error) {
	v, err := c.Int(i)
	if err != nil {
		return 0, err
	}
	id := model.PresetID(v)
	return id, id.Validate()
}

func bandAt(c grammar.Captures, i int) (model.BandID, error) {
	v, err := c.Int(i)
	if err != nil {
		return 0, err
	}
	id := model.BandID(v)
	return id, id.Validate()
}

// step is +1 for U and -1 for D.
func step(token string) int {
	if token == grammar.TokenUp {
		return 1
	}
	return -1
}

// stateful is implemented by controllers that contribute to a state dump.
type stateful interface {
	state() []event.Event
}

// query answers the requester with state followed by echo.
func (b *base) query(state []event.Event, echo string) error {
	r := b.reply()
	for _, e := range state {
		r.state(e)
	}
	r.Respond(echo)
	return nil
}
