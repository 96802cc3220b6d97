package server

import (
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/protocol/codec"
)

type output struct {
	payload   string
	broadcast bool
}

// Reply collects what one request produces.
type Reply struct {
	outputs []output
	events  []event.Event
}

// Respond queues payload for the requester only.
func (r *Reply) Respond(payload string) {
	r.outputs = append(r.outputs, output{payload: payload})
}

// Broadcast queues payload for every session.
func (r *Reply) Broadcast(payload string) {
	r.outputs = append(r.outputs, output{payload: payload, broadcast: true})
}

// Publish records state changes for server-side subscribers.
func (r *Reply) Publish(events ...event.Event) {
	r.events = append(r.events, events...)
}

// Payloads returns every queued payload in order.
func (r *Reply) Payloads() []string {
	out := make([]string, len(r.outputs))
	for i, o := range r.outputs {
		out[i] = o.payload
	}
	return out
}

// Events returns the recorded state changes.
func (r *Reply) Events() []event.Event { return r.events }

// state renders e as a requester-only frame.
func (r *Reply) state(e event.Event) {
	r.Respond(codec.MustEncode(e))
}
