package event

// Handler receives events.
type Handler func(Event)

// Bus delivers each published event synchronously to every subscriber, in
// subscription order. An event published from inside a handler is
// delivered in full before the outer Publish continues.
//
// Bus is not safe for concurrent use. It lives on an endpoint's loop.
type Bus struct {
	subs   []subscription
	nextID int
}

type subscription struct {
	id      int
	handler Handler
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: h})
	return func() {
		for i, s := range b.subs {
			if s.id == id {
				subs := make([]subscription, 0, len(b.subs)-1)
				subs = append(subs, b.subs[:i]...)
				b.subs = append(subs, b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to the current subscribers.
func (b *Bus) Publish(e Event) {
	subs := b.subs
	for _, s := range subs {
		s.handler(e)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int { return len(b.subs) }

// Recorder collects events, for tests and for the client CLI's one-shot
// commands.
type Recorder struct {
	Events []Event
}

// Record appends e. It has the Handler signature.
func (r *Recorder) Record(e Event) { r.Events = append(r.Events, e) }

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	out := make([]Kind, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Kind()
	}
	return out
}

// Reset discards recorded events.
func (r *Recorder) Reset() { r.Events = nil }
