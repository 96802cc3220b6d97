package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/pkg/clock"
	"github.com/c360/hlxmatrix/protocol/framing"
)

const testTimeout = 100 * time.Millisecond

type frameSink struct {
	frames []string
}

func (s *frameSink) Send(frame []byte) error {
	s.frames = append(s.frames, string(frame))
	return nil
}

type harness struct {
	t        *testing.T
	app      *Application
	clock    *clock.FakeClock
	sink     *frameSink
	metrics  *metric.Metrics
	recorder *event.Recorder
	fatal    []error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		clock:    clock.Fake(time.Unix(0, 0)),
		sink:     &frameSink{},
		metrics:  metric.NewMetrics(),
		recorder: &event.Recorder{},
	}
	app, err := New(Deps{
		Timers:  h.clock,
		Timeout: testTimeout,
		Metrics: h.metrics,
	})
	require.NoError(t, err)
	app.Attach(h.sink, func(err error) { h.fatal = append(h.fatal, err) })
	app.Subscribe(h.recorder.Record)
	h.app = app
	return h
}

// notify delivers response payloads from the server.
func (h *harness) notify(payloads ...string) {
	for _, p := range payloads {
		h.app.Receive(framing.Encode(framing.Response, p))
	}
}

// echoPending answers every pending request with its own payload until
// nothing is pending, and returns how many it answered.
func (h *harness) echoPending() int {
	n := 0
	for p := h.app.Exchanges().Pending(); p != nil; p = h.app.Exchanges().Pending() {
		h.notify(p.Payload())
		n++
	}
	return n
}

func (h *harness) events() []event.Event {
	return h.recorder.Events
}

func (h *harness) reset() {
	h.recorder.Reset()
	h.sink.frames = nil
}

func (h *harness) lastFrame() string {
	h.t.Helper()
	require.NotEmpty(h.t, h.sink.frames)
	return h.sink.frames[len(h.sink.frames)-1]
}
