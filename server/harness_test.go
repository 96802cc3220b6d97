package server

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/backup"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/protocol/framing"
)

type flowRecorder struct {
	pauses  atomic.Int32
	resumes atomic.Int32
}

func (f *flowRecorder) Pause()  { f.pauses.Add(1) }
func (f *flowRecorder) Resume() { f.resumes.Add(1) }

type harness struct {
	t        *testing.T
	app      *Application
	metrics  *metric.Metrics
	recorder *event.Recorder
	store    *backup.MemoryStore
}

func newHarness(t *testing.T, deps Deps) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		metrics:  metric.NewMetrics(),
		recorder: &event.Recorder{},
		store:    backup.NewMemoryStore(),
	}
	deps.Metrics = h.metrics
	if deps.Backup == nil {
		deps.Backup = h.store
	}
	app, err := New(deps)
	require.NoError(t, err)
	app.Subscribe(h.recorder.Record)
	h.app = app
	return h
}

func (h *harness) open() (*Session, *flowRecorder) {
	h.t.Helper()
	flow := &flowRecorder{}
	s, err := h.app.Open(flow)
	require.NoError(h.t, err)
	return s, flow
}

// request sends request payloads from s.
func (h *harness) request(s *Session, payloads ...string) {
	for _, p := range payloads {
		h.app.Receive(s, framing.Encode(framing.Request, p))
	}
}

// frames drains what s would have written.
func frames(s *Session) []string {
	var out []string
	for frame, ok := s.Next(); ok; frame, ok = s.Next() {
		out = append(out, string(frame))
	}
	return out
}

func (h *harness) events() []event.Event { return h.recorder.Events }

func (h *harness) reset(sessions ...*Session) {
	h.recorder.Reset()
	for _, s := range sessions {
		frames(s)
	}
}
