package server

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/c360/hlxmatrix/backup"
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/framing"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// DefaultEgressCapacity bounds the frames queued for one session.
const DefaultEgressCapacity = 1024

// Deps holds the collaborators of an Application.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metric.Metrics
	// Backup stores SAVE and serves LOAD. Without it both are rejected.
	Backup        backup.Store
	BackupTimeout time.Duration
	MaxFrame      int
	// EgressCapacity is the per-session queue size; zero means
	// DefaultEgressCapacity.
	EgressCapacity int
	// EgressWatermark is the queue size at which reads pause; zero means
	// three quarters of the capacity. Reads resume at half of it.
	EgressWatermark int
	// Model is the initial state; nil means factory defaults.
	Model *model.Model
}

// Application is the server side of the protocol. Every method must run
// on the owning loop.
type Application struct {
	logger  *slog.Logger
	metrics *metric.Metrics

	model    *model.Model
	bus      event.Bus
	table    *dispatch.Table
	current  *Reply
	sessions []*Session

	maxFrame       int
	egressCapacity int
	egressHigh     int
	egressLow      int

	zones         *Zones
	groups        *Groups
	configuration *Configuration
}

// New builds an Application.
func New(deps Deps) (*Application, error) {
	if deps.EgressCapacity < 0 || deps.EgressWatermark < 0 || deps.MaxFrame < 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "server", "New", "queue limits check")
	}
	capacity := deps.EgressCapacity
	if capacity == 0 {
		capacity = DefaultEgressCapacity
	}
	high := deps.EgressWatermark
	if high == 0 {
		high = capacity * 3 / 4
	}
	if high > capacity {
		return nil, errors.WrapInvalid(
			fmt.Errorf("watermark %d above capacity %d: %w", high, capacity, errors.ErrInvalidConfig),
			"server", "New", "queue limits check")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	m := deps.Model
	if m == nil {
		m = model.New()
	}

	a := &Application{
		logger:         logger,
		metrics:        deps.Metrics,
		model:          m,
		maxFrame:       deps.MaxFrame,
		egressCapacity: capacity,
		egressHigh:     high,
		egressLow:      high / 2,
	}
	a.table = dispatch.NewTable(metric.EndpointServer,
		dispatch.WithLogger(logger.With("subsystem", "dispatch")),
		dispatch.WithMetrics(deps.Metrics))

	mk := func() base { return base{model: m, logger: logger, reply: a.reply} }
	a.groups = &Groups{base: mk()}
	a.zones = &Zones{base: mk(), touched: a.groups.zoneChanged}
	presets := &EqualizerPresets{base: mk()}
	sources := &Sources{base: mk()}
	favorites := &Favorites{base: mk()}
	frontPanel := &FrontPanel{base: mk()}
	network := &Network{base: mk()}
	infrared := &Infrared{base: mk()}
	a.configuration = &Configuration{
		base:    mk(),
		store:   deps.Backup,
		timeout: deps.BackupTimeout,
		groups:  a.groups,
		domains: []stateful{a.zones, a.groups, presets, sources, favorites, frontPanel, network, infrared},
	}

	a.zones.register(a.table)
	a.groups.register(a.table)
	presets.register(a.table)
	sources.register(a.table)
	favorites.register(a.table)
	frontPanel.register(a.table)
	network.register(a.table)
	infrared.register(a.table)
	a.configuration.register(a.table)
	return a, nil
}

// Model returns the authoritative model.
func (a *Application) Model() *model.Model { return a.model }

// Subscribe registers h for every applied state change.
func (a *Application) Subscribe(h event.Handler) (unsubscribe func()) {
	return a.bus.Subscribe(h)
}

// Sessions returns the open sessions in the order they were opened.
func (a *Application) Sessions() []*Session { return slices.Clone(a.sessions) }

// Open registers a new session. flow is paused while the session's queue
// is above its watermark; it may be nil.
func (a *Application) Open(flow FlowControl) (*Session, error) {
	s, err := newSession(a, flow)
	if err != nil {
		return nil, errors.Wrap(err, "server", "Open", "create session")
	}
	a.sessions = append(a.sessions, s)
	a.metrics.AddSessions(1)
	a.logger.Info("Session opened", "session", s.id, "sessions", len(a.sessions))
	return s, nil
}

// Close ends s with cause. It is idempotent.
func (a *Application) Close(s *Session, cause error) {
	if !s.close(cause) {
		return
	}
	a.sessions = slices.DeleteFunc(a.sessions, func(o *Session) bool { return o == s })
	a.metrics.AddSessions(-1)
	if cause != nil {
		a.logger.Warn("Session closed", "session", s.id, "error", cause)
		return
	}
	a.logger.Info("Session closed", "session", s.id)
}

// Receive feeds bytes read from s.
func (a *Application) Receive(s *Session, p []byte) {
	if s.closed {
		return
	}
	frames, err := s.codec.Feed(p)
	for _, f := range frames {
		a.metrics.RecordDecoded(metric.EndpointServer, f.Role.String())
		if f.Role != framing.Request {
			a.logger.Debug("Ignoring response frame", "session", s.id, "payload", f.Payload)
			continue
		}
		reply, err := a.Handle(f.Payload)
		a.flush(s, reply, err)
	}
	if err != nil {
		a.metrics.RecordOverflow(metric.EndpointServer)
		a.Close(s, err)
	}
}

// Handle runs one request payload and returns what it produced. A
// payload no pattern matches fails with ErrParseMismatch.
func (a *Application) Handle(payload string) (*Reply, error) {
	a.current = &Reply{}
	defer func() { a.current = nil }()

	matched, err := a.table.Dispatch(payload)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, fmt.Errorf("%q: %w", payload, errors.ErrParseMismatch)
	}
	return a.current, nil
}

func (a *Application) reply() *Reply { return a.current }

// flush delivers reply for a request from s: broadcasts to every open
// session in open order, the rest to s, then the events to subscribers.
func (a *Application) flush(s *Session, reply *Reply, err error) {
	if err != nil {
		kind := errors.KindOf(err)
		a.metrics.RecordControllerError(kind)
		a.logger.Warn("Request rejected", "session", s.id, "kind", kind, "error", err)
		a.send(s, grammar.Error.Format())
		return
	}
	for _, o := range reply.outputs {
		if !o.broadcast {
			a.send(s, o.payload)
			continue
		}
		for _, peer := range a.Sessions() {
			a.send(peer, o.payload)
		}
	}
	for _, e := range reply.events {
		a.bus.Publish(e)
	}
}

func (a *Application) send(s *Session, payload string) {
	if s.closed {
		return
	}
	if err := s.enqueue(framing.Encode(framing.Response, payload)); err != nil {
		a.Close(s, errors.Wrap(err, "server", "send", "queue frame"))
		return
	}
	a.metrics.RecordEncoded(metric.EndpointServer, framing.Response.String())
}
