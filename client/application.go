package client

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/framing"
)

// Deps holds the collaborators of an Application.
type Deps struct {
	// Timers schedules exchange timeouts. Use a loop.Scheduler so
	// callbacks run on the application's loop.
	Timers exchange.Timers
	// Timeout is the default exchange timeout; zero means
	// exchange.DefaultTimeout.
	Timeout  time.Duration
	MaxFrame int
	Logger   *slog.Logger
	Metrics  *metric.Metrics
}

// Application composes the client controllers around one connection.
type Application struct {
	logger  *slog.Logger
	metrics *metric.Metrics

	model     *model.Model
	internal  event.Bus
	external  event.Bus
	exchanges *exchange.Manager
	table     *dispatch.Table
	codec     *framing.Codec
	deriver   *Deriver

	zones         *Zones
	groups        *Groups
	presets       *EqualizerPresets
	sources       *Sources
	favorites     *Favorites
	frontPanel    *FrontPanel
	network       *Network
	infrared      *Infrared
	configuration *Configuration

	sender  exchange.Sender
	onFatal func(error)
}

// New builds an Application with a default model and no connection.
func New(deps Deps) (*Application, error) {
	if deps.Timers == nil {
		return nil, errors.WrapFatal(errors.ErrNotInitialized, "client", "New", "timers check")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "client")

	a := &Application{
		logger:  logger,
		metrics: deps.Metrics,
		model:   model.New(),
		codec:   framing.NewCodec(framing.WithMaxFrame(deps.MaxFrame)),
	}
	a.exchanges = exchange.NewManager(exchange.SenderFunc(a.send), deps.Timers,
		exchange.WithTimeout(deps.Timeout),
		exchange.WithLogger(logger.With("subsystem", "exchange")),
		exchange.WithMetrics(deps.Metrics, metric.EndpointClient))
	a.table = dispatch.NewTable(metric.EndpointClient,
		dispatch.WithLogger(logger.With("subsystem", "dispatch")),
		dispatch.WithMetrics(deps.Metrics))

	mk := func(d event.Domain) base { return newBase(d, a.model, a.exchanges, &a.internal, logger) }
	a.zones = &Zones{base: mk(event.DomainZones)}
	a.groups = &Groups{base: mk(event.DomainGroups), seen: make(map[model.GroupID][]*memberSet)}
	a.presets = &EqualizerPresets{base: mk(event.DomainEqualizerPresets)}
	a.sources = &Sources{base: mk(event.DomainSources)}
	a.favorites = &Favorites{base: mk(event.DomainFavorites)}
	a.frontPanel = &FrontPanel{base: mk(event.DomainFrontPanel)}
	a.network = &Network{base: mk(event.DomainNetwork)}
	a.infrared = &Infrared{base: mk(event.DomainInfrared)}
	a.configuration = &Configuration{
		base:   mk(event.DomainConfiguration),
		groups: a.groups,
		domains: []refresher{
			a.zones, a.groups, a.presets, a.sources, a.favorites,
			a.frontPanel, a.network, a.infrared,
		},
	}
	a.deriver = &Deriver{
		model:      a.model,
		zones:      a.zones,
		groups:     a.groups,
		refreshing: a.Refreshing,
		logger:     logger.With("subsystem", "deriver"),
	}

	a.zones.register(a.table)
	a.groups.register(a.table)
	a.presets.register(a.table)
	a.sources.register(a.table)
	a.favorites.register(a.table)
	a.frontPanel.register(a.table)
	a.network.register(a.table)
	a.infrared.register(a.table)
	a.configuration.register(a.table)

	a.internal.Subscribe(a.observe)
	return a, nil
}

func (a *Application) Zones() *Zones                       { return a.zones }
func (a *Application) Groups() *Groups                     { return a.groups }
func (a *Application) EqualizerPresets() *EqualizerPresets { return a.presets }
func (a *Application) Sources() *Sources                   { return a.sources }
func (a *Application) Favorites() *Favorites               { return a.favorites }
func (a *Application) FrontPanel() *FrontPanel             { return a.frontPanel }
func (a *Application) Network() *Network                   { return a.network }
func (a *Application) Infrared() *Infrared                 { return a.infrared }
func (a *Application) Configuration() *Configuration       { return a.configuration }

// Model returns the mirrored model. Callers must not mutate it.
func (a *Application) Model() *model.Model { return a.model }

// Deriver returns the group state deriver.
func (a *Application) Deriver() *Deriver { return a.deriver }

// Exchanges returns the connection's exchange manager.
func (a *Application) Exchanges() *exchange.Manager { return a.exchanges }

// Subscribe registers h for external events. Internal group commands are
// never delivered.
func (a *Application) Subscribe(h event.Handler) (unsubscribe func()) {
	return a.external.Subscribe(h)
}

// Refreshing reports whether any domain refresh is outstanding.
func (a *Application) Refreshing() bool {
	for _, r := range a.configuration.domains {
		if r.Refreshing() {
			return true
		}
	}
	return a.configuration.Refreshing()
}

// Attach routes requests to sender. onFatal is called when the byte
// stream is unrecoverable and the connection must be closed.
func (a *Application) Attach(sender exchange.Sender, onFatal func(error)) {
	a.sender = sender
	a.onFatal = onFatal
	a.codec.Reset()
	a.logger.Info("Connection attached")
}

// Detach drops the connection and fails every outstanding exchange with
// cause, errors.ErrTransportLost when nil.
func (a *Application) Detach(cause error) {
	a.sender = nil
	a.onFatal = nil
	a.codec.Reset()
	if cause == nil {
		cause = errors.ErrTransportLost
	} else if !errors.Is(cause, errors.ErrTransportLost) {
		cause = fmt.Errorf("%w: %w", errors.ErrTransportLost, cause)
	}
	a.logger.Warn("Connection detached", "error", cause)
	a.exchanges.Fail(cause)
}

func (a *Application) send(frame []byte) error {
	if a.sender == nil {
		return errors.ErrNoConnection
	}
	if err := a.sender.Send(frame); err != nil {
		return err
	}
	a.metrics.RecordEncoded(metric.EndpointClient, framing.Request.String())
	return nil
}

// Receive feeds bytes read from the connection.
func (a *Application) Receive(p []byte) {
	frames, err := a.codec.Feed(p)
	for _, f := range frames {
		a.handleFrame(f)
	}
	if err != nil {
		a.metrics.RecordOverflow(metric.EndpointClient)
		a.fail(err)
		if errors.IsFatal(err) && a.onFatal != nil {
			a.onFatal(err)
		}
	}
}

func (a *Application) handleFrame(f framing.Frame) {
	a.metrics.RecordDecoded(metric.EndpointClient, f.Role.String())
	if f.Role != framing.Response {
		a.logger.Debug("Ignoring request frame", "payload", f.Payload)
		return
	}
	if a.exchanges.HandleResponse(f.Payload) {
		return
	}
	if _, err := a.table.Dispatch(f.Payload); err != nil {
		a.fail(err)
	}
}

func (a *Application) fail(err error) {
	a.internal.Publish(event.ControllerError{ErrorKind: errors.KindOf(err), Detail: err.Error()})
}

// observe receives every controller event. External events are forwarded
// before derivation so subscribers see a zone change ahead of the group
// change it causes.
func (a *Application) observe(e event.Event) {
	if !event.IsInternal(e) {
		if ce, ok := e.(event.ControllerError); ok {
			a.metrics.RecordControllerError(ce.ErrorKind)
			a.logger.Error("Controller error", "kind", ce.ErrorKind, "detail", ce.Detail)
		}
		a.external.Publish(e)
	}
	if err := a.deriver.Observe(e); err != nil {
		a.logger.Error("Group derivation failed", "event", e.Kind().String(), "error", err)
		a.fail(err)
	}
}
