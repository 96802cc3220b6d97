package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/pkg/clock"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultPath         = "/events"
	DefaultSendQueue    = 64
	DefaultPingInterval = 30 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// Config configures an Output.
type Config struct {
	// Addr is the listen address used by Start, e.g. ":8090".
	Addr         string        `json:"addr"          yaml:"addr"`
	Path         string        `json:"path"          yaml:"path"`
	SendQueue    int           `json:"send_queue"    yaml:"send_queue"`
	PingInterval time.Duration `json:"ping_interval" yaml:"ping_interval"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	// Source is stamped into every event envelope.
	Source string `json:"source" yaml:"source"`
}

func (c Config) withDefaults() Config {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.SendQueue <= 0 {
		c.SendQueue = DefaultSendQueue
	}
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	return c
}

// MessageEnvelope wraps every message sent to clients.
type MessageEnvelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Option configures an Output.
type Option func(*Output)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Output) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics counts delivered events in m and registers the stream
// metrics with registry.
func WithMetrics(m *metric.Metrics, registry *metric.MetricsRegistry) Option {
	return func(o *Output) {
		o.core = m
		o.metrics = newMetrics(registry)
	}
}

// WithClock sets the clock used for envelopes.
func WithClock(c clock.Clock) Option {
	return func(o *Output) { o.clock = c }
}

// Metrics holds the Prometheus metrics of an Output.
type Metrics struct {
	clientsConnected   prometheus.Gauge
	connectionTotal    prometheus.Counter
	disconnectionTotal *prometheus.CounterVec
	messagesSent       prometheus.Counter
	bytesSent          prometheus.Counter
	errorsTotal        *prometheus.CounterVec
}

func newMetrics(registry *metric.MetricsRegistry) *Metrics {
	if registry == nil {
		return nil
	}
	m := &Metrics{
		clientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hlxmatrix",
			Subsystem: "websocket",
			Name:      "clients_connected",
			Help:      "Number of currently connected clients",
		}),
		connectionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hlxmatrix",
			Subsystem: "websocket",
			Name:      "client_connections_total",
			Help:      "Total client connections (including disconnected)",
		}),
		disconnectionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlxmatrix",
			Subsystem: "websocket",
			Name:      "client_disconnections_total",
			Help:      "Total client disconnections",
		}, []string{"disconnect_reason"}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hlxmatrix",
			Subsystem: "websocket",
			Name:      "messages_sent_total",
			Help:      "Total messages written to clients",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hlxmatrix",
			Subsystem: "websocket",
			Name:      "bytes_sent_total",
			Help:      "Total bytes written to clients",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlxmatrix",
			Subsystem: "websocket",
			Name:      "errors_total",
			Help:      "WebSocket server errors",
		}, []string{"error_type"}),
	}
	_ = registry.Register("websocket", "clients_connected", m.clientsConnected)
	_ = registry.Register("websocket", "client_connections", m.connectionTotal)
	_ = registry.Register("websocket", "client_disconnections", m.disconnectionTotal)
	_ = registry.Register("websocket", "messages_sent", m.messagesSent)
	_ = registry.Register("websocket", "bytes_sent", m.bytesSent)
	_ = registry.Register("websocket", "errors", m.errorsTotal)
	return m
}

func (m *Metrics) recordError(kind string) {
	if m != nil {
		m.errorsTotal.WithLabelValues(kind).Inc()
	}
}

type client struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	connectedAt time.Time
	closeOnce   sync.Once
	closed      atomic.Bool
}

// Output serves the event stream.
type Output struct {
	cfg      Config
	logger   *slog.Logger
	core     *metric.Metrics
	metrics  *Metrics
	clock    clock.Clock
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[string]*client

	lifecycleMu sync.Mutex
	server      *http.Server
	listener    net.Listener
	wg          sync.WaitGroup
}

// New creates an Output. It does not listen until Start.
func New(cfg Config, opts ...Option) *Output {
	o := &Output{
		cfg:     cfg.withDefaults(),
		logger:  slog.Default(),
		clock:   clock.Real(),
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Read-only status stream; any origin may watch.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "websocket")
	return o
}

// Handler returns the HTTP handler serving the stream at Config.Path.
func (o *Output) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(o.cfg.Path, o.handleWebSocket)
	return mux
}

// Start listens on Config.Addr and serves until Stop.
func (o *Output) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.WrapTransient(err, "websocket", "Start", "context check")
	}
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()
	if o.server != nil {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "websocket", "Start", "start server")
	}

	ln, err := net.Listen("tcp", o.cfg.Addr)
	if err != nil {
		return errors.WrapFatal(err, "websocket", "Start", "listen")
	}
	o.listener = ln
	o.server = &http.Server{
		Handler:           o.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	server := o.server
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error("WebSocket server failed", "error", err)
			o.metrics.recordError("serve")
		}
	}()
	o.logger.Info("WebSocket event stream listening", "addr", ln.Addr().String(), "path", o.cfg.Path)
	return nil
}

// Addr returns the bound address once started.
func (o *Output) Addr() string {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()
	if o.listener == nil {
		return ""
	}
	return o.listener.Addr().String()
}

// Stop shuts the server down, disconnects every client and waits up to
// timeout for their goroutines.
func (o *Output) Stop(timeout time.Duration) error {
	o.lifecycleMu.Lock()
	server := o.server
	o.server = nil
	o.listener = nil
	o.lifecycleMu.Unlock()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			o.logger.Warn("HTTP server shutdown error", "error", err)
		}
	}

	for _, c := range o.snapshot() {
		o.removeClient(c, "shutdown")
	}

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(errors.ErrConnectionTimeout, "websocket", "Stop", "wait for clients")
	}
}

// ClientCount returns the number of connected clients.
func (o *Output) ClientCount() int {
	o.clientsMu.RLock()
	defer o.clientsMu.RUnlock()
	return len(o.clients)
}

// Handle broadcasts e to every client. Internal events are skipped.
func (o *Output) Handle(e event.Event) {
	if e.Kind().Internal() {
		return
	}
	now := o.clock.Now()
	payload, err := event.Marshal(e, o.cfg.Source, now)
	if err != nil {
		o.logger.Error("Event encoding failed", "kind", e.Kind().String(), "error", err)
		o.metrics.recordError("marshal")
		return
	}
	data, err := json.Marshal(MessageEnvelope{
		Type:      "event",
		ID:        uuid.NewString(),
		Timestamp: now.UnixMilli(),
		Payload:   payload,
	})
	if err != nil {
		o.metrics.recordError("marshal")
		return
	}

	for _, c := range o.snapshot() {
		if !deliver(c, data) {
			o.logger.Warn("Dropping slow client", "client_id", c.id, "queue", cap(c.send))
			o.removeClient(c, "slow")
		}
	}
	o.core.RecordEvent("websocket")
}

// deliver queues data for c without blocking and reports whether it fit.
func deliver(c *client, data []byte) bool {
	if c.closed.Load() {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (o *Output) snapshot() []*client {
	o.clientsMu.RLock()
	defer o.clientsMu.RUnlock()
	list := make([]*client, 0, len(o.clients))
	for _, c := range o.clients {
		list = append(list, c)
	}
	return list
}

func (o *Output) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := o.upgrader.Upgrade(w, r, nil)
	if err != nil {
		o.logger.Debug("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		o.metrics.recordError("connection_upgrade")
		return
	}

	c := &client{
		id:          uuid.NewString(),
		conn:        conn,
		send:        make(chan []byte, o.cfg.SendQueue),
		done:        make(chan struct{}),
		connectedAt: o.clock.Now(),
	}

	o.clientsMu.Lock()
	o.clients[c.id] = c
	count := len(o.clients)
	o.clientsMu.Unlock()

	if o.metrics != nil {
		o.metrics.connectionTotal.Inc()
		o.metrics.clientsConnected.Set(float64(count))
	}
	o.logger.Info("Client connected", "client_id", c.id, "remote", r.RemoteAddr, "clients", count)

	o.wg.Add(2)
	go o.writePump(c)
	go o.readPump(c)
}

// readPump discards client messages and keeps the read deadline alive on
// pongs. It ends the client on any read error.
func (o *Output) readPump(c *client) {
	defer o.wg.Done()
	defer o.removeClient(c, "normal")

	pongWait := 2 * o.cfg.PingInterval
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on c.conn.
func (o *Output) writePump(c *client) {
	defer o.wg.Done()
	ticker := time.NewTicker(o.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			deadline := time.Now().Add(time.Second)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = c.conn.Close()
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(o.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				o.metrics.recordError("write")
				o.removeClient(c, "write_error")
				_ = c.conn.Close()
				return
			}
			if o.metrics != nil {
				o.metrics.messagesSent.Inc()
				o.metrics.bytesSent.Add(float64(len(data)))
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(o.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				o.removeClient(c, "ping_error")
				_ = c.conn.Close()
				return
			}
		}
	}
}

// removeClient unregisters c once and signals its write goroutine to close
// the connection.
func (o *Output) removeClient(c *client, reason string) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		o.clientsMu.Lock()
		delete(o.clients, c.id)
		count := len(o.clients)
		o.clientsMu.Unlock()

		if o.metrics != nil {
			o.metrics.disconnectionTotal.WithLabelValues(reason).Inc()
			o.metrics.clientsConnected.Set(float64(count))
		}
		o.logger.Info("Client disconnected", "client_id", c.id, "reason", reason,
			"connected_for", o.clock.Now().Sub(c.connectedAt).String())
		close(c.done)
	})
}
