package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Endpoint label values.
const (
	EndpointClient = "client"
	EndpointServer = "server"
)

// Metrics holds the protocol-level metrics shared by both endpoints. All
// methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	FramesDecoded    *prometheus.CounterVec
	FramesEncoded    *prometheus.CounterVec
	FramingOverflows *prometheus.CounterVec
	UnmatchedFrames  *prometheus.CounterVec
	ParseMismatches  *prometheus.CounterVec

	Exchanges          *prometheus.CounterVec
	ExchangeLatency    *prometheus.HistogramVec
	ExchangeQueueDepth *prometheus.GaugeVec

	ConnectionState *prometheus.GaugeVec
	Sessions        prometheus.Gauge
	EgressBuffered  prometheus.Gauge
	ReadsPaused     prometheus.Counter

	EventsPublished  *prometheus.CounterVec
	ControllerErrors *prometheus.CounterVec

	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates the protocol metrics without registering them.
func NewMetrics() *Metrics {
	return &Metrics{
		FramesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlx", Subsystem: "framing", Name: "frames_decoded_total",
			Help: "Frames decoded from the byte stream",
		}, []string{"endpoint", "role"}),

		FramesEncoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlx", Subsystem: "framing", Name: "frames_encoded_total",
			Help: "Frames written to the byte stream",
		}, []string{"endpoint", "role"}),

		FramingOverflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlx", Subsystem: "framing", Name: "overflows_total",
			Help: "Partial frames dropped for exceeding the maximum frame size",
		}, []string{"endpoint"}),

		UnmatchedFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlx", Subsystem: "dispatch", Name: "unmatched_frames_total",
			Help: "Frames no registered pattern matched",
		}, []string{"endpoint"}),

		ParseMismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlx", Subsystem: "dispatch", Name: "parse_mismatches_total",
			Help: "Frames whose captures could not be parsed",
		}, []string{"endpoint"}),

		Exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlx", Subsystem: "exchange", Name: "completed_total",
			Help: "Exchanges reaching a terminal state, by outcome",
		}, []string{"outcome"}),

		ExchangeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hlx", Subsystem: "exchange", Name: "latency_seconds",
			Help:    "Time from send to terminal state",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"outcome"}),

		ExchangeQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hlx", Subsystem: "exchange", Name: "queue_depth",
			Help: "Exchanges queued behind the pending one",
		}, []string{"connection"}),

		ConnectionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hlx", Subsystem: "transport", Name: "connection_state",
			Help: "Current connection state ordinal",
		}, []string{"endpoint"}),

		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hlx", Subsystem: "server", Name: "sessions",
			Help: "Connected client sessions",
		}),

		EgressBuffered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hlx", Subsystem: "server", Name: "egress_buffered_frames",
			Help: "Frames waiting in session egress buffers",
		}),

		ReadsPaused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hlx", Subsystem: "server", Name: "reads_paused_total",
			Help: "Times a session reader paused on the egress watermark",
		}),

		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlx", Subsystem: "events", Name: "published_total",
			Help: "External events delivered, by sink",
		}, []string{"sink"}),

		ControllerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hlx", Subsystem: "events", Name: "controller_errors_total",
			Help: "ControllerError events, by kind",
		}, []string{"kind"}),

		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hlx", Subsystem: "nats", Name: "connected",
			Help: "NATS connection status (0=disconnected, 1=connected)",
		}),

		NATSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hlx", Subsystem: "nats", Name: "reconnects_total",
			Help: "Total number of NATS reconnections",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FramesDecoded, m.FramesEncoded, m.FramingOverflows, m.UnmatchedFrames, m.ParseMismatches,
		m.Exchanges, m.ExchangeLatency, m.ExchangeQueueDepth,
		m.ConnectionState, m.Sessions, m.EgressBuffered, m.ReadsPaused,
		m.EventsPublished, m.ControllerErrors,
		m.NATSConnected, m.NATSReconnects,
	}
}

// RecordDecoded counts a decoded frame.
func (m *Metrics) RecordDecoded(endpoint, role string) {
	if m == nil {
		return
	}
	m.FramesDecoded.WithLabelValues(endpoint, role).Inc()
}

// RecordEncoded counts an encoded frame.
func (m *Metrics) RecordEncoded(endpoint, role string) {
	if m == nil {
		return
	}
	m.FramesEncoded.WithLabelValues(endpoint, role).Inc()
}

// RecordOverflow counts a dropped oversize partial frame.
func (m *Metrics) RecordOverflow(endpoint string) {
	if m == nil {
		return
	}
	m.FramingOverflows.WithLabelValues(endpoint).Inc()
}

// RecordUnmatched counts a frame no pattern matched.
func (m *Metrics) RecordUnmatched(endpoint string) {
	if m == nil {
		return
	}
	m.UnmatchedFrames.WithLabelValues(endpoint).Inc()
}

// RecordParseMismatch counts a frame rejected during capture parsing.
func (m *Metrics) RecordParseMismatch(endpoint string) {
	if m == nil {
		return
	}
	m.ParseMismatches.WithLabelValues(endpoint).Inc()
}

// RecordExchange records a terminal exchange outcome and its latency.
func (m *Metrics) RecordExchange(outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.Exchanges.WithLabelValues(outcome).Inc()
	m.ExchangeLatency.WithLabelValues(outcome).Observe(latency.Seconds())
}

// SetQueueDepth reports the exchange queue depth of a connection.
func (m *Metrics) SetQueueDepth(connection string, depth int) {
	if m == nil {
		return
	}
	m.ExchangeQueueDepth.WithLabelValues(connection).Set(float64(depth))
}

// SetConnectionState reports a connection state ordinal.
func (m *Metrics) SetConnectionState(endpoint string, state int) {
	if m == nil {
		return
	}
	m.ConnectionState.WithLabelValues(endpoint).Set(float64(state))
}

// AddSessions adjusts the connected session gauge.
func (m *Metrics) AddSessions(delta int) {
	if m == nil {
		return
	}
	m.Sessions.Add(float64(delta))
}

// AddEgress adjusts the buffered egress frame gauge.
func (m *Metrics) AddEgress(delta int) {
	if m == nil {
		return
	}
	m.EgressBuffered.Add(float64(delta))
}

// RecordReadPause counts a reader paused by backpressure.
func (m *Metrics) RecordReadPause() {
	if m == nil {
		return
	}
	m.ReadsPaused.Inc()
}

// RecordEvent counts an event delivered to a sink.
func (m *Metrics) RecordEvent(sink string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(sink).Inc()
}

// RecordControllerError counts a ControllerError by kind.
func (m *Metrics) RecordControllerError(kind string) {
	if m == nil {
		return
	}
	m.ControllerErrors.WithLabelValues(kind).Inc()
}

// SetNATSConnected reports the NATS connection status.
func (m *Metrics) SetNATSConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.NATSConnected.Set(1)
	} else {
		m.NATSConnected.Set(0)
	}
}

// RecordNATSReconnect counts a NATS reconnection.
func (m *Metrics) RecordNATSReconnect() {
	if m == nil {
		return
	}
	m.NATSReconnects.Inc()
}
