// Package metric provides the Prometheus registry and HTTP server for the
// HLX client and server endpoints.
//
// NewMetricsRegistry preloads the protocol metrics (Metrics): frames
// decoded and encoded, framing overflows, unmatched frames, exchange
// outcomes and latency, queue depth, sessions, egress depth and events
// delivered to sinks. Components receive a *MetricsRegistry in their deps
// and record through CoreMetrics(); a nil registry disables metrics and
// every Metrics method is a no-op on nil.
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry, app.Health)
//	go func() { _ = server.Start() }()
//
// Components with metrics of their own (the worker pool, the buffer, the
// websocket sink) add them with Register under an owner name.
package metric
