package metric

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/hlxmatrix/errors"
)

// MetricsRegistry owns a Prometheus registry preloaded with the protocol
// metrics every endpoint reports. Sinks, pools and buffers add their own
// collectors under an owner name.
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics

	mu    sync.Mutex
	owned map[string]prometheus.Collector
}

// NewMetricsRegistry creates a registry with the protocol metrics and the
// Go runtime collectors registered.
func NewMetricsRegistry() *MetricsRegistry {
	r := &MetricsRegistry{
		prometheusRegistry: prometheus.NewRegistry(),
		Metrics:            NewMetrics(),
		owned:              make(map[string]prometheus.Collector),
	}
	r.prometheusRegistry.MustRegister(r.Metrics.collectors()...)
	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the protocol metrics. A nil registry yields nil
// metrics, which every Metrics method accepts.
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	if r == nil {
		return nil
	}
	return r.Metrics
}

func ownedKey(owner, name string) string { return owner + "." + name }

// Register adds c under owner and name. Registering the same pair twice,
// or a collector whose metric name Prometheus already knows, fails with
// an invalid error.
func (r *MetricsRegistry) Register(owner, name string, c prometheus.Collector) error {
	key := ownedKey(owner, name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owned[key]; ok {
		return errors.WrapInvalid(fmt.Errorf("%s already registered", key),
			"MetricsRegistry", "Register", "register collector")
	}
	if err := r.prometheusRegistry.Register(c); err != nil {
		var dup prometheus.AlreadyRegisteredError
		if errors.As(err, &dup) {
			return errors.WrapInvalid(err, "MetricsRegistry", "Register", "register "+key)
		}
		return errors.WrapFatal(err, "MetricsRegistry", "Register", "register "+key)
	}
	r.owned[key] = c
	return nil
}

// Unregister removes the collector registered under owner and name.
func (r *MetricsRegistry) Unregister(owner, name string) bool {
	key := ownedKey(owner, name)

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.owned[key]
	if !ok || !r.prometheusRegistry.Unregister(c) {
		return false
	}
	delete(r.owned, key)
	return true
}
