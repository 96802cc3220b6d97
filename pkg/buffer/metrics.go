package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/hlxmatrix/metric"
)

// bufferMetrics mirrors Statistics into Prometheus. A nil *bufferMetrics
// records nothing.
type bufferMetrics struct {
	writes      prometheus.Counter
	reads       prometheus.Counter
	overflows   prometheus.Counter
	drops       prometheus.Counter
	size        prometheus.Gauge
	utilization prometheus.Gauge
}

func newBufferMetrics(registry *metric.MetricsRegistry, prefix string) (*bufferMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "hlxmatrix",
			Subsystem:   "buffer",
			Name:        name,
			Help:        help,
			ConstLabels: prometheus.Labels{"component": prefix},
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "hlxmatrix",
			Subsystem:   "buffer",
			Name:        name,
			Help:        help,
			ConstLabels: prometheus.Labels{"component": prefix},
		})
	}

	m := &bufferMetrics{
		writes:      counter("writes_total", "Items written"),
		reads:       counter("reads_total", "Items read"),
		overflows:   counter("overflows_total", "Writes that found the buffer full"),
		drops:       counter("drops_total", "Items discarded by the overflow policy"),
		size:        gauge("size", "Items currently buffered"),
		utilization: gauge("utilization", "Size over capacity, 0 to 1"),
	}

	counters := map[string]prometheus.Counter{
		"buffer_writes":    m.writes,
		"buffer_reads":     m.reads,
		"buffer_overflows": m.overflows,
		"buffer_drops":     m.drops,
	}
	for name, c := range counters {
		if err := registry.Register(prefix, name, c); err != nil {
			return nil, err
		}
	}
	if err := registry.Register(prefix, "buffer_size", m.size); err != nil {
		return nil, err
	}
	if err := registry.Register(prefix, "buffer_utilization", m.utilization); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *bufferMetrics) recordWrite(size, capacity int) {
	if m == nil {
		return
	}
	m.writes.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordRead(size, capacity int) {
	if m == nil {
		return
	}
	m.reads.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordOverflow() {
	if m != nil {
		m.overflows.Inc()
	}
}

func (m *bufferMetrics) recordDrop() {
	if m != nil {
		m.drops.Inc()
	}
}

func (m *bufferMetrics) updateSize(size, capacity int) {
	if m == nil {
		return
	}
	m.size.Set(float64(size))
	m.utilization.Set(float64(size) / float64(capacity))
}
