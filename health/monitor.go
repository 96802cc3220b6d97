package health

import (
	"sort"
	"sync"
	"time"

	"github.com/c360/hlxmatrix/pkg/clock"
)

// Monitor holds the latest status of each named part of an endpoint.
// Parts update it from their own goroutines; the metrics server reads it.
type Monitor struct {
	clock   clock.Clock
	started time.Time

	mu    sync.RWMutex
	parts map[string]Status
}

// NewMonitor returns an empty Monitor. A nil clock means the wall clock.
func NewMonitor(c clock.Clock) *Monitor {
	if c == nil {
		c = clock.Real()
	}
	return &Monitor{clock: c, started: c.Now(), parts: make(map[string]Status)}
}

// Update records status for name, stamped with the monitor's clock.
func (m *Monitor) Update(name string, status Status) {
	status.Component = name
	status.Timestamp = m.clock.Now()

	m.mu.Lock()
	m.parts[name] = status
	m.mu.Unlock()
}

func (m *Monitor) UpdateHealthy(name, message string)   { m.Update(name, NewHealthy(name, message)) }
func (m *Monitor) UpdateDegraded(name, message string)  { m.Update(name, NewDegraded(name, message)) }
func (m *Monitor) UpdateUnhealthy(name, message string) { m.Update(name, NewUnhealthy(name, message)) }

// Get returns the status recorded for name.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.parts[name]
	return s, ok
}

// Remove forgets name.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	delete(m.parts, name)
	m.mu.Unlock()
}

// Names returns the tracked parts, sorted.
func (m *Monitor) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.parts))
	for name := range m.parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report aggregates every part under system and adds uptime and the
// number of unhealthy parts.
func (m *Monitor) Report(system string) Status {
	m.mu.RLock()
	parts := make([]Status, 0, len(m.parts))
	failing := 0
	for _, s := range m.parts {
		parts = append(parts, s)
		if s.IsUnhealthy() {
			failing++
		}
	}
	m.mu.RUnlock()

	report := Aggregate(system, parts)
	report.Timestamp = m.clock.Now()
	report.Uptime = report.Timestamp.Sub(m.started)
	report.Failing = failing
	return report
}
