package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/health"
)

// Service is a side service with a start/stop lifecycle.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

// Lifecycle is implemented by the output sinks.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

type named struct {
	name string
	Lifecycle
}

func (n named) Name() string { return n.name }

// Named adapts l into a Service called name.
func Named(name string, l Lifecycle) Service { return named{name: name, Lifecycle: l} }

type funcService struct {
	name  string
	start func(ctx context.Context) error
	stop  func(timeout time.Duration) error
}

func (f funcService) Name() string { return f.name }

func (f funcService) Start(ctx context.Context) error {
	if f.start == nil {
		return nil
	}
	return f.start(ctx)
}

func (f funcService) Stop(timeout time.Duration) error {
	if f.stop == nil {
		return nil
	}
	return f.stop(timeout)
}

// Func builds a Service from functions. Either may be nil.
func Func(name string, start func(ctx context.Context) error, stop func(timeout time.Duration) error) Service {
	return funcService{name: name, start: start, stop: stop}
}

// Manager owns an ordered set of services.
type Manager struct {
	logger  *slog.Logger
	monitor *health.Monitor

	mu       sync.Mutex
	services []Service
	started  []Service
}

// NewManager creates an empty manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:  logger.With("component", "service-manager"),
		monitor: health.NewMonitor(nil),
	}
}

// Add registers s. Services added after StartAll are not started.
func (m *Manager) Add(s Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, s)
}

// Monitor returns the health monitor services report into.
func (m *Manager) Monitor() *health.Monitor { return m.monitor }

// Health aggregates every reported status under system.
func (m *Manager) Health(system string) health.Status {
	return m.monitor.Report(system)
}

// Names lists the registered services in start order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.services))
	for i, s := range m.services {
		names[i] = s.Name()
	}
	return names
}

// StartAll starts every service in order. On failure the services already
// started are stopped again and the error is returned.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	if len(m.started) > 0 {
		m.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "service", "StartAll", "start services")
	}
	services := append([]Service(nil), m.services...)
	m.mu.Unlock()

	m.logger.Debug("Starting services", "count", len(services))
	for _, s := range services {
		start := time.Now()
		if err := s.Start(ctx); err != nil {
			m.logger.Error("Service start failed", "service", s.Name(), "error", err)
			m.monitor.Update(s.Name(), health.FromError(s.Name(), err))
			_ = m.StopAll(5 * time.Second)
			return fmt.Errorf("start service %s: %w", s.Name(), err)
		}
		m.mu.Lock()
		m.started = append(m.started, s)
		m.mu.Unlock()
		m.monitor.UpdateHealthy(s.Name(), "running")
		m.logger.Debug("Service started", "service", s.Name(),
			"duration_ms", time.Since(start).Milliseconds())
	}
	m.logger.Info("All services started", "count", len(services))
	return nil
}

// StopAll stops the started services in reverse order, each with timeout.
func (m *Manager) StopAll(timeout time.Duration) error {
	m.mu.Lock()
	started := m.started
	m.started = nil
	m.mu.Unlock()

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		s := started[i]
		if err := s.Stop(timeout); err != nil {
			m.logger.Error("Service stop failed", "service", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("stop service %s: %w", s.Name(), err))
			m.monitor.Update(s.Name(), health.FromError(s.Name(), err))
			continue
		}
		m.monitor.Remove(s.Name())
		m.logger.Debug("Service stopped", "service", s.Name())
	}
	return errors.Join(errs...)
}
