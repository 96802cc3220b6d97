package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/hlxmatrix/config"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/health"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/natsclient"
	"github.com/c360/hlxmatrix/output/file"
	"github.com/c360/hlxmatrix/output/natspub"
	"github.com/c360/hlxmatrix/output/websocket"
)

// StackConfig selects the side services of one endpoint.
type StackConfig struct {
	// Name labels health reports and the NATS connection.
	Name string
	// Source is stamped into event envelopes.
	Source    string
	NATS      config.NATSConfig
	Metrics   config.MetricsConfig
	WebSocket config.WebSocketConfig
	Journal   config.JournalConfig
}

// Stack is a Manager preloaded with the configured side services.
type Stack struct {
	*Manager

	name      string
	Registry  *metric.MetricsRegistry
	Metrics   *metric.Metrics
	NATS      *natsclient.Client
	WebSocket *websocket.Output
	handlers  []event.Handler
}

// NewStack builds the services named by cfg without starting them.
func NewStack(cfg StackConfig, logger *slog.Logger) (*Stack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registry := metric.NewMetricsRegistry()
	s := &Stack{
		Manager:  NewManager(logger),
		name:     cfg.Name,
		Registry: registry,
		Metrics:  registry.CoreMetrics(),
	}

	if cfg.Metrics.Port > 0 {
		srv := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry, func() health.Status {
			return s.Health(cfg.Name)
		})
		s.Add(metricsService(srv, s.Monitor(), logger))
	}

	if cfg.NATS.Enabled() {
		opts := []natsclient.ClientOption{
			natsclient.WithLogger(logger),
			natsclient.WithMetrics(s.Metrics),
			natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
			natsclient.WithHealthChangeCallback(func(healthy bool) {
				if healthy {
					s.Monitor().UpdateHealthy("nats", "connected")
				} else {
					s.Monitor().UpdateDegraded("nats", "reconnecting")
				}
			}),
		}
		if cfg.NATS.ReconnectWait > 0 {
			opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait))
		}
		name := cfg.NATS.Name
		if name == "" {
			name = cfg.Name
		}
		if name != "" {
			opts = append(opts, natsclient.WithName(name))
		}
		if cfg.NATS.Username != "" {
			opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
		}
		if cfg.NATS.Token != "" {
			opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
		}
		nc, err := natsclient.NewClient(cfg.NATS.URL, opts...)
		if err != nil {
			return nil, err
		}
		s.NATS = nc
		s.Add(Func("nats", nc.Connect, func(timeout time.Duration) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return nc.Close(ctx)
		}))

		sink := natspub.New(nc, natspub.Config{SubjectPrefix: cfg.NATS.SubjectPrefix, Source: cfg.Source},
			natspub.WithLogger(logger), natspub.WithMetrics(s.Metrics, registry))
		s.Add(Named("natspub", sink))
		s.handlers = append(s.handlers, sink.Handle)
	}

	if cfg.WebSocket.Enabled() {
		out := websocket.New(websocket.Config{
			Addr:      cfg.WebSocket.Addr,
			Path:      cfg.WebSocket.Path,
			SendQueue: cfg.WebSocket.SendQueue,
			Source:    cfg.Source,
		}, websocket.WithLogger(logger), websocket.WithMetrics(s.Metrics, registry))
		s.WebSocket = out
		s.Add(Named("websocket", out))
		s.handlers = append(s.handlers, out.Handle)
	}

	if cfg.Journal.Enabled() {
		j := file.New(file.Config{
			Path:          cfg.Journal.Path,
			Append:        cfg.Journal.Append,
			BufferSize:    cfg.Journal.BufferSize,
			FlushInterval: cfg.Journal.FlushInterval,
			Source:        cfg.Source,
		}, file.WithLogger(logger), file.WithMetrics(s.Metrics))
		s.Add(Named("journal", j))
		s.handlers = append(s.handlers, j.Handle)
	}
	return s, nil
}

// Handle delivers e to every configured sink. Sinks never block.
func (s *Stack) Handle(e event.Event) {
	for _, h := range s.handlers {
		h(e)
	}
}

// Sinks reports how many event sinks are configured.
func (s *Stack) Sinks() int { return len(s.handlers) }

func metricsService(srv *metric.Server, monitor *health.Monitor, logger *slog.Logger) Service {
	return Func("metrics",
		func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("Metrics server failed", "error", err)
					monitor.Update("metrics", health.FromError("metrics", err))
				}
			}()
			logger.Info("Serving metrics", "address", srv.Address())
			return nil
		},
		func(time.Duration) error { return srv.Stop() })
}
