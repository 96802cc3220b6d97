package main

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/hlxmatrix/backup"
	"github.com/c360/hlxmatrix/config"
	"github.com/c360/hlxmatrix/discovery"
	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/natsclient"
	"github.com/c360/hlxmatrix/pkg/loop"
	"github.com/c360/hlxmatrix/server"
	"github.com/c360/hlxmatrix/service"
	"github.com/c360/hlxmatrix/transport"
)

const kvTimeout = 5 * time.Second

func run(ctx context.Context, cfg *config.ServerConfig, shutdownTimeout time.Duration, logger *slog.Logger) error {
	source := cfg.Discovery.Instance
	if source == "" {
		source = cfg.Listen
	}
	stack, err := service.NewStack(service.StackConfig{
		Name:      appName,
		Source:    source,
		NATS:      cfg.NATS,
		Metrics:   cfg.Metrics,
		WebSocket: cfg.WebSocket,
		Journal:   cfg.Journal,
	}, logger)
	if err != nil {
		return err
	}
	if err := stack.StartAll(ctx); err != nil {
		return err
	}
	defer func() {
		if err := stack.StopAll(shutdownTimeout); err != nil {
			logger.Warn("Shutdown incomplete", "error", err)
		}
	}()

	store, err := backupStore(ctx, stack.NATS, cfg.NATS, logger)
	if err != nil {
		return err
	}

	m := model.New()
	if err := cfg.Names.Seed(m); err != nil {
		return errors.WrapInvalid(err, appName, "run", "seed names")
	}

	app, err := server.New(server.Deps{
		Logger:          logger,
		Metrics:         stack.Metrics,
		Backup:          store,
		BackupTimeout:   cfg.BackupTimeout,
		MaxFrame:        cfg.MaxFrame,
		EgressCapacity:  cfg.EgressCapacity,
		EgressWatermark: cfg.EgressWatermark,
		Model:           m,
	})
	if err != nil {
		return err
	}
	app.Subscribe(stack.Handle)

	ln, err := transport.Listen(ctx, cfg.Listen,
		transport.WithLogger(logger),
		transport.WithMetrics(stack.Metrics, metric.EndpointServer))
	if err != nil {
		return err
	}
	stack.Monitor().UpdateHealthy("listener", "accepting")

	if cfg.Discovery.Enabled {
		port := 0
		if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
			port = tcp.Port
		}
		adv, err := discovery.Advertise(cfg.Discovery.Instance, port, map[string]string{
			"version": Version,
			"zones":   strconv.Itoa(model.MaxZones),
		}, logger)
		if err != nil {
			logger.Warn("mDNS advertisement unavailable", "error", err)
		} else {
			defer adv.Shutdown()
		}
	}

	logger.Info("Server ready", "listen", ln.Addr().String(), "sinks", stack.Sinks())
	return server.NewHost(app, loop.New(logger), logger).Run(ctx, ln)
}

// backupStore uses NATS KV when connected and memory otherwise.
func backupStore(ctx context.Context, nc *natsclient.Client, cfg config.NATSConfig, logger *slog.Logger) (backup.Store, error) {
	if nc == nil {
		logger.Info("Configuration backup kept in memory")
		return backup.NewMemoryStore(), nil
	}
	bucket, err := nc.KeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.BackupBucket,
		Description: "HLX configuration backup",
		History:     5,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Configuration backup kept in NATS KV", "bucket", cfg.BackupBucket)
	return backup.NewKVStore(natsclient.NewKVStore(bucket, kvTimeout, logger), cfg.BackupKey, logger), nil
}
