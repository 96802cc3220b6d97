package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360/hlxmatrix/client"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/service"
)

const stopTimeout = 5 * time.Second

func newWatchCommand(c *cli) *cobra.Command {
	var reconnect time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream state changes as JSON lines and to the configured sinks",
		Long: `Watch connects, queries the full state and then prints one JSON
envelope per change. When NATS or a WebSocket address is configured the
same envelopes are published there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("reconnect") {
				c.cfg.Reconnect = reconnect
			}
			return c.watch(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&reconnect, "reconnect", 0, "Delay between reconnect attempts, 0 to exit on disconnect")
	return cmd
}

func (c *cli) watch(ctx context.Context, out io.Writer) error {
	addr, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	stack, err := service.NewStack(service.StackConfig{
		Name:      appName,
		Source:    addr,
		NATS:      c.cfg.NATS,
		Metrics:   c.cfg.Metrics,
		WebSocket: c.cfg.WebSocket,
		Journal:   c.cfg.Journal,
	}, c.logger)
	if err != nil {
		return err
	}
	if err := stack.StartAll(ctx); err != nil {
		return err
	}
	defer func() {
		if err := stack.StopAll(stopTimeout); err != nil {
			c.logger.Warn("Shutdown incomplete", "error", err)
		}
	}()

	opts := []client.RunnerOption{
		client.WithOnConnect(func(a *client.Application) error {
			_, err := a.Configuration().QueryCurrent()
			return err
		}),
	}
	if c.cfg.Reconnect > 0 {
		opts = append(opts, client.WithReconnect(c.cfg.Reconnect))
	}
	s, err := c.newSession(addr, stack.Metrics, opts...)
	if err != nil {
		return err
	}
	s.app.Subscribe(printer(out, addr, c))
	s.app.Subscribe(stack.Handle)

	s.start(ctx)
	select {
	case <-ctx.Done():
		return s.close()
	case <-s.done:
		return s.err
	}
}

// printer writes external events to out as JSON lines.
func printer(out io.Writer, source string, c *cli) event.Handler {
	var mu sync.Mutex
	return func(e event.Event) {
		if e.Kind().Internal() {
			return
		}
		data, err := event.Marshal(e, source, time.Now())
		if err != nil {
			c.logger.Warn("Failed to encode event", "kind", e.Kind().String(), "error", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintln(out, string(data))
	}
}
