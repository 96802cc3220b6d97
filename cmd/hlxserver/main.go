// Command hlxserver simulates an HLX matrix: it serves the control
// protocol on TCP, keeps the device state in memory and backs it up to
// NATS KV when NATS is configured.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
)

// Build information.
const (
	Version = "0.1.0"
	appName = "hlxserver"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("Server failed", "error", err, "exit_code", 1)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &cliFlags{}
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Simulate an HLX audio matrix on the control protocol",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd.Flags())
			if err != nil {
				return err
			}
			if flags.validate {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
				return nil
			}
			logger := setupLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			slog.SetDefault(logger)
			return run(cmd.Context(), cfg, flags.shutdownTimeout, logger)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}
