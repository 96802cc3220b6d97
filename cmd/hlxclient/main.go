// Command hlxclient controls an HLX matrix from the command line and can
// mirror its events to NATS and WebSocket subscribers.
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

	"github.com/c360/hlxmatrix/config"
)

// Build information.
const (
	Version = "0.1.0"
	appName = "hlxclient"
)

// cli carries state resolved by the root command for its subcommands.
type cli struct {
	flags  globalFlags
	cfg    *config.ClientConfig
	logger *slog.Logger
}

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
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           appName,
		Short:         "Control an HLX audio matrix",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.flags.load(cmd.Flags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = setupLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			slog.SetDefault(c.logger)
			return nil
		},
	}
	c.flags.register(root.PersistentFlags())

	root.AddCommand(
		newQueryCommand(c),
		newZoneCommand(c),
		newGroupCommand(c),
		newBackupCommand(c, "save", "Save the current configuration to the backup"),
		newBackupCommand(c, "load", "Restore the configuration from the backup"),
		newBackupCommand(c, "reset", "Reset the configuration to factory defaults"),
		newDiscoverCommand(c),
		newWatchCommand(c),
	)
	return root
}
