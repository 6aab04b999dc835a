package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"abcretail/internal/platform/config"
)

// rootOptions holds the flags every subcommand shares.
type rootOptions struct {
	configPath string
	cfg        config.Server
	// registerer receives the process metrics; nil means the default
	// registry served on /metrics.
	registerer prometheus.Registerer
}

func (o *rootOptions) newApp(ctx context.Context) (*app, error) {
	return newApp(ctx, o.cfg, o.registerer)
}

func newRootCommand() *cobra.Command {
	return newRootCommandWith(&rootOptions{})
}

func newRootCommandWith(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "abcretail",
		Short:        "ABC Retail back office",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file; environment variables override it")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newWorkerCommand(opts))
	cmd.AddCommand(newArchiveCommand(opts))
	cmd.AddCommand(newArchivesCommand(opts))
	return cmd
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
