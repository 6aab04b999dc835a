package main

import (
	"github.com/spf13/cobra"
)

func newWorkerCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Apply queued order commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := root.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if a.inMemoryQueues() {
				a.logger.WarnContext(ctx, "worker started without REDIS_URL; it only sees its own in-memory queue")
			}
			return a.poller().Run(ctx)
		},
	}
}
