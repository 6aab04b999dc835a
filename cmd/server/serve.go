package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	audithandler "abcretail/internal/audit/handler"
	cataloghandler "abcretail/internal/catalog/handler"
	orderhandler "abcretail/internal/order/handler"
	"abcretail/internal/platform/httpserver"
	httptransport "abcretail/internal/transport/http"
	"abcretail/pkg/platform/audit/archive"
)

const shutdownGrace = 10 * time.Second

type serveOptions struct {
	*rootOptions
	withWorker   bool
	withArchiver bool
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the orders, catalog and audit HTTP API.

With in-memory queues (no REDIS_URL) the order worker and the audit
archiver always run in the same process, since nothing else can see
the queues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return runServe(ctx, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.withWorker, "with-worker", false, "also run the order worker")
	cmd.Flags().BoolVar(&opts.withArchiver, "with-archiver", false, "also run the audit archiver")
	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	a, err := opts.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.inMemoryQueues() {
		opts.withWorker, opts.withArchiver = true, true
		a.logger.InfoContext(ctx, "in-memory queues, running worker and archiver in-process")
	}

	router := httptransport.NewRouter(a.logger, a.healthChecks(),
		orderhandler.New(a.orderService(), a.logger, a.metrics),
		cataloghandler.New(a.catalogService(), a.logger, a.metrics),
		audithandler.New(a.liveView(), a.files(), archive.Format(a.cfg.Archive.Format), a.logger, a.metrics),
	)
	srv := httpserver.New(a.cfg.Addr, router)

	var runners []func(context.Context) error
	if opts.withWorker {
		runners = append(runners, a.poller().Run)
	}
	if opts.withArchiver {
		arch, err := a.archiver()
		if err != nil {
			return err
		}
		runners = append(runners, arch.Run)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.InfoContext(ctx, "starting abcretail", "addr", a.cfg.Addr)
		if err := httpserver.Run(ctx, srv, shutdownGrace); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	for _, run := range runners {
		g.Go(func() error { return run(ctx) })
	}
	return g.Wait()
}
