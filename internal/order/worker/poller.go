package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"abcretail/internal/order/command"
	"abcretail/pkg/platform/queue"
)

//go:generate mockgen -source=poller.go -destination=mocks/poller_mocks.go -package=mocks Handler

// Handler processes one delivered command.
type Handler interface {
	Handle(ctx context.Context, d queue.Delivery[command.Command]) error
}

// Poller receives batches from the order queue and hands each delivery to a
// Handler, running at most Concurrency handlers at once.
type Poller struct {
	queue       Queue
	handler     Handler
	logger      *slog.Logger
	batch       int
	concurrency int
	interval    time.Duration
}

type PollerOption func(*Poller)

func WithBatchSize(n int) PollerOption {
	return func(p *Poller) { p.batch = queue.ClampBatch(n) }
}

func WithConcurrency(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPollInterval sets how long the poller sleeps after an empty receive.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPoller(q Queue, h Handler, opts ...PollerOption) *Poller {
	p := &Poller{
		queue:       q,
		handler:     h,
		logger:      slog.Default(),
		batch:       queue.MaxBatch,
		concurrency: 4,
		interval:    time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "order worker started",
		"batch", p.batch,
		"concurrency", p.concurrency,
		"poll_interval", p.interval.String(),
	)
	for {
		n, err := p.PollOnce(ctx)
		if ctx.Err() != nil {
			p.logger.InfoContext(ctx, "order worker stopped")
			return nil
		}
		if err != nil {
			p.logger.ErrorContext(ctx, "order queue receive failed", "error", err)
		}
		if n > 0 && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "order worker stopped")
			return nil
		case <-time.After(p.interval):
		}
	}
}

// PollOnce receives one batch, handles it and returns how many deliveries it
// saw. Handler failures are logged; they never fail the batch.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	ds, err := p.queue.Receive(ctx, p.batch)
	if err != nil {
		return 0, err
	}
	if len(ds) == 0 {
		return 0, nil
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, d := range ds {
		g.Go(func() error {
			if err := p.handler.Handle(ctx, d); err != nil {
				p.logger.WarnContext(ctx, "order command left for redelivery",
					"message_id", d.ID,
					"dequeue_count", d.DequeueCount,
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	return len(ds), nil
}
