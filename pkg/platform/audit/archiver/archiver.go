// Package archiver drains the audit queue into archive files on a timer.
//
// Each run receives one batch, writes it as a single file and deletes the
// archived messages. With PersistFirst (the default) a failed write leaves the
// batch on the queue for the next run, so rows may be archived twice but are
// never lost. DeleteFirst acknowledges before writing and loses the batch if
// the write fails.
package archiver

//go:generate mockgen -source=archiver.go -destination=mocks/mocks.go -package=mocks Files Sink Metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	audit "abcretail/pkg/platform/audit"
	"abcretail/pkg/platform/audit/archive"
	"abcretail/pkg/platform/queue"
	"abcretail/pkg/platform/sentinel"
)

// DefaultInterval is how often Run archives.
const DefaultInterval = 5 * time.Minute

// Strategy orders persistence and acknowledgement.
type Strategy string

const (
	PersistFirst Strategy = "persist-first"
	DeleteFirst  Strategy = "delete-first"
)

// ParseStrategy maps a configuration value to a Strategy. Empty means
// PersistFirst.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", PersistFirst:
		return PersistFirst, nil
	case DeleteFirst:
		return DeleteFirst, nil
	default:
		return "", fmt.Errorf("unknown archive strategy %q", s)
	}
}

// ErrPersist marks a batch that could not be written.
var ErrPersist = errors.New("archiver: persist")

// Run results reported to Metrics.
const (
	ResultEmpty    = "empty"
	ResultArchived = "archived"
	ResultFailed   = "failed"
)

// Queue is the leased read path of the audit queue.
type Queue interface {
	Receive(ctx context.Context, max int) ([]queue.Delivery[audit.Event], error)
	Delete(ctx context.Context, d queue.Delivery[audit.Event]) error
}

// Files stores archive files. *archive.FileStore satisfies it.
type Files interface {
	Save(ctx context.Context, enc archive.Encoder, records []audit.Record, at time.Time) (archive.File, error)
}

// Sink mirrors archived records somewhere else. Failures never fail a run.
type Sink interface {
	Publish(ctx context.Context, records []audit.Record) error
}

type Metrics interface {
	ObserveArchiveRun(result string, rows int, start time.Time)
}

// Result summarises one run.
type Result struct {
	Records        int
	File           string
	Deleted        int
	DeleteFailures int
}

// Archiver moves audit events from the queue into archive files.
type Archiver struct {
	queue    Queue
	files    Files
	encoder  archive.Encoder
	strategy Strategy
	interval time.Duration
	sink     Sink
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time
	tracer   trace.Tracer
}

// Option configures an Archiver.
type Option func(*Archiver)

func WithStrategy(s Strategy) Option {
	return func(a *Archiver) {
		if s != "" {
			a.strategy = s
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(a *Archiver) {
		if d > 0 {
			a.interval = d
		}
	}
}

func WithSink(s Sink) Option {
	return func(a *Archiver) { a.sink = s }
}

func WithMetrics(m Metrics) Option {
	return func(a *Archiver) { a.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Archiver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Archiver) {
		if now != nil {
			a.now = now
		}
	}
}

func New(q Queue, files Files, enc archive.Encoder, opts ...Option) *Archiver {
	a := &Archiver{
		queue:    q,
		files:    files,
		encoder:  enc,
		strategy: PersistFirst,
		interval: DefaultInterval,
		logger:   slog.Default(),
		now:      time.Now,
		tracer:   otel.Tracer("abcretail/pkg/platform/audit/archiver"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run archives every interval until ctx is cancelled. Failed runs are logged
// and retried on the next tick.
func (a *Archiver) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "audit archiver started",
		"interval", a.interval.String(),
		"strategy", string(a.strategy),
		"format", a.encoder.Ext(),
	)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.logger.InfoContext(ctx, "audit archiver stopped")
			return nil
		case <-ticker.C:
			if _, err := a.RunOnce(ctx); err != nil && ctx.Err() == nil {
				a.logger.ErrorContext(ctx, "audit archive run failed", "error", err)
			}
		}
	}
}

// RunOnce archives a single batch. An empty queue writes no file.
func (a *Archiver) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "audit.archive.run", trace.WithAttributes(
		attribute.String("archive.strategy", string(a.strategy)),
	))
	defer span.End()

	ds, err := a.queue.Receive(ctx, queue.MaxBatch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "receive")
		a.observe(ResultFailed, 0, start)
		return Result{}, fmt.Errorf("receive audit batch: %w", err)
	}
	if len(ds) == 0 {
		a.observe(ResultEmpty, 0, start)
		return Result{}, nil
	}

	records := audit.RecordsOf(ds)
	for _, r := range records {
		if !r.Parsed() {
			a.logger.WarnContext(ctx, "archiving undecodable audit message", "message_id", r.MessageID)
		}
	}
	span.SetAttributes(attribute.Int("archive.records", len(records)))
	res := Result{Records: len(records)}

	if a.strategy == DeleteFirst {
		res.Deleted, res.DeleteFailures = a.deleteAll(ctx, ds)
	}

	f, err := a.files.Save(ctx, a.encoder, records, a.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist")
		a.observe(ResultFailed, 0, start)
		if a.strategy == DeleteFirst {
			a.logger.ErrorContext(ctx, "audit batch lost after acknowledgement",
				"records", len(records),
				"error", err,
			)
		}
		return res, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	res.File = f.Name

	if a.strategy == PersistFirst {
		res.Deleted, res.DeleteFailures = a.deleteAll(ctx, ds)
	}

	if a.sink != nil {
		if err := a.sink.Publish(ctx, records); err != nil {
			a.logger.WarnContext(ctx, "audit archive mirror failed", "file", f.Name, "error", err)
		}
	}

	a.observe(ResultArchived, len(records), start)
	a.logger.InfoContext(ctx, "audit batch archived",
		"file", f.Name,
		"records", res.Records,
		"deleted", res.Deleted,
	)
	return res, nil
}

// deleteAll acknowledges every delivery. A failed delete means the message
// comes back and is archived again.
func (a *Archiver) deleteAll(ctx context.Context, ds []queue.Delivery[audit.Event]) (deleted, failed int) {
	for _, d := range ds {
		if err := a.queue.Delete(ctx, d); err != nil {
			failed++
			level := slog.LevelError
			if errors.Is(err, sentinel.ErrExpired) {
				level = slog.LevelWarn
			}
			a.logger.Log(ctx, level, "failed to delete archived audit message",
				"message_id", d.ID,
				"error", err,
			)
			continue
		}
		deleted++
	}
	return deleted, failed
}

func (a *Archiver) observe(result string, rows int, start time.Time) {
	if a.metrics != nil {
		a.metrics.ObserveArchiveRun(result, rows, start)
	}
}
