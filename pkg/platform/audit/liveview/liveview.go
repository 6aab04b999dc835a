// Package liveview reads the audit queue without consuming it. Nothing here
// leases or deletes messages, so the archiver still sees every event.
package liveview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	audit "abcretail/pkg/platform/audit"
	"abcretail/pkg/platform/audit/archive"
	"abcretail/pkg/platform/queue"
)

// DefaultLimit is the number of events Recent returns when asked for none.
const DefaultLimit = queue.MaxBatch

// ErrNoFileStore is returned by Snapshot when the view has no file store.
var ErrNoFileStore = errors.New("liveview: no file store configured")

// Source peeks decoded audit messages. *queue.Typed[audit.Event] satisfies it.
type Source interface {
	Peek(ctx context.Context, max int) ([]queue.Delivery[audit.Event], error)
}

// View is the non-destructive read path over the audit queue.
type View struct {
	source Source
	files  *archive.FileStore
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a View.
type Option func(*View)

// WithFileStore enables Snapshot.
func WithFileStore(files *archive.FileStore) Option {
	return func(v *View) { v.files = files }
}

// WithLocation sets the zone used when rendering timestamps.
func WithLocation(loc *time.Location) Option {
	return func(v *View) {
		if loc != nil {
			v.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *View) {
		if now != nil {
			v.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *View) {
		if logger != nil {
			v.logger = logger
		}
	}
}

func New(source Source, opts ...Option) *View {
	v := &View{
		source: source,
		loc:    time.UTC,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Recent returns up to limit records from the head of the audit queue, in
// queue order. limit <= 0 means DefaultLimit; larger values are capped.
func (v *View) Recent(ctx context.Context, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ds, err := v.source.Peek(ctx, queue.ClampBatch(limit))
	if err != nil {
		return nil, fmt.Errorf("peek audit queue: %w", err)
	}
	records := audit.RecordsOf(ds)
	for _, r := range records {
		if !r.Parsed() {
			v.logger.WarnContext(ctx, "undecodable audit message in live view", "message_id", r.MessageID)
		}
	}
	return records, nil
}

// ExportCSV writes the current live view as CSV.
func (v *View) ExportCSV(ctx context.Context, w io.Writer, limit int) error {
	records, err := v.Recent(ctx, limit)
	if err != nil {
		return err
	}
	enc, err := archive.NewEncoder(archive.FormatCSV, v.loc)
	if err != nil {
		return err
	}
	return enc.Encode(w, records)
}

// Snapshot writes the current live view to a new archive file. The queue is
// left untouched.
func (v *View) Snapshot(ctx context.Context, format archive.Format) (archive.File, error) {
	if v.files == nil {
		return archive.File{}, ErrNoFileStore
	}
	records, err := v.Recent(ctx, DefaultLimit)
	if err != nil {
		return archive.File{}, err
	}
	enc, err := archive.NewEncoder(format, v.loc)
	if err != nil {
		return archive.File{}, err
	}
	f, err := v.files.Save(ctx, enc, records, v.now())
	if err != nil {
		return archive.File{}, err
	}
	v.logger.InfoContext(ctx, "audit live view exported", "file", f.Name, "rows", len(records))
	return f, nil
}
