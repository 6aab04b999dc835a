// Package publisher emits audit events onto the audit queue. Emit returns only
// after the append, so a caller that acknowledges work after Emit never
// acknowledges an event that was not recorded.
package publisher

import (
	"context"
	"log/slog"
	"time"

	audit "abcretail/pkg/platform/audit"
	"abcretail/pkg/platform/queue"
	"abcretail/pkg/requestcontext"
)

// Metrics receives emit outcomes.
type Metrics interface {
	IncAuditEmitted(entity, action string)
	IncAuditEmitFailures()
}

// Publisher appends audit events to a typed audit channel.
type Publisher struct {
	queue   *queue.Typed[audit.Event]
	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithClock sets the clock used to stamp events without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPublisher creates a publisher over q.
func NewPublisher(q *queue.Typed[audit.Event], opts ...Option) *Publisher {
	p := &Publisher{
		queue:  q,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ audit.Emitter = (*Publisher)(nil)

// Emit publishes event. A zero Timestamp is set to the clock, or to the
// request time carried by ctx when no clock was given.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
		if p.now != nil {
			event.Timestamp = p.now()
		}
	}
	id, err := p.queue.Append(ctx, event)
	if err != nil {
		if p.metrics != nil {
			p.metrics.IncAuditEmitFailures()
		}
		p.logger.ErrorContext(ctx, "failed to emit audit event",
			"entity", event.Entity,
			"action", event.Action,
			"id", event.ID,
			"request_id", requestcontext.RequestID(ctx),
			"source_message_id", requestcontext.MessageID(ctx),
			"error", err,
		)
		return err
	}
	if p.metrics != nil {
		p.metrics.IncAuditEmitted(event.Entity, event.Action)
	}
	p.logger.DebugContext(ctx, "audit event emitted",
		"message_id", id,
		"entity", event.Entity,
		"action", event.Action,
		"id", event.ID,
	)
	return nil
}
