// Package worker applies order commands from the order queue to the entity
// store. Delivery is at least once: every command runs inside
// Store.ApplyOnce keyed by its message id, so a redelivered message whose
// write already committed is not applied twice.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"abcretail/internal/domain"
	"abcretail/internal/order/command"
	audit "abcretail/pkg/platform/audit"
	"abcretail/pkg/platform/queue"
	"abcretail/pkg/platform/sentinel"
	"abcretail/pkg/requestcontext"
)

//go:generate mockgen -source=consumer.go -destination=mocks/mocks.go -package=mocks Queue Orders Deduper PoisonQueue Metrics

// DefaultMaxDequeueCount is how many deliveries a failing command gets before
// it is moved to the poison queue.
const DefaultMaxDequeueCount = 5

// Queue is the typed order queue.
type Queue interface {
	Receive(ctx context.Context, max int) ([]queue.Delivery[command.Command], error)
	Delete(ctx context.Context, d queue.Delivery[command.Command]) error
}

// Orders is the order table.
type Orders interface {
	Get(ctx context.Context, rowKey string) (*domain.Order, error)
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) (*domain.Order, error)
	Replace(ctx context.Context, o *domain.Order) (*domain.Order, error)
	Delete(ctx context.Context, rowKey string) error
}

// Deduper records processed message ids together with the write they guard.
type Deduper interface {
	ApplyOnce(ctx context.Context, dedupKey string, fn func(ctx context.Context) error) (bool, error)
}

// PoisonQueue receives the raw body of commands that keep failing.
type PoisonQueue interface {
	Append(ctx context.Context, body string) (string, error)
}

// Metrics counts command outcomes.
type Metrics interface {
	IncCommandsProcessed(action, outcome string)
	IncCommandsFailed()
	IncCommandsDropped()
	IncCommandsPoisoned()
}

// Consumer handles one delivered command at a time and is safe for concurrent use.
type Consumer struct {
	queue      Queue
	orders     Orders
	dedup      Deduper
	poison     PoisonQueue
	audit      audit.Emitter
	metrics    Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	maxDequeue int
}

type ConsumerOption func(*Consumer)

func WithPoisonQueue(p PoisonQueue) ConsumerOption {
	return func(c *Consumer) { c.poison = p }
}

func WithMetrics(m Metrics) ConsumerOption {
	return func(c *Consumer) { c.metrics = m }
}

func WithLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxDequeueCount sets the poison threshold.
func WithMaxDequeueCount(n int) ConsumerOption {
	return func(c *Consumer) {
		if n > 0 {
			c.maxDequeue = n
		}
	}
}

func NewConsumer(q Queue, orders Orders, dedup Deduper, emitter audit.Emitter, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		queue:      q,
		orders:     orders,
		dedup:      dedup,
		audit:      emitter,
		logger:     slog.Default(),
		tracer:     otel.Tracer("abcretail/internal/order/worker"),
		maxDequeue: DefaultMaxDequeueCount,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DedupKey is the key recorded for a processed order-queue message.
func DedupKey(messageID string) string {
	return queue.OrderQueue + ":" + messageID
}

var rowKeyNamespace = uuid.MustParse("3c9a6f1e-7b52-4d0e-a8c4-51f2e0d9b6a7")

// withRowKey gives a keyless create a row key derived from its message id, so
// every redelivery of that message targets the same order.
func withRowKey(cmd command.Command, messageID string) command.Command {
	create, ok := cmd.(command.CreateOrder)
	if !ok || create.Order.RowKey != "" {
		return cmd
	}
	create.Order.RowKey = uuid.NewSHA1(rowKeyNamespace, []byte(DedupKey(messageID))).String()
	return create
}

// Handle processes d. It returns an error when d is left on the queue for
// redelivery.
func (c *Consumer) Handle(ctx context.Context, d queue.Delivery[command.Command]) error {
	ctx, span := c.tracer.Start(ctx, "order.command.handle", trace.WithAttributes(
		attribute.String("messaging.message.id", d.ID),
		attribute.Int("messaging.dequeue_count", d.DequeueCount),
	))
	defer span.End()
	ctx = requestcontext.WithTime(requestcontext.WithMessageID(ctx, d.ID), time.Now())

	if d.DecodeErr != nil {
		c.logger.WarnContext(ctx, "dropping undecodable order command",
			"message_id", d.ID,
			"dequeue_count", d.DequeueCount,
			"error", d.DecodeErr,
		)
		c.incDropped()
		span.SetStatus(codes.Error, "decode")
		c.ack(ctx, d)
		return nil
	}

	cmd := withRowKey(d.Value, d.ID)
	span.SetAttributes(
		attribute.String("order.action", string(cmd.Action())),
		attribute.String("order.row_key", cmd.RowKey()),
	)

	applied, err := c.dedup.ApplyOnce(ctx, DedupKey(d.ID), func(ctx context.Context) error {
		return c.dispatch(ctx, cmd)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply")
		return c.fail(ctx, d, err)
	}
	if !applied {
		c.logger.InfoContext(ctx, "order command already applied",
			"message_id", d.ID,
			"action", string(cmd.Action()),
			"row_key", cmd.RowKey(),
		)
	}

	if err := c.audit.Emit(ctx, EventFor(cmd)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit")
		return c.fail(ctx, d, fmt.Errorf("emit audit: %w", err))
	}

	c.ack(ctx, d)
	outcome := "applied"
	if !applied {
		outcome = "duplicate"
	}
	if c.metrics != nil {
		c.metrics.IncCommandsProcessed(string(cmd.Action()), outcome)
	}
	c.logger.InfoContext(ctx, "order command processed",
		"message_id", d.ID,
		"action", string(cmd.Action()),
		"row_key", cmd.RowKey(),
		"outcome", outcome,
	)
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, cmd command.Command) error {
	switch cmd := cmd.(type) {
	case command.CreateOrder:
		order := cmd.Order.WithDefaults()
		order.ETag = ""
		if order.OrderDate.IsZero() {
			order.OrderDate = requestcontext.Now(ctx).UTC()
		}
		_, err := c.orders.Create(ctx, &order)
		return err
	case command.UpdateOrder:
		order := cmd.Order.WithDefaults()
		if order.OrderDate.IsZero() {
			current, err := c.orders.Get(ctx, order.RowKey)
			if err != nil {
				return err
			}
			order.OrderDate = current.OrderDate
		}
		if cmd.IfMatch == command.IfMatchAny {
			_, err := c.orders.Replace(ctx, &order)
			return err
		}
		order.ETag = cmd.IfMatch
		_, err := c.orders.Update(ctx, &order)
		return err
	case command.DeleteOrder:
		return c.orders.Delete(ctx, cmd.Key)
	default:
		return fmt.Errorf("unhandled order command %T", cmd)
	}
}

// fail leaves d for redelivery, or moves it to the poison queue once it has
// been delivered maxDequeue times. Apply and audit failures both end here.
func (c *Consumer) fail(ctx context.Context, d queue.Delivery[command.Command], cause error) error {
	c.incFailed()
	c.logger.ErrorContext(ctx, "order command failed",
		"message_id", d.ID,
		"action", string(d.Value.Action()),
		"row_key", d.Value.RowKey(),
		"dequeue_count", d.DequeueCount,
		"conflict", errors.Is(cause, sentinel.ErrConflict),
		"error", cause,
	)
	if c.poison == nil || d.DequeueCount < c.maxDequeue {
		return fmt.Errorf("handle message %s: %w", d.ID, cause)
	}
	if _, err := c.poison.Append(ctx, d.Body); err != nil {
		c.logger.ErrorContext(ctx, "failed to move order command to poison queue",
			"message_id", d.ID,
			"error", err,
		)
		return fmt.Errorf("poison message %s: %w", d.ID, err)
	}
	if c.metrics != nil {
		c.metrics.IncCommandsPoisoned()
	}
	c.logger.WarnContext(ctx, "order command moved to poison queue",
		"message_id", d.ID,
		"dequeue_count", d.DequeueCount,
	)
	c.ack(ctx, d)
	return nil
}

// ack deletes d. An elapsed lease is logged only: the message will be
// redelivered and the dedup key stops it being applied again.
func (c *Consumer) ack(ctx context.Context, d queue.Delivery[command.Command]) {
	err := c.queue.Delete(ctx, d)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrExpired):
		c.logger.WarnContext(ctx, "lease expired before acknowledgement",
			"message_id", d.ID,
		)
	default:
		c.logger.ErrorContext(ctx, "failed to delete order command",
			"message_id", d.ID,
			"error", err,
		)
	}
}

func (c *Consumer) incFailed() {
	if c.metrics != nil {
		c.metrics.IncCommandsFailed()
	}
}

func (c *Consumer) incDropped() {
	if c.metrics != nil {
		c.metrics.IncCommandsDropped()
	}
}

// EventFor builds the audit event recorded for cmd.
func EventFor(cmd command.Command) audit.Event {
	event := audit.Event{Entity: audit.EntityOrder, ID: cmd.RowKey()}
	switch cmd := cmd.(type) {
	case command.CreateOrder:
		event.Action = audit.ActionCreate
		event.Name = "Order for customer " + cmd.Order.CustomerID
	case command.UpdateOrder:
		event.Action = audit.ActionUpdate
		event.Name = "Order for customer " + cmd.Order.CustomerID
	case command.DeleteOrder:
		event.Action = audit.ActionDelete
		event.Name = "Deleted Order"
	}
	return event
}
