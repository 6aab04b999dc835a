// Package queue defines the at-least-once message channel shared by the order
// pipeline and the audit pipeline.
//
// A channel supports two read paths. Peek is non-destructive: it never changes
// visibility or dequeue counts. Receive leases messages: they stay hidden for
// the lease duration and reappear, with an incremented dequeue count, unless
// deleted with the lease token before the lease elapses.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// MaxBatch bounds Peek and Receive.
	MaxBatch = 32
	// DefaultLease is how long received messages stay hidden.
	DefaultLease = 30 * time.Second
)

// Channel names used by the application.
const (
	OrderQueue       = "order-queue"
	OrderPoisonQueue = "order-queue-poison"
	AuditQueue       = "audit-queue"
)

// ErrDecode marks a message body that could not be decoded.
var ErrDecode = errors.New("queue: decode")

// Message is one delivered or peeked message. LeaseToken and LeaseExpiresAt
// are only set by Receive.
type Message struct {
	ID             string
	Body           string
	InsertedAt     time.Time
	DequeueCount   int
	LeaseToken     string
	LeaseExpiresAt time.Time
}

// MessageID formats the id of the seq-th message appended in epoch. The
// zero-padded sequence keeps ids of one epoch in append order.
func MessageID(seq int64, epoch string) string {
	return fmt.Sprintf("%020d-%s", seq, epoch)
}

// Channel is a named FIFO-ish queue with leases. Implementations are safe for
// concurrent use; concurrent Receive calls never hand out the same message
// while its lease is live.
type Channel interface {
	Name() string
	// Append adds body and returns its message id. Ids are never reused, not
	// even after the backing state is lost, because consumers record them as
	// dedup keys.
	Append(ctx context.Context, body string) (string, error)
	// Peek returns up to max visible messages without leasing them.
	Peek(ctx context.Context, max int) ([]Message, error)
	// Receive leases up to max visible messages.
	Receive(ctx context.Context, max int) ([]Message, error)
	// Delete acknowledges a received message. It returns sentinel.ErrExpired
	// when the lease elapsed or the token is stale, sentinel.ErrNotFound when
	// the message is gone.
	Delete(ctx context.Context, id, leaseToken string) error
}

// ClampBatch limits n to [1, MaxBatch].
func ClampBatch(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxBatch {
		return MaxBatch
	}
	return n
}
