// Package memory implements queue.Channel in process memory. Leases follow an
// injectable clock so tests can step past lease expiry.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"abcretail/pkg/platform/queue"
	"abcretail/pkg/platform/sentinel"
)

type entry struct {
	id           string
	body         string
	insertedAt   time.Time
	visibleAt    time.Time
	dequeueCount int
	leaseToken   string
}

// Channel is an in-memory queue.Channel.
type Channel struct {
	name  string
	lease time.Duration
	now   func() time.Time

	mu      sync.Mutex
	epoch   string
	seq     int64
	entries []*entry
}

// Option configures a Channel.
type Option func(*Channel)

// WithLease sets the receive lease duration.
func WithLease(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.lease = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty channel.
func New(name string, opts ...Option) *Channel {
	c := &Channel{name: name, lease: queue.DefaultLease, now: time.Now, epoch: uuid.NewString()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Channel) Name() string { return c.name }

func (c *Channel) Append(_ context.Context, body string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	now := c.now()
	e := &entry{
		id:         queue.MessageID(c.seq, c.epoch),
		body:       body,
		insertedAt: now,
		visibleAt:  now,
	}
	c.entries = append(c.entries, e)
	return e.id, nil
}

func (c *Channel) Peek(_ context.Context, max int) ([]queue.Message, error) {
	max = queue.ClampBatch(max)
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	out := make([]queue.Message, 0, max)
	for _, e := range c.entries {
		if len(out) == max {
			break
		}
		if e.visibleAt.After(now) {
			continue
		}
		out = append(out, queue.Message{
			ID:           e.id,
			Body:         e.body,
			InsertedAt:   e.insertedAt,
			DequeueCount: e.dequeueCount,
		})
	}
	return out, nil
}

func (c *Channel) Receive(_ context.Context, max int) ([]queue.Message, error) {
	max = queue.ClampBatch(max)
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	out := make([]queue.Message, 0, max)
	for _, e := range c.entries {
		if len(out) == max {
			break
		}
		if e.visibleAt.After(now) {
			continue
		}
		e.visibleAt = now.Add(c.lease)
		e.dequeueCount++
		e.leaseToken = uuid.NewString()
		out = append(out, queue.Message{
			ID:             e.id,
			Body:           e.body,
			InsertedAt:     e.insertedAt,
			DequeueCount:   e.dequeueCount,
			LeaseToken:     e.leaseToken,
			LeaseExpiresAt: e.visibleAt,
		})
	}
	return out, nil
}

func (c *Channel) Delete(_ context.Context, id, leaseToken string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.id != id {
			continue
		}
		if leaseToken == "" || e.leaseToken != leaseToken {
			return fmt.Errorf("message %s: stale lease: %w", id, sentinel.ErrExpired)
		}
		if !c.now().Before(e.visibleAt) {
			return fmt.Errorf("message %s: lease elapsed: %w", id, sentinel.ErrExpired)
		}
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
		return nil
	}
	return fmt.Errorf("message %s: %w", id, sentinel.ErrNotFound)
}

// Len returns the number of stored messages, visible or leased.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
