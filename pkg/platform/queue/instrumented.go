package queue

import (
	"context"
	"time"
)

// Observer receives per-operation latency.
type Observer interface {
	ObserveQueueOp(queue, op string, start time.Time)
}

type instrumented struct {
	Channel
	obs Observer
}

// Instrument reports the latency of every operation on ch to obs. A nil obs
// returns ch unchanged.
func Instrument(ch Channel, obs Observer) Channel {
	if obs == nil {
		return ch
	}
	return &instrumented{Channel: ch, obs: obs}
}

func (c *instrumented) Append(ctx context.Context, body string) (string, error) {
	defer c.obs.ObserveQueueOp(c.Name(), "append", time.Now())
	return c.Channel.Append(ctx, body)
}

func (c *instrumented) Peek(ctx context.Context, max int) ([]Message, error) {
	defer c.obs.ObserveQueueOp(c.Name(), "peek", time.Now())
	return c.Channel.Peek(ctx, max)
}

func (c *instrumented) Receive(ctx context.Context, max int) ([]Message, error) {
	defer c.obs.ObserveQueueOp(c.Name(), "receive", time.Now())
	return c.Channel.Receive(ctx, max)
}

func (c *instrumented) Delete(ctx context.Context, id, leaseToken string) error {
	defer c.obs.ObserveQueueOp(c.Name(), "delete", time.Now())
	return c.Channel.Delete(ctx, id, leaseToken)
}
