package queue

import "context"

// Delivery is a message with its decoded value. When decoding fails Value is
// the zero value, DecodeErr wraps ErrDecode and Message.Body keeps the raw body.
type Delivery[T any] struct {
	Message
	Value     T
	DecodeErr error
}

// Typed layers a Codec over a Channel.
type Typed[T any] struct {
	ch    Channel
	codec Codec[T]
}

// NewTyped wraps ch with codec.
func NewTyped[T any](ch Channel, codec Codec[T]) *Typed[T] {
	return &Typed[T]{ch: ch, codec: codec}
}

// Channel returns the underlying raw channel.
func (t *Typed[T]) Channel() Channel { return t.ch }

// Append encodes v and appends it.
func (t *Typed[T]) Append(ctx context.Context, v T) (string, error) {
	body, err := t.codec.Encode(v)
	if err != nil {
		return "", err
	}
	return t.ch.Append(ctx, body)
}

// Peek returns decoded visible messages without leasing them.
func (t *Typed[T]) Peek(ctx context.Context, max int) ([]Delivery[T], error) {
	msgs, err := t.ch.Peek(ctx, max)
	if err != nil {
		return nil, err
	}
	return t.decodeAll(msgs), nil
}

// Receive leases and decodes messages.
func (t *Typed[T]) Receive(ctx context.Context, max int) ([]Delivery[T], error) {
	msgs, err := t.ch.Receive(ctx, max)
	if err != nil {
		return nil, err
	}
	return t.decodeAll(msgs), nil
}

// Delete acknowledges d.
func (t *Typed[T]) Delete(ctx context.Context, d Delivery[T]) error {
	return t.ch.Delete(ctx, d.ID, d.LeaseToken)
}

// Decode decodes a single raw message.
func (t *Typed[T]) Decode(m Message) Delivery[T] {
	v, err := t.codec.Decode(m.Body)
	return Delivery[T]{Message: m, Value: v, DecodeErr: err}
}

func (t *Typed[T]) decodeAll(msgs []Message) []Delivery[T] {
	out := make([]Delivery[T], 0, len(msgs))
	for _, m := range msgs {
		out = append(out, t.Decode(m))
	}
	return out
}
