// Package stream mirrors archived audit records to a Kafka topic. The mirror is
// best effort: a circuit breaker stops produce attempts while the brokers are
// failing, and archiving never waits on it.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "abcretail/pkg/platform/audit"
	"abcretail/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the breaker rejects produce attempts.
var ErrCircuitOpen = errors.New("stream: circuit open")

// Producer is the slice of *kgo.Client the sink uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Metrics interface {
	IncStreamFailures()
	SetStreamBreakerState(open bool)
}

// Sink publishes one Kafka record per audit record, keyed by message id.
type Sink struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	metrics  Metrics
	logger   *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithTopic overrides the producer's default topic.
func WithTopic(topic string) Option {
	return func(s *Sink) { s.topic = topic }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Sink) {
		if b != nil {
			s.breaker = b
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Sink) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(producer Producer, opts ...Option) *Sink {
	s := &Sink{
		producer: producer,
		breaker:  circuit.New("audit-stream"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish produces records synchronously.
func (s *Sink) Publish(ctx context.Context, records []audit.Record) error {
	if len(records) == 0 {
		return nil
	}
	if !s.breaker.Allow() {
		s.incFailures()
		return ErrCircuitOpen
	}

	batch := make([]*kgo.Record, 0, len(records))
	for _, r := range records {
		value, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal audit record %s: %w", r.MessageID, err)
		}
		batch = append(batch, &kgo.Record{
			Topic: s.topic,
			Key:   []byte(r.MessageID),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "entity", Value: []byte(r.Entity)},
				{Key: "action", Value: []byte(r.Action)},
			},
		})
	}

	if err := s.producer.ProduceSync(ctx, batch...).FirstErr(); err != nil {
		s.incFailures()
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.setState(true)
			s.logger.WarnContext(ctx, "audit stream circuit opened", "breaker", s.breaker.Name())
		}
		return fmt.Errorf("produce %d audit records: %w", len(batch), err)
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.setState(false)
		s.logger.InfoContext(ctx, "audit stream circuit closed", "breaker", s.breaker.Name())
	}
	return nil
}

func (s *Sink) incFailures() {
	if s.metrics != nil {
		s.metrics.IncStreamFailures()
	}
}

func (s *Sink) setState(open bool) {
	if s.metrics != nil {
		s.metrics.SetStreamBreakerState(open)
	}
}
