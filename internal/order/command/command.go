// Package command defines the order commands carried on the order queue.
//
// A Command is a closed set: CreateOrder, UpdateOrder and DeleteOrder. On the
// wire every command is an Envelope with an action tag, encoded as base64 JSON.
package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"abcretail/internal/domain"
	"abcretail/pkg/platform/queue"
)

// Action tags a command on the wire.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// IfMatchAny on an update replaces the order without a version check.
const IfMatchAny = "*"

// Command is implemented by CreateOrder, UpdateOrder and DeleteOrder only.
type Command interface {
	Action() Action
	// RowKey is the order the command targets.
	RowKey() string
	isCommand()
}

// CreateOrder inserts a new order. The producer assigns the RowKey; a
// command without one gets a key from the consumer.
type CreateOrder struct {
	Order domain.Order
}

// UpdateOrder rewrites an existing order. IfMatch carries the version token
// the caller read, or IfMatchAny.
type UpdateOrder struct {
	Order   domain.Order
	IfMatch string
}

// DeleteOrder removes an order.
type DeleteOrder struct {
	Key string
}

func (CreateOrder) Action() Action   { return ActionCreate }
func (c CreateOrder) RowKey() string { return c.Order.RowKey }
func (CreateOrder) isCommand()       {}

func (UpdateOrder) Action() Action   { return ActionUpdate }
func (c UpdateOrder) RowKey() string { return c.Order.RowKey }
func (UpdateOrder) isCommand()       {}

func (DeleteOrder) Action() Action   { return ActionDelete }
func (c DeleteOrder) RowKey() string { return c.Key }
func (DeleteOrder) isCommand()       {}

// Envelope is the wire shape of a command.
type Envelope struct {
	Action  Action          `json:"Action"`
	RowKey  string          `json:"RowKey,omitempty"`
	IfMatch string          `json:"IfMatch,omitempty"`
	Data    json.RawMessage `json:"Data,omitempty"`
}

// ToEnvelope converts c to its wire shape.
func ToEnvelope(c Command) (Envelope, error) {
	switch c := c.(type) {
	case CreateOrder:
		return withData(Envelope{Action: ActionCreate, RowKey: c.Order.RowKey}, c.Order)
	case UpdateOrder:
		return withData(Envelope{Action: ActionUpdate, RowKey: c.Order.RowKey, IfMatch: c.IfMatch}, c.Order)
	case DeleteOrder:
		return Envelope{Action: ActionDelete, RowKey: c.Key}, nil
	default:
		return Envelope{}, fmt.Errorf("unknown command type %T", c)
	}
}

func withData(env Envelope, order domain.Order) (Envelope, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode order data: %w", err)
	}
	env.Data = data
	return env, nil
}

// FromEnvelope converts a wire envelope back to a Command. Every failure wraps
// queue.ErrDecode.
func FromEnvelope(env Envelope) (Command, error) {
	switch Action(strings.ToLower(strings.TrimSpace(string(env.Action)))) {
	case ActionCreate:
		order, err := decodeOrder(env)
		if err != nil {
			return nil, err
		}
		return CreateOrder{Order: order}, nil
	case ActionUpdate:
		order, err := decodeOrder(env)
		if err != nil {
			return nil, err
		}
		if order.RowKey == "" {
			return nil, fmt.Errorf("%w: update command without row key", queue.ErrDecode)
		}
		return UpdateOrder{Order: order, IfMatch: env.IfMatch}, nil
	case ActionDelete:
		if env.RowKey == "" {
			return nil, fmt.Errorf("%w: delete command without row key", queue.ErrDecode)
		}
		return DeleteOrder{Key: env.RowKey}, nil
	default:
		return nil, fmt.Errorf("%w: unknown action %q", queue.ErrDecode, env.Action)
	}
}

func decodeOrder(env Envelope) (domain.Order, error) {
	var order domain.Order
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return order, fmt.Errorf("%w: %s command without data", queue.ErrDecode, env.Action)
	}
	if err := json.Unmarshal(env.Data, &order); err != nil {
		return order, fmt.Errorf("%w: order data: %v", queue.ErrDecode, err)
	}
	if order.RowKey == "" {
		order.RowKey = env.RowKey
	}
	return order, nil
}

// Codec is the queue codec for commands.
type Codec struct {
	wire queue.JSONCodec[Envelope]
}

var _ queue.Codec[Command] = Codec{}

func (c Codec) Encode(cmd Command) (string, error) {
	env, err := ToEnvelope(cmd)
	if err != nil {
		return "", err
	}
	return c.wire.Encode(env)
}

func (c Codec) Decode(body string) (Command, error) {
	env, err := c.wire.Decode(body)
	if err != nil {
		return nil, err
	}
	return FromEnvelope(env)
}

// NewQueue wraps ch with the command codec.
func NewQueue(ch queue.Channel) *queue.Typed[Command] {
	return queue.NewTyped[Command](ch, Codec{})
}
