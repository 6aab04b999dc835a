// Package audit defines the audit events emitted by every entity mutation and
// the records read back from the audit queue.
package audit

import (
	"context"
	"time"
)

// Actions recorded on audit events.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	// ActionUnparsed marks a record whose body could not be decoded.
	ActionUnparsed = "unparsed"
)

// Entity names recorded on audit events.
const (
	EntityCustomer = "Customer"
	EntityProduct  = "Product"
	EntityOrder    = "Order"
)

// Event is emitted after a successful mutation. Keep it transport-agnostic so
// the live view, the archiver and stream sinks all read the same shape.
type Event struct {
	Action    string    `json:"Action"`
	Entity    string    `json:"Entity"`
	ID        string    `json:"Id"`
	Name      string    `json:"Name"`
	Timestamp time.Time `json:"Timestamp"`
}

// Record is an event read back from the audit queue, stamped with its delivery
// metadata. When the body could not be decoded Raw holds it and Event.Action is
// ActionUnparsed.
type Record struct {
	Event
	MessageID     string    `json:"MessageId"`
	InsertionTime time.Time `json:"InsertionTime"`
	Raw           string    `json:"Raw,omitempty"`
}

// Parsed reports whether the record carries a decoded event.
func (r Record) Parsed() bool { return r.Raw == "" && r.Action != ActionUnparsed }

// Unparsed builds the fallback record for an undecodable body.
func Unparsed(messageID string, inserted time.Time, raw string) Record {
	return Record{
		Event: Event{
			Action: ActionUnparsed,
			ID:     messageID,
			Name:   raw,
		},
		MessageID:     messageID,
		InsertionTime: inserted,
		Raw:           raw,
	}
}

// Emitter publishes audit events.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
