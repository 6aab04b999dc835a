package audit

import (
	"fmt"
	"strings"

	"abcretail/pkg/platform/queue"
)

// Codec is the audit queue codec. JSON that carries no action or entity is
// not an event, so it fails to decode and is kept as an unparsed record.
type Codec struct {
	wire queue.JSONCodec[Event]
}

func (c Codec) Encode(e Event) (string, error) { return c.wire.Encode(e) }

func (c Codec) Decode(body string) (Event, error) {
	e, err := c.wire.Decode(body)
	if err != nil {
		return Event{}, err
	}
	if strings.TrimSpace(e.Action) == "" || strings.TrimSpace(e.Entity) == "" {
		return Event{}, fmt.Errorf("%w: audit event without action or entity", queue.ErrDecode)
	}
	return e, nil
}

// NewQueue wraps the audit channel with the event codec.
func NewQueue(ch queue.Channel) *queue.Typed[Event] {
	return queue.NewTyped[Event](ch, Codec{})
}
