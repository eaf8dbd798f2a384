package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/taskgraph/internal/shared/domain"
	"github.com/google/uuid"
)

// Event is the envelope published for every outbox message.
type Event struct {
	EventID       uuid.UUID            `json:"event_id"`
	AggregateID   uuid.UUID            `json:"aggregate_id"`
	AggregateType string               `json:"aggregate_type"`
	RoutingKey    string               `json:"routing_key"`
	OccurredAt    time.Time            `json:"occurred_at"`
	Payload       json.RawMessage      `json:"payload"`
	Metadata      domain.EventMetadata `json:"metadata"`
}

// EventConsumer handles events whose routing key matches one of its
// topics. Topics follow AMQP topic syntax: "*" matches one word, "#"
// matches zero or more.
type EventConsumer interface {
	Topics() []string
	Handle(ctx context.Context, event *Event) error
}

// ConsumerFunc adapts a function to EventConsumer.
type ConsumerFunc struct {
	topics []string
	fn     func(ctx context.Context, event *Event) error
}

// NewConsumerFunc builds an EventConsumer from fn.
func NewConsumerFunc(fn func(ctx context.Context, event *Event) error, topics ...string) *ConsumerFunc {
	return &ConsumerFunc{topics: topics, fn: fn}
}

func (c *ConsumerFunc) Topics() []string { return c.topics }

func (c *ConsumerFunc) Handle(ctx context.Context, event *Event) error {
	return c.fn(ctx, event)
}

// Consumer receives events from a broker.
type Consumer interface {
	// Start blocks until ctx is done or the consumer is closed.
	Start(ctx context.Context) error
	RegisterConsumer(consumer EventConsumer)
	Close() error
}

// DecodeEvent parses an envelope, filling the routing key from the
// transport when the body has none.
func DecodeEvent(routingKey string, body []byte) (*Event, error) {
	event := &Event{}
	if err := json.Unmarshal(body, event); err != nil {
		return nil, err
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	return event, nil
}
