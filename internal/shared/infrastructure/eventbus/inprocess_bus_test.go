package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskgraph/internal/shared/domain"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)

	var received []*eventbus.Event
	bus.RegisterConsumer(eventbus.NewConsumerFunc(func(_ context.Context, e *eventbus.Event) error {
		received = append(received, e)
		return nil
	}, "graph.task.*"))

	owner := uuid.New()
	sent := eventbus.Event{
		EventID:       uuid.New(),
		AggregateID:   uuid.New(),
		AggregateType: "Task",
		RoutingKey:    "graph.task.deactivated",
		OccurredAt:    time.Now().UTC(),
		Payload:       json.RawMessage(`{"task_id":"x"}`),
		Metadata:      domain.EventMetadata{OwnerID: owner},
	}
	body, err := json.Marshal(sent)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), sent.RoutingKey, body))
	require.NoError(t, bus.Publish(context.Background(), "graph.dependency.added", body[:0]))

	require.Len(t, received, 1)
	assert.Equal(t, sent.EventID, received[0].EventID)
	assert.Equal(t, owner, received[0].Metadata.OwnerID)
	assert.JSONEq(t, `{"task_id":"x"}`, string(received[0].Payload))
}

func TestInProcessEventBus_ConsumerErrorsDoNotFailPublish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	bus.RegisterConsumer(eventbus.NewConsumerFunc(func(context.Context, *eventbus.Event) error {
		return errors.New("boom")
	}, "#"))

	body, err := json.Marshal(eventbus.Event{EventID: uuid.New()})
	require.NoError(t, err)

	assert.NoError(t, bus.Publish(context.Background(), "graph.task.completed", body))
	assert.NoError(t, bus.Close())
}

func TestDecodeEvent_FillsRoutingKey(t *testing.T) {
	event, err := eventbus.DecodeEvent("graph.task.reopened", []byte(`{"event_id":"`+uuid.NewString()+`"}`))
	require.NoError(t, err)
	assert.Equal(t, "graph.task.reopened", event.RoutingKey)

	_, err = eventbus.DecodeEvent("x", []byte("not json"))
	assert.Error(t, err)
}
