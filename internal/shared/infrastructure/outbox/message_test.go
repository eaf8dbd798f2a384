package outbox_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/taskgraph/internal/shared/domain"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskRenamed struct {
	domain.BaseEvent
	TaskID uuid.UUID `json:"task_id"`
	Title  string    `json:"title"`
}

func newTaskRenamed(owner uuid.UUID) *taskRenamed {
	taskID := uuid.New()
	event := &taskRenamed{
		BaseEvent: domain.NewBaseEvent(taskID, "Task", "graph.task.renamed"),
		TaskID:    taskID,
		Title:     "write docs",
	}
	event.SetMetadata(domain.EventMetadata{CorrelationID: uuid.New(), OwnerID: owner})
	return event
}

func TestNewMessage(t *testing.T) {
	owner := uuid.New()
	event := newTaskRenamed(owner)

	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, event.TaskID, msg.AggregateID)
	assert.Equal(t, "Task", msg.AggregateType)
	assert.Equal(t, "graph.task.renamed", msg.RoutingKey)
	assert.Equal(t, msg.RoutingKey, msg.EventType)
	assert.Equal(t, event.OccurredAt(), msg.CreatedAt)
	assert.JSONEq(t, `{"task_id":"`+event.TaskID.String()+`","title":"write docs"}`, string(msg.Payload))
	assert.False(t, msg.IsPublished())
}

func TestNewMessages(t *testing.T) {
	owner := uuid.New()
	msgs, err := outbox.NewMessages([]domain.DomainEvent{newTaskRenamed(owner), newTaskRenamed(owner)})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.NotEqual(t, msgs[0].EventID, msgs[1].EventID)

	empty, err := outbox.NewMessages(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMessage_Event(t *testing.T) {
	owner := uuid.New()
	event := newTaskRenamed(owner)
	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)

	envelope := msg.Event()
	assert.Equal(t, event.EventID(), envelope.EventID)
	assert.Equal(t, owner, envelope.Metadata.OwnerID)
	assert.Equal(t, event.Metadata().CorrelationID, envelope.Metadata.CorrelationID)
	assert.Equal(t, msg.Payload, envelope.Payload)
}

func TestMessage_IsPublished(t *testing.T) {
	msg := createTestMessage("graph.task.registered")
	assert.False(t, msg.IsPublished())

	now := time.Now()
	msg.PublishedAt = &now
	assert.True(t, msg.IsPublished())
}

func TestMessage_CanRetry(t *testing.T) {
	msg := createTestMessage("graph.task.registered")
	assert.True(t, msg.CanRetry(3))

	msg.RetryCount = 2
	assert.True(t, msg.CanRetry(3))

	msg.RetryCount = 3
	assert.False(t, msg.CanRetry(3))
}
