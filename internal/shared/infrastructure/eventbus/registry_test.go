package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"graph.task.completed", "graph.task.completed", true},
		{"graph.task.completed", "graph.task.reopened", false},
		{"graph.task.*", "graph.task.completed", true},
		{"graph.task.*", "graph.task", false},
		{"graph.*", "graph.task.completed", false},
		{"graph.#", "graph.task.completed", true},
		{"graph.#", "graph", true},
		{"#", "graph.dependency.added", true},
		{"#.added", "graph.dependency.added", true},
		{"graph.#.removed", "graph.dependency.added", false},
		{"*.dependency.*", "graph.dependency.removed", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchTopic(tt.pattern, tt.key))
		})
	}
}

type recordingConsumer struct {
	topics []string
	events []*Event
	err    error
}

func (c *recordingConsumer) Topics() []string { return c.topics }

func (c *recordingConsumer) Handle(_ context.Context, event *Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	registry := NewConsumerRegistry(nil)
	tasks := &recordingConsumer{topics: []string{"graph.task.*", "graph.task.completed"}}
	deps := &recordingConsumer{topics: []string{"graph.dependency.#"}}
	failing := &recordingConsumer{topics: []string{"#"}, err: errors.New("handler down")}
	registry.Register(tasks)
	registry.Register(deps)
	registry.Register(failing)

	err := registry.Dispatch(context.Background(), &Event{EventID: uuid.New(), RoutingKey: "graph.task.completed"})

	assert.ErrorContains(t, err, "handler down")
	assert.Len(t, tasks.events, 1, "overlapping topics deliver once")
	assert.Empty(t, deps.events)
	assert.Len(t, failing.events, 1)
	assert.Len(t, registry.Topics(), 4)
}
