package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyPublisher struct {
	calls int
	err   error
}

func (p *flakyPublisher) Publish(context.Context, string, []byte) error {
	p.calls++
	return p.err
}

func (p *flakyPublisher) Close() error { return nil }

func TestBreakerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &flakyPublisher{err: errors.New("connection reset")}
	cfg := BreakerConfig{Name: "test", ConsecutiveFailures: 2, OpenTimeout: time.Minute, HalfOpenRequests: 1}
	p := NewBreakerPublisher(next, cfg, nil)

	ctx := context.Background()
	assert.ErrorContains(t, p.Publish(ctx, "graph.task.completed", nil), "connection reset")
	assert.ErrorContains(t, p.Publish(ctx, "graph.task.completed", nil), "connection reset")
	assert.Equal(t, "open", p.State())

	err := p.Publish(ctx, "graph.task.completed", nil)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Equal(t, 2, next.calls, "open breaker does not reach the broker")
}

func TestBreakerPublisher_PassesThroughSuccess(t *testing.T) {
	next := &flakyPublisher{}
	p := NewBreakerPublisher(next, DefaultBreakerConfig(), nil)

	assert.NoError(t, p.Publish(context.Background(), "graph.dependency.added", []byte("{}")))
	assert.Equal(t, "closed", p.State())
	assert.NoError(t, p.Close())
}

func TestRabbitMQPublisher_Integration(t *testing.T) {
	url := rabbitURL(t)
	pub, err := NewRabbitMQPublisher(url, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pub.Close()

	assert.NoError(t, pub.Ping(context.Background()))
	assert.NoError(t, pub.Publish(context.Background(), "graph.task.registered", []byte(`{}`)))
}
