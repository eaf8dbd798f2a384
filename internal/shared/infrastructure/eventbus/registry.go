package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// ConsumerRegistry dispatches events to consumers by topic pattern.
type ConsumerRegistry struct {
	mu        sync.RWMutex
	consumers []registration
	logger    *slog.Logger
}

type registration struct {
	pattern  string
	consumer EventConsumer
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{logger: logger}
}

// Register adds consumer for each of its topics.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, topic := range consumer.Topics() {
		r.consumers = append(r.consumers, registration{pattern: topic, consumer: consumer})
		r.logger.Debug("registered event consumer", "topic", topic)
	}
}

// Topics returns every registered pattern.
func (r *ConsumerRegistry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]string, 0, len(r.consumers))
	for _, reg := range r.consumers {
		topics = append(topics, reg.pattern)
	}
	return topics
}

// Dispatch delivers event to every matching consumer. A consumer is called
// once per event even if several of its topics match. All consumers run;
// their errors are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *Event) error {
	r.mu.RLock()
	var matched []EventConsumer
	seen := make(map[EventConsumer]bool)
	for _, reg := range r.consumers {
		if !seen[reg.consumer] && MatchTopic(reg.pattern, event.RoutingKey) {
			seen[reg.consumer] = true
			matched = append(matched, reg.consumer)
		}
	}
	r.mu.RUnlock()

	var errs []error
	for _, consumer := range matched {
		if err := consumer.Handle(ctx, event); err != nil {
			r.logger.Error("consumer failed to handle event",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MatchTopic reports whether key matches an AMQP topic pattern.
func MatchTopic(pattern, key string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchWords(pattern, key []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case "#":
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchWords(pattern[1:], key[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(key) == 0 {
				return false
			}
		default:
			if len(key) == 0 || key[0] != pattern[0] {
				return false
			}
		}
		pattern, key = pattern[1:], key[1:]
	}
	return len(key) == 0
}
