package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is an in-process domain notification.
type Event struct {
	Topic      string
	Payload    any
	OccurredAt time.Time
}

// HandlerFunc reacts to a published event. Handlers run synchronously in
// publish order; a handler error is logged and does not stop the fan-out.
type HandlerFunc func(ctx context.Context, event Event) error

// Bus fans events out to subscribed handlers. Subscriptions happen during
// wiring, before any Publish, so reads are not guarded beyond the mutex.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	logger   zerolog.Logger
}

// NewBus constructs an event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]HandlerFunc),
		logger:   logger,
	}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, fn HandlerFunc) {
	if b == nil || fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], fn)
}

// Publish delivers the event to every subscriber of the topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subscribers := b.handlers[topic]
	b.mu.RUnlock()

	event := Event{Topic: topic, Payload: payload, OccurredAt: time.Now().UTC()}
	for _, fn := range subscribers {
		if err := fn(ctx, event); err != nil {
			b.logger.Error().Err(err).Str("topic", topic).Msg("event handler failed")
		}
	}
}
