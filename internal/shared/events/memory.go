package events

import (
	"context"
	"log"
	"sync"
)

// MemoryBus is an in-process event bus used for development and tests
// when no EventStore instance is available.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers []memorySubscription
	closed      bool
}

type memorySubscription struct {
	pattern string
	handler Handler
}

// NewMemoryBus creates an in-process event bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish delivers the event synchronously to all matching subscribers
func (m *MemoryBus) Publish(ctx context.Context, event Event) error {
	m.mu.RLock()
	subs := make([]memorySubscription, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.RUnlock()

	for _, sub := range subs {
		if !MatchesPattern(event.Type, sub.pattern) {
			continue
		}
		if err := sub.handler(ctx, event); err != nil {
			log.Printf("Handler error for event %s: %v", event.ID, err)
		}
	}
	return nil
}

// Subscribe registers a handler for events matching the pattern
func (m *MemoryBus) Subscribe(ctx context.Context, pattern string, consumerName string, handler Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, memorySubscription{pattern: pattern, handler: handler})
	return nil
}

// Close drops all subscriptions
func (m *MemoryBus) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = nil
	m.closed = true
}

// Health always reports healthy
func (m *MemoryBus) Health() error {
	return nil
}
