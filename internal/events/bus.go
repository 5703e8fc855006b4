// Package events fans out catalog mutations and auth-state changes to the
// parts of the service that hold derived state.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Topics
const (
	TopicCatalog = "catalog"
	TopicAuth    = "auth"
)

// Event types published on TopicCatalog. Auth events reuse the
// models.AuthEventType values.
const (
	CatalogCreated = "created"
	CatalogUpdated = "updated"
	CatalogDeleted = "deleted"
)

// Event is a notification. It never carries catalog data; subscribers
// refetch what they need.
type Event struct {
	Topic  string    `json:"topic"`
	Type   string    `json:"type"`
	Kind   string    `json:"kind,omitempty"`
	ID     string    `json:"id,omitempty"`
	UserID string    `json:"user_id,omitempty"`
	At     time.Time `json:"at"`

	// Origin identifies the publishing instance
	Origin string `json:"origin,omitempty"`
}

// Handler receives events. It runs on the publisher's goroutine for local
// delivery and on the receive loop for remote delivery.
type Handler func(ctx context.Context, e Event)

// Bus publishes events to subscribers of a topic.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(topic string, fn Handler) (unsubscribe func())
	Close() error
}

// LocalBus delivers synchronously within the process.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[string]map[int]Handler
	nextID int
	logger *slog.Logger
}

// NewLocalBus creates an in-process bus
func NewLocalBus(logger *slog.Logger) *LocalBus {
	return &LocalBus{
		subs:   make(map[string]map[int]Handler),
		logger: logger,
	}
}

// Publish calls every handler subscribed to e.Topic
func (b *LocalBus) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.deliver(ctx, e)
	return nil
}

func (b *LocalBus) deliver(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Topic]))
	for _, fn := range b.subs[e.Topic] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	// Handlers may subscribe or unsubscribe, so they run outside the lock
	for _, fn := range handlers {
		fn(ctx, e)
	}

	if b.logger != nil {
		b.logger.Debug("event delivered", "topic", e.Topic, "type", e.Type, "subscribers", len(handlers))
	}
}

// Subscribe registers fn for topic. The returned func is idempotent.
func (b *LocalBus) Subscribe(topic string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic], id)
			b.mu.Unlock()
		})
	}
}

// Close drops every subscription
func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.subs = make(map[string]map[int]Handler)
	b.mu.Unlock()
	return nil
}

var _ Bus = (*LocalBus)(nil)
