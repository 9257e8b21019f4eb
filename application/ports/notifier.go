package ports

import (
	"context"
	"time"

	"lexivault/domain/core/valueobjects"
	"lexivault/domain/events"
)

// InvalidationScope describes which cached views are stale after a change.
type InvalidationScope struct {
	Reason     string                 `json:"reason"`
	UserIDs    []valueobjects.UserID  `json:"user_ids,omitempty"`
	WordIDs    []valueobjects.WordID  `json:"word_ids,omitempty"`
	VaultIDs   []valueobjects.VaultID `json:"vault_ids,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`

	// Unbounded marks a change whose affected words are unknown, as when a
	// foreign key cascade removed relations of a deleted word. Every relation
	// view is stale.
	Unbounded bool `json:"unbounded,omitempty"`

	// Event is the domain event behind the change, when one exists.
	Event events.DomainEvent `json:"-"`
}

// ChangeNotifier tells presentation layers and caches that relation views changed.
// The graph engine logs and otherwise ignores its errors.
type ChangeNotifier interface {
	Invalidate(ctx context.Context, scope InvalidationScope) error
}

// EventPublisher publishes domain events to an external bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
