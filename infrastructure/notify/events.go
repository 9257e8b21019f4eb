package notify

import (
	"context"

	"lexivault/application/ports"
)

// EventNotifier forwards the domain event behind a scope to an event bus.
// Scopes without an event are ignored.
type EventNotifier struct {
	publisher ports.EventPublisher
}

func NewEventNotifier(publisher ports.EventPublisher) *EventNotifier {
	return &EventNotifier{publisher: publisher}
}

func (n *EventNotifier) Invalidate(ctx context.Context, scope ports.InvalidationScope) error {
	if scope.Event == nil {
		return nil
	}
	return n.publisher.Publish(ctx, scope.Event)
}
