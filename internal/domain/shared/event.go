package shared

import "context"

// DomainEvent is a notification produced by the domain.
// The event type doubles as the queue routing name, so the payload shape
// is fixed per type.
type DomainEvent interface {
	EventType() string
}

// IdempotentEvent is implemented by events that carry a natural
// deduplication key. Handlers wrapped for idempotency skip events whose key
// was already processed within the configured TTL.
type IdempotentEvent interface {
	DomainEvent
	IdempotencyKey() string
}

// EventHandler reacts to domain events delivered by the event loop
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types the handler wants; empty means every type.
	EventTypes() []string
}

// EventPublisher hands events to the loop without waiting for handlers
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registration. Subscribe without explicit
// types falls back to handler.EventTypes().
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}
