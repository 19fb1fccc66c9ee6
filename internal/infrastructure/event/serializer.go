package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/canoe/backend/internal/domain/fund"
	"github.com/canoe/backend/internal/domain/shared"
)

var (
	// ErrUnknownEventType is returned when no payload type is registered for a name
	ErrUnknownEventType = errors.New("unknown event type")
	// ErrPayloadParse is returned when a payload does not match its registered type
	ErrPayloadParse = errors.New("malformed event payload")
)

// EventSerializer maps event names to payload types so envelopes decode into
// typed domain events
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type // eventType -> Go type
}

// NewEventSerializer creates a new event serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// Register registers an event type for deserialization
// The eventType should match what EventType() returns on the event
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize encodes a domain event into an envelope named after its type
func (s *EventSerializer) Serialize(event shared.DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s event: %w", event.EventType(), err)
	}
	return NewEnvelope(event.EventType(), payload), nil
}

// Deserialize decodes an envelope payload into a pointer to the registered type
func (s *EventSerializer) Deserialize(env Envelope) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[env.Name]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, env.Name)
	}

	eventPtr := reflect.New(t).Interface()
	if err := json.Unmarshal(env.Payload, eventPtr); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPayloadParse, env.Name, err)
	}

	event, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("deserialized %s does not implement DomainEvent", env.Name)
	}

	return event, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns all registered event types, sorted
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// RegisterAllEvents registers every event the service emits
func RegisterAllEvents(s *EventSerializer) {
	s.Register(fund.EventTypeCreated, &fund.CreatedEvent{})
	s.Register(fund.EventTypeDuplicate, &fund.DuplicateEvent{})
}
