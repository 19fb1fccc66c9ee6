package fund

import "fmt"

// Event type names. They are also the queue routing names.
const (
	EventTypeCreated   = "fund_created"
	EventTypeDuplicate = "fund_duplicate"
)

// CreatedEvent is emitted after a fund is stored
type CreatedEvent struct {
	ID int64 `json:"id"`
}

// EventType implements shared.DomainEvent
func (CreatedEvent) EventType() string { return EventTypeCreated }

// NewCreatedEvent creates a fund_created event for a stored fund
func NewCreatedEvent(f *Fund) *CreatedEvent {
	return &CreatedEvent{ID: f.ID}
}

// DuplicateEvent is emitted when a fund collides with another fund or alias
// of the same manager. Its payload is the serialized fund.
type DuplicateEvent struct {
	Fund
}

// EventType implements shared.DomainEvent
func (DuplicateEvent) EventType() string { return EventTypeDuplicate }

// IdempotencyKey scopes notifications to one fund revision
func (e DuplicateEvent) IdempotencyKey() string {
	return fmt.Sprintf("%s:%d:v%d", EventTypeDuplicate, e.ID, e.Version)
}

// NewDuplicateEvent creates a fund_duplicate event carrying a copy of the fund
func NewDuplicateEvent(f *Fund) *DuplicateEvent {
	return &DuplicateEvent{Fund: *f}
}
