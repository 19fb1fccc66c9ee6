package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/canoe/backend/internal/domain/shared"
)

// EventRecorder is an event handler that keeps every event of type E it is
// given. Events of any other concrete type are rejected with an error.
type EventRecorder[E shared.DomainEvent] struct {
	mu     sync.Mutex
	types  []string
	events []E
	fail   error
}

var _ shared.EventHandler = (*EventRecorder[shared.DomainEvent])(nil)

// NewEventRecorder creates a recorder subscribed to eventTypes
func NewEventRecorder[E shared.DomainEvent](eventTypes ...string) *EventRecorder[E] {
	return &EventRecorder[E]{types: eventTypes}
}

func (r *EventRecorder[E]) EventTypes() []string {
	return r.types
}

func (r *EventRecorder[E]) Handle(_ context.Context, event shared.DomainEvent) error {
	typed, ok := event.(E)
	if !ok {
		return fmt.Errorf("recorder: unexpected event %T", event)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, typed)
	return r.fail
}

// FailWith makes Handle return err after recording. nil restores success.
func (r *EventRecorder[E]) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

// Events returns a snapshot of the recorded events
func (r *EventRecorder[E]) Events() []E {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]E(nil), r.events...)
}

func (r *EventRecorder[E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Await blocks until at least n events are recorded and returns them.
// The test fails if that takes longer than timeout.
func (r *EventRecorder[E]) Await(t *testing.T, n int, timeout time.Duration) []E {
	t.Helper()
	RequireEventually(t, func() bool { return r.Len() >= n }, timeout, 10*time.Millisecond,
		"expected %d events", n)
	return r.Events()
}
