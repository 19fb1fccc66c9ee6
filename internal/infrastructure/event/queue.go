package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultQueueCapacity is the number of events buffered before Emit blocks
const DefaultQueueCapacity = 1024

var (
	// ErrQueueEmpty is returned by Remove when no event is pending.
	// It is a control signal for polling, not a failure.
	ErrQueueEmpty = errors.New("event queue is empty")
	// ErrQueueClosed is returned by Emit after Close
	ErrQueueClosed = errors.New("event queue is closed")
)

// Envelope is a queued event: a routing name and its serialized payload
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewEnvelope creates an envelope with a fresh id
func NewEnvelope(name string, payload []byte) Envelope {
	return Envelope{
		ID:         uuid.New(),
		Name:       name,
		Payload:    payload,
		OccurredAt: time.Now(),
	}
}

// Queue is an in-process FIFO of envelopes with many writers and a single
// reader. Pending events are not persisted and are lost on restart.
//
// Events emitted by the reader itself go to an unbounded follow-up lane that
// Remove serves first, so the reader never waits on its own buffer.
type Queue struct {
	ch        chan Envelope
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	followUp []Envelope
}

// NewQueue creates a queue buffering up to capacity events
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		ch:   make(chan Envelope, capacity),
		done: make(chan struct{}),
	}
}

// Emit appends an event to the tail of the queue.
// When the buffer is full it blocks until the consumer makes room or ctx is done.
func (q *Queue) Emit(ctx context.Context, name string, payload []byte) error {
	return q.Push(ctx, NewEnvelope(name, payload))
}

// Push appends a prepared envelope
func (q *Queue) Push(ctx context.Context, env Envelope) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- env:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PushFollowUp appends an envelope emitted by the reader while it handles
// another event. It never blocks.
func (q *Queue) PushFollowUp(env Envelope) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.followUp = append(q.followUp, env)
	return nil
}

// Remove takes the head event, follow-ups first. It never blocks;
// ErrQueueEmpty means there is nothing to do right now.
func (q *Queue) Remove() (Envelope, error) {
	q.mu.Lock()
	if len(q.followUp) > 0 {
		env := q.followUp[0]
		q.followUp[0] = Envelope{}
		q.followUp = q.followUp[1:]
		q.mu.Unlock()
		return env, nil
	}
	q.mu.Unlock()

	select {
	case env := <-q.ch:
		return env, nil
	default:
		return Envelope{}, ErrQueueEmpty
	}
}

// Len returns the number of pending events
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ch) + len(q.followUp)
}

// Cap returns the buffer capacity
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Close stops accepting new events. Pending events can still be removed.
// Safe to call multiple times.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}
