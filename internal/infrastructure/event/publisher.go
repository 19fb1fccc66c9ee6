package event

import (
	"context"

	"github.com/canoe/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// QueuePublisher publishes domain events by serializing them onto the queue
type QueuePublisher struct {
	queue      *Queue
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewQueuePublisher creates a new queue publisher
func NewQueuePublisher(queue *Queue, serializer *EventSerializer, logger *zap.Logger) *QueuePublisher {
	return &QueuePublisher{
		queue:      queue,
		serializer: serializer,
		logger:     logger,
	}
}

// Publish serializes and enqueues the events in order.
// It stops at the first failure.
func (p *QueuePublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		env, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		if err := p.push(ctx, env); err != nil {
			return err
		}
		p.logger.Info("event emitted",
			zap.String("event_type", env.Name),
			zap.String("event_id", env.ID.String()),
		)
	}
	return nil
}

// push never blocks inside a loop handler: the loop is the queue's only
// reader and would otherwise wait on itself when the buffer is full.
func (p *QueuePublisher) push(ctx context.Context, env Envelope) error {
	if inLoopHandler(ctx) {
		return p.queue.PushFollowUp(env)
	}
	return p.queue.Push(ctx, env)
}

var _ shared.EventPublisher = (*QueuePublisher)(nil)
