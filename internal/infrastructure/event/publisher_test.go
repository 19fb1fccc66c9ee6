package event

import (
	"context"
	"testing"

	"github.com/canoe/backend/internal/domain/fund"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueuePublisher_Publish(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	q := NewQueue(4)
	publisher := NewQueuePublisher(q, newTestSerializer(), zap.New(core))

	f := fund.Fund{ID: 2, Name: "Beta", Manager: 1, StartYear: 2019, Version: 1}
	err := publisher.Publish(context.Background(), fund.NewCreatedEvent(&f), fund.NewDuplicateEvent(&f))
	require.NoError(t, err)

	require.Equal(t, 2, q.Len())

	first, err := q.Remove()
	require.NoError(t, err)
	assert.Equal(t, fund.EventTypeCreated, first.Name)
	assert.JSONEq(t, `{"id":2}`, string(first.Payload))

	second, err := q.Remove()
	require.NoError(t, err)
	assert.Equal(t, fund.EventTypeDuplicate, second.Name)

	assert.Equal(t, 2, logs.FilterMessage("event emitted").Len())
}

func TestQueuePublisher_ClosedQueue(t *testing.T) {
	q := NewQueue(4)
	q.Close()
	publisher := NewQueuePublisher(q, newTestSerializer(), zap.NewNop())

	err := publisher.Publish(context.Background(), fund.CreatedEvent{ID: 1})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueuePublisher_FullQueueHonoursContext(t *testing.T) {
	q := NewQueue(1)
	publisher := NewQueuePublisher(q, newTestSerializer(), zap.NewNop())
	require.NoError(t, publisher.Publish(context.Background(), fund.CreatedEvent{ID: 1}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.Publish(ctx, fund.CreatedEvent{ID: 2})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, q.Len())
}

func TestQueuePublisher_LoopHandlerNeverBlocks(t *testing.T) {
	q := NewQueue(1)
	publisher := NewQueuePublisher(q, newTestSerializer(), zap.NewNop())
	require.NoError(t, publisher.Publish(context.Background(), fund.CreatedEvent{ID: 1}))

	ctx := context.WithValue(context.Background(), loopHandlerKey{}, true)
	require.NoError(t, publisher.Publish(ctx, fund.CreatedEvent{ID: 2}))

	assert.Equal(t, 2, q.Len())
	env, err := q.Remove()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2}`, string(env.Payload))
}
