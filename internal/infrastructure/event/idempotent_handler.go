package event

import (
	"context"
	"sync/atomic"

	"github.com/canoe/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OutcomeSkipped is recorded when an event's idempotency key was already claimed
const OutcomeSkipped = "skipped"

// IdempotencyStats counts what an IdempotentHandler did with keyed events
type IdempotencyStats struct {
	Handled int64 `json:"handled"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

// IdempotentHandler lets one event per idempotency key through to the
// wrapped handler within the configured TTL. Events that do not implement
// shared.IdempotentEvent are always passed on.
type IdempotentHandler struct {
	next     shared.EventHandler
	store    shared.IdempotencyStore
	config   shared.IdempotencyConfig
	logger   *zap.Logger
	recorder Recorder

	handled, skipped, failed atomic.Int64
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig replaces shared.DefaultIdempotencyConfig
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithSkipRecorder reports skipped events as OutcomeSkipped
func WithSkipRecorder(recorder Recorder) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.recorder = recorder
	}
}

// NewIdempotentHandler wraps next with key based deduplication
func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		next:     next,
		store:    store,
		config:   shared.DefaultIdempotencyConfig(),
		logger:   logger.Named("idempotency"),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Handle claims the event's key before delegating. A claim that cannot be
// checked is treated as new. When the wrapped handler fails the claim is
// released so a later event with the same key is delivered again.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	keyed, ok := event.(shared.IdempotentEvent)
	if !ok || !h.config.Enabled {
		return h.next.Handle(ctx, event)
	}

	key := keyed.IdempotencyKey()
	log := h.logger.With(zap.String("idempotency_key", key), zap.String("event_type", event.EventType()))

	claimed, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		log.Warn("idempotency store unavailable, handling event anyway", zap.Error(err))
	case !claimed:
		h.skipped.Add(1)
		h.recorder.RecordEvent(ctx, event.EventType(), OutcomeSkipped)
		log.Debug("event already handled")
		return nil
	}

	if err := h.next.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		if claimed {
			if ferr := h.store.Forget(ctx, key); ferr != nil {
				log.Warn("failed to release idempotency key", zap.Error(ferr))
			}
		}
		return err
	}

	h.handled.Add(1)
	return nil
}

// Stats returns the counters since the handler was created
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Handled: h.handled.Load(),
		Skipped: h.skipped.Load(),
		Failed:  h.failed.Load(),
	}
}
