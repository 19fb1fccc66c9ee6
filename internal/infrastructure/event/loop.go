package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/canoe/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Dispatch outcomes reported to the metrics recorder
const (
	OutcomeProcessed = "processed"
	OutcomeFailed    = "failed"
	OutcomeMalformed = "malformed"
	OutcomeDropped   = "dropped"
)

// ErrLoopRunning is returned by Start when the loop is already running
var ErrLoopRunning = errors.New("event loop already running")

// Recorder receives one call per dispatched event
type Recorder interface {
	RecordEvent(ctx context.Context, eventType, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordEvent(context.Context, string, string) {}

// LoopConfig holds configuration for the event loop
type LoopConfig struct {
	// PollInterval is the pause between two polls of the queue
	PollInterval time.Duration
	// BatchSize caps the events dispatched per poll
	BatchSize int
	// HandlerTimeout bounds a single event's handlers; zero disables it
	HandlerTimeout time.Duration
}

// DefaultLoopConfig polls every 100ms and handles one event per poll
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		PollInterval: 100 * time.Millisecond,
		BatchSize:    1,
	}
}

// LoopStats is a snapshot of the loop counters
type LoopStats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Malformed int64 `json:"malformed"`
	Dropped   int64 `json:"dropped"`
}

// Loop is the single consumer of the queue. It polls at a fixed interval and
// dispatches each event by name. A failing or panicking handler is logged and
// counted; it never stops the loop.
type Loop struct {
	queue      *Queue
	serializer *EventSerializer
	registry   *HandlerRegistry
	config     LoopConfig
	logger     *zap.Logger
	recorder   Recorder

	processed atomic.Int64
	failed    atomic.Int64
	malformed atomic.Int64
	dropped   atomic.Int64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// LoopOption is a functional option for Loop
type LoopOption func(*Loop)

// WithRecorder sets the metrics recorder
func WithRecorder(recorder Recorder) LoopOption {
	return func(l *Loop) {
		if recorder != nil {
			l.recorder = recorder
		}
	}
}

// NewLoop creates a new event loop over queue
func NewLoop(queue *Queue, serializer *EventSerializer, config LoopConfig, logger *zap.Logger, opts ...LoopOption) *Loop {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultLoopConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 1
	}
	l := &Loop{
		queue:      queue,
		serializer: serializer,
		registry:   NewHandlerRegistry(),
		config:     config,
		logger:     logger.Named("event_loop"),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Subscribe registers a handler for event names
func (l *Loop) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	l.registry.Register(handler, eventTypes...)
	l.logger.Debug("handler subscribed",
		zap.Strings("event_types", l.registry.EventTypes()),
	)
}

// Unsubscribe removes a handler
func (l *Loop) Unsubscribe(handler shared.EventHandler) {
	l.registry.Unregister(handler)
}

// Start launches the polling goroutine
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrLoopRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.running = true

	l.wg.Add(1)
	go l.processLoop(ctx)

	l.logger.Info("event loop started",
		zap.Duration("poll_interval", l.config.PollInterval),
		zap.Int("batch_size", l.config.BatchSize),
		zap.Strings("event_types", l.registry.EventTypes()),
	)
	return nil
}

// Stop cancels the polling goroutine and waits for the in-flight event
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.cancel()
	l.running = false
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if pending := l.queue.Len(); pending > 0 {
			l.logger.Warn("event loop stopped with pending events", zap.Int("pending", pending))
		} else {
			l.logger.Info("event loop stopped")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the counters
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Processed: l.processed.Load(),
		Failed:    l.failed.Load(),
		Malformed: l.malformed.Load(),
		Dropped:   l.dropped.Load(),
	}
}

// Drain dispatches pending events until the queue is empty and returns how
// many were taken. It runs on the caller's goroutine and must not be used
// while the loop is started.
func (l *Loop) Drain(ctx context.Context) int {
	n := 0
	for ctx.Err() == nil {
		env, err := l.queue.Remove()
		if errors.Is(err, ErrQueueEmpty) {
			return n
		}
		l.dispatch(ctx, env)
		n++
	}
	return n
}

func (l *Loop) processLoop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.poll(ctx)
		}
	}
}

// poll dispatches at most BatchSize events
func (l *Loop) poll(ctx context.Context) {
	for i := 0; i < l.config.BatchSize; i++ {
		if ctx.Err() != nil {
			return
		}
		env, err := l.queue.Remove()
		if errors.Is(err, ErrQueueEmpty) {
			return
		}
		l.dispatch(ctx, env)
	}
}

type loopHandlerKey struct{}

// inLoopHandler reports whether ctx belongs to an event being dispatched by a Loop
func inLoopHandler(ctx context.Context) bool {
	v, _ := ctx.Value(loopHandlerKey{}).(bool)
	return v
}

func (l *Loop) dispatch(ctx context.Context, env Envelope) {
	ctx = context.WithValue(ctx, loopHandlerKey{}, true)

	log := l.logger.With(
		zap.String("event_id", env.ID.String()),
		zap.String("event_type", env.Name),
	)

	handlers := l.registry.GetHandlers(env.Name)
	if len(handlers) == 0 {
		log.Warn("no handler for event, dropping")
		l.dropped.Add(1)
		l.recorder.RecordEvent(ctx, env.Name, OutcomeDropped)
		return
	}

	event, err := l.serializer.Deserialize(env)
	if err != nil {
		log.Error("failed to decode event payload", zap.Error(err))
		l.malformed.Add(1)
		l.recorder.RecordEvent(ctx, env.Name, OutcomeMalformed)
		return
	}

	if l.config.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.HandlerTimeout)
		defer cancel()
	}

	log.Debug("dispatching event", zap.Int("handlers", len(handlers)))

	failed := false
	for _, handler := range handlers {
		if err := l.invoke(ctx, handler, event); err != nil {
			failed = true
			log.Error("event handler failed", zap.Error(err))
		}
	}

	if failed {
		l.failed.Add(1)
		l.recorder.RecordEvent(ctx, env.Name, OutcomeFailed)
		return
	}
	l.processed.Add(1)
	l.recorder.RecordEvent(ctx, env.Name, OutcomeProcessed)
}

// invoke runs one handler, turning a panic into an error
func (l *Loop) invoke(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventSubscriber = (*Loop)(nil)
