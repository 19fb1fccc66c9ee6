package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys of the event pipeline instruments
var (
	AttrEventType = attribute.Key("event_type")
	AttrOutcome   = attribute.Key("outcome")
)

// EventMetrics records the event loop's dispatch outcomes and queue depth.
// It satisfies the event loop's Recorder interface.
type EventMetrics struct {
	processed metric.Int64Counter
	depth     metric.Int64ObservableGauge
	reg       metric.Registration
}

// NewEventMetrics creates the event instruments.
// queueDepth is sampled on every collection; nil disables the gauge.
func NewEventMetrics(meter metric.Meter, queueDepth func() int) (*EventMetrics, error) {
	processed, err := meter.Int64Counter(
		"canoe.events.processed",
		metric.WithDescription("Event dispatch outcomes by event type. Skipped deliveries are counted on top of processed ones"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create events counter: %w", err)
	}

	m := &EventMetrics{processed: processed}
	if queueDepth == nil {
		return m, nil
	}

	m.depth, err = meter.Int64ObservableGauge(
		"canoe.events.queue_depth",
		metric.WithDescription("Events waiting in the queue"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue depth gauge: %w", err)
	}
	m.reg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(m.depth, int64(queueDepth()))
		return nil
	}, m.depth)
	if err != nil {
		return nil, fmt.Errorf("failed to register queue depth callback: %w", err)
	}
	return m, nil
}

// RecordEvent counts one dispatched event
func (m *EventMetrics) RecordEvent(ctx context.Context, eventType, outcome string) {
	m.processed.Add(ctx, 1, metric.WithAttributes(
		AttrEventType.String(eventType),
		AttrOutcome.String(outcome),
	))
}

// Close stops sampling the queue depth
func (m *EventMetrics) Close() error {
	if m.reg == nil {
		return nil
	}
	return m.reg.Unregister()
}
