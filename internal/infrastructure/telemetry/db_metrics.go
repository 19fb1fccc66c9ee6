package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys of the connection pool instruments
var (
	AttrDBPool  = attribute.Key("db.pool")
	AttrDBState = attribute.Key("db.pool.state")
)

// PoolMetrics reports sql.DB pool statistics as observable instruments
type PoolMetrics struct {
	reg metric.Registration
}

// NewPoolMetrics observes the pool returned by stats under the given pool name.
// The service runs two pools, one for requests and one for the event loop.
func NewPoolMetrics(meter metric.Meter, pool string, stats func() sql.DBStats) (*PoolMetrics, error) {
	connections, err := meter.Int64ObservableGauge(
		"canoe.db.pool.connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool connections gauge: %w", err)
	}
	maxOpen, err := meter.Int64ObservableGauge(
		"canoe.db.pool.connections.max",
		metric.WithDescription("Maximum open connections allowed"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool max gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter(
		"canoe.db.pool.waits",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{wait}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool wait counter: %w", err)
	}

	poolAttr := AttrDBPool.String(pool)
	inUse := metric.WithAttributes(poolAttr, AttrDBState.String("in_use"))
	idle := metric.WithAttributes(poolAttr, AttrDBState.String("idle"))
	only := metric.WithAttributes(poolAttr)

	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := stats()
		o.ObserveInt64(connections, int64(s.InUse), inUse)
		o.ObserveInt64(connections, int64(s.Idle), idle)
		o.ObserveInt64(maxOpen, int64(s.MaxOpenConnections), only)
		o.ObserveInt64(waits, s.WaitCount, only)
		return nil
	}, connections, maxOpen, waits)
	if err != nil {
		return nil, fmt.Errorf("failed to register pool callback: %w", err)
	}
	return &PoolMetrics{reg: reg}, nil
}

// Close stops observing the pool
func (m *PoolMetrics) Close() error {
	return m.reg.Unregister()
}
