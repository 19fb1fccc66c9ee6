package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/canoe/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracing adds otelgorm spans to a gorm connection and marks slow or failed
// statements on them.
type DBTracing struct {
	enabled    bool
	fullSQL    bool
	slowThresh time.Duration
	provider   trace.TracerProvider
	logger     *zap.Logger
}

// DBTracingOption configures DBTracing
type DBTracingOption func(*DBTracing)

// WithDBTracerProvider overrides the global tracer provider
func WithDBTracerProvider(tp trace.TracerProvider) DBTracingOption {
	return func(d *DBTracing) {
		d.provider = tp
	}
}

// NewDBTracing creates DB tracing from the telemetry settings
func NewDBTracing(cfg config.TelemetryConfig, logger *zap.Logger, opts ...DBTracingOption) *DBTracing {
	d := &DBTracing{
		enabled:    cfg.Enabled && cfg.DBTraceEnabled,
		fullSQL:    cfg.DBLogFullSQL,
		slowThresh: cfg.DBSlowQueryThresh,
		logger:     logger.Named("db-tracing"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// dbSystem maps the configured dialect to the semantic convention name
func dbSystem(dialect string) string {
	if dialect == config.DialectPostgres {
		return "postgresql"
	}
	return dialect
}

// Register installs the plugin and callbacks on db. name identifies the pool
// in spans.
func (d *DBTracing) Register(db *gorm.DB, dialect, name string) error {
	if !d.enabled {
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(name),
		otelgorm.WithAttributes(attribute.String("db.system", dbSystem(dialect))),
	}
	if !d.fullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if d.provider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(d.provider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := d.registerCallbacks(db); err != nil {
		return err
	}

	d.logger.Info("Database tracing enabled",
		zap.String("pool", name),
		zap.Bool("log_full_sql", d.fullSQL),
		zap.Duration("slow_query_threshold", d.slowThresh),
	)
	return nil
}

func (d *DBTracing) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("canoe:timing_create", markStart),
		cb.Query().Before("gorm:query").Register("canoe:timing_query", markStart),
		cb.Update().Before("gorm:update").Register("canoe:timing_update", markStart),
		cb.Row().Before("gorm:row").Register("canoe:timing_row", markStart),
		cb.Raw().Before("gorm:raw").Register("canoe:timing_raw", markStart),
		cb.Create().After("gorm:create").Before("otel:after:create").Register("canoe:annotate_create", d.annotate),
		cb.Query().After("gorm:query").Before("otel:after:query").Register("canoe:annotate_query", d.annotate),
		cb.Update().After("gorm:update").Before("otel:after:update").Register("canoe:annotate_update", d.annotate),
		cb.Row().After("gorm:row").Before("otel:after:row").Register("canoe:annotate_row", d.annotate),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("canoe:annotate_raw", d.annotate),
	)
}

type queryStartKey struct{}

func markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

// annotate runs after the statement and before otelgorm ends its span
func (d *DBTracing) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok || d.slowThresh <= 0 {
		return
	}
	if elapsed := time.Since(start); elapsed > d.slowThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
