package router

import (
	"context"
	"fmt"

	"github.com/canoe/backend/internal/infrastructure/config"
	"github.com/canoe/backend/internal/infrastructure/logger"
	"github.com/canoe/backend/internal/interfaces/http/handler"
	"github.com/canoe/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// EngineConfig carries what the HTTP engine needs besides its handlers
type EngineConfig struct {
	Env       string
	HTTP      config.HTTPConfig
	Telemetry config.TelemetryConfig
	Logger    *zap.Logger
	// Meter enables request metrics when set.
	Meter metric.Meter
	// TracerProvider overrides the global tracer provider when set.
	TracerProvider trace.TracerProvider
}

// Handlers groups the HTTP handlers mounted by the engine
type Handlers struct {
	Funds  *handler.FundHandler
	System *handler.SystemHandler
}

// NewEngine builds the gin engine with the middleware stack and every route.
// The rate limiter janitor stops when ctx is cancelled.
func NewEngine(ctx context.Context, cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := middleware.SetupValidator(); err != nil {
		return nil, fmt.Errorf("setup validator: %w", err)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request id must exist before the span is enriched
	// and before the access log line is written.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Enabled:        cfg.Telemetry.Enabled,
		TracerProvider: cfg.TracerProvider,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log))

	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}

	if cfg.Meter != nil {
		metrics, err := middleware.HTTPMetrics(cfg.Meter)
		if err != nil {
			return nil, fmt.Errorf("create http metrics: %w", err)
		}
		engine.Use(metrics)
	}

	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		limiter.StartJanitor(ctx)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	r := NewRouter(engine)

	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET("/ping", h.System.Ping)
		r.Mount(NewResourceGroup("system", "/system").
			GET("/info", h.System.GetSystemInfo))
	}

	if h.Funds != nil {
		r.Mount(NewResourceGroup("funds", "/funds").
			GET("", h.Funds.List).
			POST("", h.Funds.Create).
			GET("/:id", h.Funds.GetByID).
			PUT("/:id", h.Funds.Update))
	}

	for _, rt := range r.Setup() {
		log.Debug("Route mounted",
			zap.String("group", rt.Group),
			zap.String("method", rt.Method),
			zap.String("path", rt.Path),
		)
	}
	return engine, nil
}
