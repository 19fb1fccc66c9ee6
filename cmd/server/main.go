package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	fundapp "github.com/canoe/backend/internal/application/fund"
	"github.com/canoe/backend/internal/domain/fund"
	"github.com/canoe/backend/internal/domain/shared"
	"github.com/canoe/backend/internal/infrastructure/cache"
	"github.com/canoe/backend/internal/infrastructure/config"
	"github.com/canoe/backend/internal/infrastructure/event"
	"github.com/canoe/backend/internal/infrastructure/logger"
	"github.com/canoe/backend/internal/infrastructure/migration"
	"github.com/canoe/backend/internal/infrastructure/persistence"
	"github.com/canoe/backend/internal/infrastructure/telemetry"
	"github.com/canoe/backend/internal/interfaces/http/handler"
	"github.com/canoe/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Bootstrap logger, replaced once the log bridge is up
	log, err := logger.New(logger.FromConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if providers.Logs.IsEnabled() {
		teed, err := logger.New(logger.FromConfig(cfg.Log),
			logger.WithTee(providers.Logs.ZapCore(logger.ParseLevel(cfg.Log.Level))))
		if err != nil {
			log.Fatal("Failed to attach log bridge", zap.Error(err))
		}
		log = teed
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting canoe",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.App.Addr()),
		zap.String("database", cfg.Database.Dialect()),
	)

	// One pool serves the API, the event loop gets its own
	apiDB, err := openDatabase(cfg, log, "api")
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer closeDatabase(apiDB, log)

	if cfg.Database.AutoMigrate {
		sqlDB, err := apiDB.DB.DB()
		if err != nil {
			log.Fatal("Failed to access database handle", zap.Error(err))
		}
		if err := migration.Run(sqlDB, &cfg.Database, log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	loopDB := apiDB
	if !isMemoryDatabase(&cfg.Database) {
		loopDB, err = openDatabase(cfg, log, "events")
		if err != nil {
			log.Fatal("Failed to connect event loop database", zap.Error(err))
		}
		defer closeDatabase(loopDB, log)
	}

	meter := providers.Meter.Meter()
	pools := map[string]*persistence.Database{"api": apiDB}
	if loopDB != apiDB {
		pools["events"] = loopDB
	}
	for name, db := range pools {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to access database handle", zap.Error(err))
		}
		poolMetrics, err := telemetry.NewPoolMetrics(meter, name, sqlDB.Stats)
		if err != nil {
			log.Warn("Failed to register pool metrics", zap.String("pool", name), zap.Error(err))
			continue
		}
		defer func() { _ = poolMetrics.Close() }()
	}

	// Event pipeline
	queue := event.NewQueue(cfg.Event.QueueCapacity)
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	publisher := event.NewQueuePublisher(queue, serializer, log)

	eventMetrics, err := telemetry.NewEventMetrics(meter, queue.Len)
	if err != nil {
		log.Fatal("Failed to register event metrics", zap.Error(err))
	}
	defer func() { _ = eventMetrics.Close() }()

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() { _ = idempotencyStore.Close() }()

	loopRepo := persistence.NewGormFundRepository(loopDB.DB)
	checker := fundapp.NewDuplicateChecker(loopRepo, loopRepo, publisher, log)
	duplicateHandler := event.NewIdempotentHandler(
		fundapp.NewFundDuplicateHandler(log).WithNotifier(fundapp.NewLoggingDuplicateNotifier(log)),
		idempotencyStore,
		log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Event.DuplicateTTL, Enabled: true}),
		event.WithSkipRecorder(eventMetrics),
	)

	loop := event.NewLoop(queue, serializer, event.LoopConfig{
		PollInterval:   cfg.Event.PollInterval,
		BatchSize:      cfg.Event.BatchSize,
		HandlerTimeout: cfg.Event.HandlerTimeout,
	}, log, event.WithRecorder(eventMetrics))
	loop.Subscribe(fundapp.NewFundCreatedHandler(checker), fund.EventTypeCreated)
	loop.Subscribe(duplicateHandler, fund.EventTypeDuplicate)

	if err := loop.Start(ctx); err != nil {
		log.Fatal("Failed to start event loop", zap.Error(err))
	}
	log.Info("Event loop started",
		zap.Duration("poll_interval", cfg.Event.PollInterval),
		zap.Int("batch_size", cfg.Event.BatchSize),
		zap.Int("queue_capacity", cfg.Event.QueueCapacity),
	)

	// HTTP
	apiRepo := persistence.NewGormFundRepository(apiDB.DB)
	engine, err := router.NewEngine(ctx, router.EngineConfig{
		Env:       cfg.App.Env,
		HTTP:      cfg.HTTP,
		Telemetry: cfg.Telemetry,
		Logger:    log,
		Meter:     meter,
	}, router.Handlers{
		Funds:  handler.NewFundHandler(fundapp.NewFundService(apiRepo, publisher, log)),
		System: handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion, apiDB, queue),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           cfg.App.Addr(),
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests first so no event is queued after the loop stops
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	queue.Close()
	if err := loop.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event loop", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openDatabase opens a pool with query logging and tracing attached
func openDatabase(cfg *config.Config, log *zap.Logger, name string) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
		logger.WithPool(name),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return nil, err
	}

	tracing := telemetry.NewDBTracing(cfg.Telemetry, log)
	if err := tracing.Register(db.DB, db.Dialect(), name); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("Database connected", zap.String("pool", name), zap.String("dialect", db.Dialect()))
	return db, nil
}

func closeDatabase(db *persistence.Database, log *zap.Logger) {
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
}

// isMemoryDatabase reports whether every connection would see its own empty
// database, in which case the event loop shares the API pool.
func isMemoryDatabase(cfg *config.DatabaseConfig) bool {
	return cfg.Dialect() == config.DialectSQLite && cfg.SQLitePath() == ":memory:"
}
