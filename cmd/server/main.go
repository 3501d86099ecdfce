package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appfinance "github.com/immo/backend/internal/application/finance"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/infrastructure/cache"
	"github.com/immo/backend/internal/infrastructure/config"
	"github.com/immo/backend/internal/infrastructure/event"
	"github.com/immo/backend/internal/infrastructure/logger"
	"github.com/immo/backend/internal/infrastructure/persistence"
	"github.com/immo/backend/internal/infrastructure/scheduler"
	"github.com/immo/backend/internal/infrastructure/telemetry"
	"github.com/immo/backend/internal/interfaces/http/handler"
	"github.com/immo/backend/internal/interfaces/http/middleware"
	"github.com/immo/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, cfg.App.Name)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()
	tel := cfg.Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tel.Enabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		SamplingRatio:     tel.SamplingRatio,
		ServiceName:       tel.ServiceName,
		ServiceVersion:    version,
		Insecure:          tel.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tel.Enabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		ExportInterval:    tel.MetricsInterval,
		ServiceName:       tel.ServiceName,
		ServiceVersion:    version,
		Insecure:          tel.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tel.Enabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		ServiceName:       tel.ServiceName,
		ServiceVersion:    version,
		Insecure:          tel.Insecure,
		Level:             zapcore.InfoLevel,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = loggerProvider.Bridge(log)
	defer func() {
		for _, shutdown := range []func(context.Context) error{
			loggerProvider.Shutdown, meterProvider.Shutdown, tracerProvider.Shutdown,
		} {
			if err := shutdown(context.Background()); err != nil {
				log.Error("Error shutting down telemetry", zap.Error(err))
			}
		}
	}()

	log.Info("Starting payment reconciliation backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	if tel.Enabled {
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
			Enabled:         tel.DBTraceEnabled,
			LogFullSQL:      tel.DBLogFullSQL,
			SlowQueryThresh: tel.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Payment, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	repos := persistence.NewRepositories(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB, cfg.Payment.LockTimeout)

	projectService := appfinance.NewProjectService(repos, txScope, log)
	saleService := appfinance.NewSaleService(repos, txScope, log)
	ledgerService := appfinance.NewLedgerService(repos, txScope, log)
	checkService := appfinance.NewCheckService(repos, txScope, log)
	ledgerService.SetIdempotencyStore(idempotencyStore, cfg.Payment.IdempotencyTTL)
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter(telemetry.MeterName))
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}
	ledgerService.SetObserver(ledgerMetrics)

	// Events are published after commit; redeliveries are dropped by event id.
	eventBus := event.NewInMemoryEventBus(log)
	auditHandler := event.NewIdempotentHandler(appfinance.NewPaymentAuditHandler(log), idempotencyStore, log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Payment.IdempotencyTTL, Enabled: true}),
	)
	eventBus.Subscribe(auditHandler)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	for _, svc := range []interface{ SetEventPublisher(shared.EventPublisher) }{
		projectService, saleService, ledgerService, checkService,
	} {
		svc.SetEventPublisher(eventBus)
	}
	log.Info("Event handlers registered", zap.Strings("audit_events", auditHandler.EventTypes()))

	if cfg.Payment.OverdueSweepEnabled {
		hour, minute, err := scheduler.ParseDailySchedule(cfg.Payment.OverdueSweepSchedule)
		if err != nil {
			log.Fatal("Invalid overdue sweep schedule", zap.Error(err))
		}
		sweepConfig := scheduler.DefaultOverdueSweeperConfig()
		sweepConfig.Hour, sweepConfig.Minute = hour, minute
		sweeper := scheduler.NewOverdueSweeper(sweepConfig,
			persistence.NewGormInstallmentRepository(db.DB), ledgerService, log)
		if err := sweeper.Start(ctx); err != nil {
			log.Fatal("Failed to start overdue sweeper", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := sweeper.Stop(stopCtx); err != nil {
				log.Error("Error stopping overdue sweeper", zap.Error(err))
			}
		}()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	var outer gin.HandlersChain
	if tel.Enabled {
		outer = middleware.Tracing(tel.ServiceName)
	}
	engine := router.NewEngine(cfg.HTTP, log, outer...)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(
			handler.NewSystemHandler(cfg.App.Name, version, db),
			handler.NewProjectHandler(projectService),
			handler.NewSaleHandler(saleService, ledgerService),
			handler.NewPaymentHandler(ledgerService),
			handler.NewCheckHandler(checkService),
		).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
