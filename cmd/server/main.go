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
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	appinvoicing "github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/application/invoicing"
	appledger "github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/application/ledger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/auth"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/cache"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/config"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/event"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/lock"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/logger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/persistence"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/telemetry"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/handler"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/router"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting SmartAccountant invoicing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Database.SlowThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			DBName:          cfg.Database.DBName,
			WithVariables:   cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := plugin.Register(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	guard := newMutationGuard(cfg.Invoicing, redisClient, log)
	idempotency := newIdempotencyStore(redisClient)
	defer func() { _ = idempotency.Close() }()

	service := appinvoicing.NewReconciliationService(
		persistence.NewGormTransactionScope(db.DB, cfg.Invoicing.AllowNegativeStock),
		persistence.NewGormInvoiceRepository(db.DB),
		persistence.NewGormPaymentRepository(db.DB),
		persistence.NewGormActivityRepository(db.DB),
		guard,
		appinvoicing.Config{
			ConflictRetries: cfg.Invoicing.ConflictRetries,
			DefaultCurrency: cfg.Invoicing.DefaultCurrency,
		},
	)

	meter := meterProvider.Meter("smartaccountant.invoicing")
	invoiceMetrics, err := telemetry.NewInvoiceMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create invoice metrics", zap.Error(err))
	}
	service.SetInvoiceMetrics(invoiceMetrics)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(appinvoicing.NewActivityProjector(
		persistence.NewGormActivityRepository(db.DB),
		idempotency,
		cfg.Invoicing.IdempotencyTTL,
		log,
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	service.SetEventPublisher(eventBus)

	ledgerService := appledger.NewLedgerService(
		persistence.NewGormBalanceLedger(db.DB),
		persistence.NewGormStockLedger(db.DB, cfg.Invoicing.AllowNegativeStock),
	)

	var validator *auth.TokenValidator
	if cfg.JWT.Enabled {
		validator = auth.NewTokenValidator(cfg.JWT)
	} else {
		log.Warn("JWT disabled, tenants are identified by the X-Tenant-ID header")
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:          log,
		HTTP:            cfg.HTTP,
		ServiceName:     cfg.Telemetry.ServiceName,
		TracingEnabled:  tracerProvider.IsEnabled(),
		TracerProvider:  otel.GetTracerProvider(),
		Meter:           meter,
		Validator:       validator,
		DefaultCurrency: cfg.Invoicing.DefaultCurrency,
	}, router.Handlers{
		Invoices: handler.NewInvoiceHandler(service),
		Payments: handler.NewPaymentHandler(service),
		Ledger:   handler.NewLedgerHandler(ledgerService),
		Health:   handler.NewHealthHandler(db, version),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
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
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func newMutationGuard(cfg config.InvoicingConfig, client *redis.Client, log *zap.Logger) appinvoicing.MutationGuard {
	if cfg.LockBackend == config.LockBackendRedis {
		log.Info("Using Redis invoice guard", zap.Duration("ttl", cfg.LockTTL))
		return lock.NewRedisGuard(client, cfg.LockTTL, cfg.LockWait, lock.WithLogger(log))
	}
	log.Info("Using in-process invoice guard")
	return lock.NewKeyedMutex(cfg.LockWait)
}

func newIdempotencyStore(client *redis.Client) shared.IdempotencyStore {
	if client != nil {
		return cache.NewRedisIdempotencyStore(client, "sa:idem:")
	}
	return cache.NewInMemoryIdempotencyStore(time.Minute)
}
