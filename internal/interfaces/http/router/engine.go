package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/auth"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/config"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/logger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/handler"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// HealthPath is served outside the versioned API and skips authentication
const HealthPath = "/health"

// EngineConfig carries what the HTTP engine needs from the composition root
type EngineConfig struct {
	Logger          *zap.Logger
	HTTP            config.HTTPConfig
	ServiceName     string
	TracingEnabled  bool
	TracerProvider  trace.TracerProvider
	Meter           metric.Meter
	Validator       *auth.TokenValidator
	DefaultCurrency string
}

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Invoices *handler.InvoiceHandler
	Payments *handler.PaymentHandler
	Ledger   *handler.LedgerHandler
	Health   *handler.HealthHandler
}

// NewEngine builds the gin engine with the full middleware chain and every
// route mounted. Without a token validator the tenant is read from the
// X-Tenant-ID header.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName:    cfg.ServiceName,
			Enabled:        cfg.TracingEnabled,
			TracerProvider: cfg.TracerProvider,
		}),
		logger.GinMiddleware(log),
		middleware.SecureHeaders(),
		middleware.CORS(corsConfig(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if cfg.Meter != nil {
		metrics, err := middleware.HTTPMetrics(cfg.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create http metrics: %w", err)
		}
		engine.Use(metrics)
	}

	if h.Health != nil {
		engine.GET(HealthPath, h.Health.Check)
	}

	r := NewRouter(engine, WithAPIMiddleware(
		middleware.JWTAuth(middleware.JWTMiddlewareConfig{
			Validator: cfg.Validator,
			Required:  cfg.Validator != nil,
			Logger:    log,
		}),
		middleware.TenantResolver(middleware.TenantMiddlewareConfig{
			DefaultCurrency: cfg.DefaultCurrency,
			HeaderFallback:  cfg.Validator == nil,
			Logger:          log,
		}),
		middleware.TraceAttributes(),
	))
	registerRoutes(r, h)
	r.Setup()

	return engine, nil
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}
