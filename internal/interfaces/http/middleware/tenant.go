package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/logger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Tenant headers and context key
const (
	TenantContextKey     = "tenant_context"
	TenantIDHeader       = "X-Tenant-ID"
	UserIDHeader         = "X-User-ID"
	CurrencyHeader       = "X-Currency"
	IdempotencyKeyHeader = "Idempotency-Key"
)

// TenantMiddlewareConfig configures TenantResolver
type TenantMiddlewareConfig struct {
	DefaultCurrency string
	// HeaderFallback accepts X-Tenant-ID when no token was presented
	HeaderFallback bool
	SkipPaths      []string
	Logger         *zap.Logger
}

// TenantResolver builds the shared.TenantContext for the request.
// Resolution order: JWT claims, then X-Tenant-ID. Currency comes from the
// token, the X-Currency header or the configured default.
func TenantResolver(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		tc, source, err := resolveTenant(c, cfg)
		if err != nil {
			log.Debug("Tenant resolution failed", zap.String("path", path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeNoTenant, err.Error(), GetRequestID(c)))
			return
		}

		c.Set(TenantContextKey, tc)

		// the gin logger is stored without trace fields; FromContext adds them
		reqLogger := log
		if v, ok := c.Get("logger"); ok {
			if l, ok := v.(*zap.Logger); ok {
				reqLogger = l
			}
		}
		ctx, reqLogger := logger.WithTenantID(c.Request.Context(), reqLogger, tc.TenantID.String())
		if tc.UserID != uuid.Nil {
			ctx, reqLogger = logger.WithUserID(ctx, reqLogger, tc.UserID.String())
		}
		c.Set("logger", reqLogger)
		c.Request = c.Request.WithContext(ctx)

		log.Debug("Tenant identified",
			zap.String("tenant_id", tc.TenantID.String()),
			zap.String("source", source),
		)
		c.Next()
	}
}

type tenantError string

func (e tenantError) Error() string { return string(e) }

func resolveTenant(c *gin.Context, cfg TenantMiddlewareConfig) (shared.TenantContext, string, error) {
	var (
		tenantID, userID uuid.UUID
		currency         string
		permissions      []string
	)
	source := "jwt"

	if claims := GetJWTClaims(c); claims != nil {
		tenantID = claims.TenantUUID()
		userID = claims.UserUUID()
		permissions = claims.Permissions
		currency = claims.Currency
	} else {
		if !cfg.HeaderFallback {
			return shared.TenantContext{}, "", tenantError("Authentication required")
		}
		source = "header"
		raw := c.GetHeader(TenantIDHeader)
		if raw == "" {
			return shared.TenantContext{}, "", tenantError("Tenant identification required")
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			return shared.TenantContext{}, "", tenantError("Invalid tenant ID format")
		}
		tenantID = id

		if rawUser := c.GetHeader(UserIDHeader); rawUser != "" {
			id, err := uuid.Parse(rawUser)
			if err != nil {
				return shared.TenantContext{}, "", tenantError("Invalid user ID format")
			}
			userID = id
		}
	}

	if currency == "" {
		currency = strings.ToUpper(strings.TrimSpace(c.GetHeader(CurrencyHeader)))
	}
	if currency == "" {
		currency = cfg.DefaultCurrency
	}
	if !isCurrencyCode(currency) {
		return shared.TenantContext{}, "", tenantError("Invalid currency code")
	}

	tc := shared.NewTenantContext(tenantID, currency)
	tc.UserID = userID
	tc.Permissions = permissions
	return tc, source, nil
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// GetTenantContext returns the context stored by TenantResolver
func GetTenantContext(c *gin.Context) (shared.TenantContext, bool) {
	v, ok := c.Get(TenantContextKey)
	if !ok {
		return shared.TenantContext{}, false
	}
	tc, ok := v.(shared.TenantContext)
	return tc, ok
}
