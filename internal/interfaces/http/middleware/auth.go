package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/auth"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/logger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/dto"
)

// Auth context keys and headers
const (
	ClaimsKey     = "auth_claims"
	TenantIDKey   = "auth_tenant_id"
	UserIDKey     = "auth_user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	TenantHeader  = "X-Tenant-ID"
	UserHeader    = "X-User-ID"
)

// ErrNoCredentials is reported when a request carries neither a token nor
// an accepted tenant header
var ErrNoCredentials = errors.New("missing credentials")

// AuthConfig holds configuration for the tenant authentication middleware
type AuthConfig struct {
	// Validator checks bearer tokens; nil rejects every token
	Validator *auth.Validator
	// AllowHeaderFallback accepts X-Tenant-ID (and X-User-ID) when no
	// token is sent. Never enable it where the API is reachable directly.
	AllowHeaderFallback bool
	// SkipPaths are exact paths served without a tenant
	SkipPaths []string
	// SkipPathPrefixes are path prefixes served without a tenant
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// Auth resolves the calling tenant and user. Every books route is tenant
// scoped, so a request without a tenant never reaches a handler.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, p := range cfg.SkipPaths {
			if path == p {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		tenantID, userID, claims, err := resolveCaller(c, cfg)
		if err != nil {
			abortUnauthorized(c, cfg.Logger, err)
			return
		}

		if claims != nil {
			c.Set(ClaimsKey, claims)
		}
		c.Set(TenantIDKey, tenantID)
		c.Set(UserIDKey, userID)

		ctx := logger.WithTenantID(c.Request.Context(), tenantID.String())
		if userID != uuid.Nil {
			ctx = logger.WithUserID(ctx, userID.String())
		}
		c.Request = c.Request.WithContext(ctx)

		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(attribute.String("tenant_id", tenantID.String()))
			if userID != uuid.Nil {
				span.SetAttributes(attribute.String("user_id", userID.String()))
			}
		}

		c.Next()
	}
}

func resolveCaller(c *gin.Context, cfg AuthConfig) (uuid.UUID, uuid.UUID, *auth.Claims, error) {
	header := c.GetHeader(AuthHeaderKey)
	if header != "" {
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" || cfg.Validator == nil {
			return uuid.Nil, uuid.Nil, nil, auth.ErrInvalidToken
		}
		claims, err := cfg.Validator.Validate(strings.TrimSpace(token))
		if err != nil {
			return uuid.Nil, uuid.Nil, nil, err
		}
		tenantID, _ := claims.TenantUUID()
		userID, _ := claims.UserUUID()
		return tenantID, userID, claims, nil
	}

	if !cfg.AllowHeaderFallback {
		return uuid.Nil, uuid.Nil, nil, ErrNoCredentials
	}
	tenantID, err := uuid.Parse(c.GetHeader(TenantHeader))
	if err != nil || tenantID == uuid.Nil {
		return uuid.Nil, uuid.Nil, nil, ErrNoCredentials
	}
	userID := uuid.Nil
	if raw := c.GetHeader(UserHeader); raw != "" {
		if userID, err = uuid.Parse(raw); err != nil {
			return uuid.Nil, uuid.Nil, nil, auth.ErrInvalidClaims
		}
	}
	return tenantID, userID, nil, nil
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error) {
	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	case errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrMissingTenantID), errors.Is(err, auth.ErrMissingUserID):
		code, message = dto.ErrCodeTokenInvalid, "Token does not identify a tenant and user"
	}

	logger.For(c.Request.Context(), log).Warn("Authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetTenantID returns the tenant Auth resolved
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(TenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// GetUserID returns the acting user, uuid.Nil when the caller sent none
func GetUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetClaims returns the validated token claims, nil for header callers
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
