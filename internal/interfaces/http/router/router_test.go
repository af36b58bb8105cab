package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ledgerapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/handler"
	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	var calls []string
	r.Use(func(c *gin.Context) {
		calls = append(calls, "api")
		c.Next()
	})

	group := NewDomainGroup("orders", "/orders")
	group.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.Register(group).Setup()
	engine.GET("/outside", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outside", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"api"}, calls, "router middleware must not wrap engine routes")
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("expenses", "/expenses")
		assert.Equal(t, "expenses", g.Name())
		assert.Equal(t, "/expenses", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("transactions", "/transactions")
		ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
		g.GET("/:id", ok).POST("", ok).PUT("/:id", ok).PATCH("/:id", ok).DELETE("/:id", ok)
		assert.Equal(t, 5, g.Routes())
		g.RegisterRoutes(engine.Group("/api/v1"))

		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/transactions/42", nil))
			assert.Equal(t, http.StatusOK, w.Code, method)
			assert.Equal(t, method, w.Body.String())
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("group middleware and subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("imports", "/imports")
		g.Use(func(c *gin.Context) {
			c.Header("X-Group", "imports")
			c.Next()
		})
		g.Group("history", "/history").GET("/latest", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/imports/history/latest", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "imports", w.Header().Get("X-Group"))
	})
}

type pinger struct{ err error }

func (p pinger) Ping() error { return p.err }

func newEngine(t *testing.T, mutate func(*Config)) *gin.Engine {
	t.Helper()
	store := persistence.NewGormStore(persistencetest.NewDB(t))
	log := zap.NewNop()

	cfg := Config{
		CORS:     middleware.DefaultCORSConfig(),
		Security: middleware.DefaultSecurityConfig(),
		Auth:     middleware.AuthConfig{AllowHeaderFallback: true},
		Logger:   log,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New(cfg, Handlers{
		Ledger: handler.NewLedgerHandler(ledgerapp.NewService(store, ledgerapp.NewBalanceMaintainer(log), log)),
		System: handler.NewSystemHandler("Trade Books API", "test", pinger{}),
	})
	require.NoError(t, err)
	return engine
}

func get(engine *gin.Engine, path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNew_PublicRoutes(t *testing.T) {
	engine := newEngine(t, nil)

	for _, path := range []string{"/health", "/ready", "/api/v1/system/info"} {
		w := get(engine, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	}

	w := get(engine, "/swagger/index.html")
	assert.Equal(t, http.StatusNotFound, w.Code, "swagger is off unless enabled")
}

func TestNew_TenantRoutesRequireCaller(t *testing.T) {
	engine := newEngine(t, nil)

	w := get(engine, "/api/v1/bank-accounts")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(engine, "/api/v1/bank-accounts", middleware.TenantHeader, uuid.NewString())
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = get(engine, "/api/v1/unknown", middleware.TenantHeader, uuid.NewString())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNew_RateLimitPerTenant(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)
	engine := newEngine(t, func(cfg *Config) { cfg.RateLimiter = limiter })

	tenantA, tenantB := uuid.NewString(), uuid.NewString()
	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/bank-accounts", middleware.TenantHeader, tenantA).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(engine, "/api/v1/bank-accounts", middleware.TenantHeader, tenantA).Code)
	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/bank-accounts", middleware.TenantHeader, tenantB).Code)
	assert.Equal(t, http.StatusOK, get(engine, "/health").Code, "probes are not rate limited")
}

func TestNew_ReadyReportsDatabase(t *testing.T) {
	engine, err := New(Config{Logger: zap.NewNop()}, Handlers{
		System: handler.NewSystemHandler("Trade Books API", "test", pinger{err: errors.New("connection refused")}),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(engine, "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(engine, "/ready").Code)
}

func TestNew_InvalidTrustedProxy(t *testing.T) {
	_, err := New(Config{TrustedProxies: []string{"not-an-ip"}}, Handlers{})
	assert.Error(t, err)
}
