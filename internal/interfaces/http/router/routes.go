package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/logger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/handler"
	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers the API routes to
type Handlers struct {
	Ledger   *handler.LedgerHandler
	Orders   *handler.OrderHandler
	Reports  *handler.ReportHandler
	Expenses *handler.ExpenseHandler
	Imports  *handler.ImportHandler
	System   *handler.SystemHandler
}

// Config is the middleware configuration of the engine
type Config struct {
	Tracing        middleware.TracingConfig
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	Auth           middleware.AuthConfig
	Swagger        middleware.SwaggerConfig
	MaxBodySize    int64
	TrustedProxies []string
	// RateLimiter limits API calls per tenant; nil disables rate limiting
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// New builds the engine: the shared middleware chain, health probes,
// swagger and every books route under /api/v1
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = log
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return nil, err
		}
	}

	// Order matters: request ids and spans exist before anything logs
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Tracing))
	engine.Use(middleware.SpanStatus())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure(cfg.Security))
	engine.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET("/ready", h.System.Ready)
	}

	swaggerAuth := middleware.Auth(middleware.AuthConfig{
		Validator:           cfg.Auth.Validator,
		AllowHeaderFallback: cfg.Auth.AllowHeaderFallback,
		Logger:              cfg.Auth.Logger,
	})
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, swaggerAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))
	cfg.Auth.SkipPaths = append(cfg.Auth.SkipPaths, r.BasePath()+"/system/info")
	r.Use(middleware.Auth(cfg.Auth))
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	for _, group := range domainGroups(h) {
		r.Register(group)
	}
	r.Setup()
	return engine, nil
}

func domainGroups(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	if h.Ledger != nil {
		accounts := NewDomainGroup("bank-accounts", "/bank-accounts")
		accounts.POST("", h.Ledger.CreateAccount)
		accounts.GET("", h.Ledger.ListAccounts)
		accounts.GET("/:id", h.Ledger.GetAccount)
		accounts.PUT("/:id", h.Ledger.UpdateAccount)
		accounts.DELETE("/:id", h.Ledger.DeleteAccount)
		accounts.GET("/:id/statement", h.Ledger.Statement)
		accounts.GET("/:id/verify", h.Ledger.VerifyChain)

		transactions := NewDomainGroup("transactions", "/transactions")
		transactions.POST("", h.Ledger.CreateTransaction)
		transactions.GET("", h.Ledger.ListTransactions)
		transactions.GET("/:id", h.Ledger.GetTransaction)
		transactions.PATCH("/:id", h.Ledger.UpdateTransaction)
		transactions.DELETE("/:id", h.Ledger.DeleteTransaction)

		groups = append(groups, accounts, transactions)
	}

	if h.Orders != nil {
		orders := NewDomainGroup("orders", "/orders")
		orders.POST("", h.Orders.Create)
		orders.GET("", h.Orders.List)
		orders.GET("/:id", h.Orders.GetByID)
		orders.PUT("/:id", h.Orders.Update)
		orders.DELETE("/:id", h.Orders.Delete)
		orders.PATCH("/:id/payment-status", h.Orders.UpdatePaymentStatus)
		orders.GET("/:id/invoice", h.Orders.Invoice)
		groups = append(groups, orders)
	}

	if h.Reports != nil {
		reports := NewDomainGroup("reports", "/reports")
		reports.GET("/dashboard", h.Reports.Dashboard)
		reports.GET("/summary", h.Reports.FinancialSummary)
		groups = append(groups, reports)
	}

	if h.Expenses != nil {
		categories := NewDomainGroup("expense-categories", "/expense-categories")
		categories.POST("", h.Expenses.CreateCategory)
		categories.GET("", h.Expenses.ListCategories)
		categories.PUT("/:id", h.Expenses.UpdateCategory)
		categories.DELETE("/:id", h.Expenses.DeleteCategory)

		expenses := NewDomainGroup("expenses", "/expenses")
		expenses.POST("", h.Expenses.Create)
		expenses.GET("", h.Expenses.List)
		expenses.GET("/:id", h.Expenses.GetByID)
		expenses.PUT("/:id", h.Expenses.Update)
		expenses.DELETE("/:id", h.Expenses.Delete)

		groups = append(groups, categories, expenses)
	}

	if h.Imports != nil {
		imports := NewDomainGroup("imports", "/imports")
		imports.GET("/profiles", h.Imports.Profiles)
		imports.POST("/upload", h.Imports.Upload)
		imports.POST("/text", h.Imports.Text)
		imports.POST("/url", h.Imports.URL)
		imports.GET("", h.Imports.ListHistory)
		imports.GET("/:id", h.Imports.GetHistory)
		imports.GET("/:id/archive", h.Imports.ArchiveLink)
		groups = append(groups, imports)
	}

	if h.System != nil {
		system := NewDomainGroup("system", "/system")
		system.GET("/info", h.System.GetSystemInfo)
		groups = append(groups, system)
	}

	return groups
}
