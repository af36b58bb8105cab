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
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/huzaifanasir-fabtechsol/backend/docs"
	expenseapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/expense"
	"github.com/huzaifanasir-fabtechsol/backend/internal/application/importapp"
	ledgerapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/ledger"
	revenueapp "github.com/huzaifanasir-fabtechsol/backend/internal/application/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/auth"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/cache"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/config"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/event"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/fetch"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/logger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/migration"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/storage"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/telemetry"
	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/handler"
	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/middleware"
	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/router"
	"github.com/huzaifanasir-fabtechsol/backend/migrations"
)

//go:generate swag init -g cmd/server/main.go -d ../../ -o ../../docs --v3.1

//	@title			Trade Books API
//	@version		1.0
//	@description	Multi-tenant bookkeeping for a vehicle trading business: bank ledgers, trade orders, expenses and statement reconciliation.

//	@contact.name	API Support
//	@contact.url	https://github.com/huzaifanasir-fabtechsol/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: time.RFC3339,
	})
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    serviceVersion,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if lp := providers.LoggerProvider(); lp != nil {
		log = telemetry.BridgeLogger(log, lp, cfg.Telemetry.ServiceName, zapcore.InfoLevel)
	}

	log.Info("Starting trade books server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("timezone", cfg.App.Location().String()),
	)

	if cfg.Telemetry.ProfilingEnabled {
		profiler, err := telemetry.StartProfiler(telemetry.ProfilerConfig{
			Enabled:         true,
			ServerAddress:   cfg.Telemetry.PyroscopeEndpoint,
			ApplicationName: cfg.Telemetry.ServiceName,
		}, log)
		if err != nil {
			log.Warn("Failed to start profiler", zap.Error(err))
		} else {
			defer profiler.Stop()
			providers.EnableSpanProfiles()
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.InstrumentDB(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	if err := migrateSchema(db, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// Stores and services
	store := persistence.NewGormStore(db.DB)
	balances := ledgerapp.NewBalanceMaintainer(log)

	ledgerService := ledgerapp.NewService(store, balances, log)
	orderService := revenueapp.NewOrderService(
		store,
		revenueapp.NewEntityResolver(log),
		revenue.NewFeeScheduleRegistry(),
		revenueapp.OrderServiceConfig{
			Location: cfg.App.Location(),
			Issuer: revenue.IssuingCompanyProfile{
				Name:    cfg.Company.Name,
				Email:   cfg.Company.Email,
				Phone:   cfg.Company.Phone,
				Website: cfg.Company.Website,
				Address: cfg.Company.Address,
			},
		},
		log,
	)
	reportService := revenueapp.NewReportService(store, cfg.App.Location(), log)
	expenseService := expenseapp.NewService(store, log)

	profiles, err := importapp.NewProfileRegistry(feedProfiles(cfg.Import.Profiles)...)
	if err != nil {
		log.Fatal("Invalid feed profile configuration", zap.Error(err))
	}
	importService := importapp.NewService(store, balances, profiles, importapp.ServiceConfig{
		MaxFileSize:    cfg.Import.MaxFileSize,
		MaxErrors:      cfg.Import.MaxErrors,
		IdempotencyTTL: cfg.Import.IdempotencyTTL,
	}, log)

	idempotency, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	importService.SetIdempotencyStore(idempotency)

	if cfg.Storage.Enabled {
		archive, err := storage.NewS3FeedArchive(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(15*time.Minute),
		)
		if err != nil {
			log.Fatal("Failed to create feed archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Warn("Feed archive bucket is not ready, archiving may fail", zap.Error(err))
		}
		importService.SetArchive(archive)
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	metrics, err := telemetry.NewBusinessMetrics(providers.Meter("books"))
	if err != nil {
		log.Warn("Business metrics unavailable", zap.Error(err))
	} else {
		eventBus.Subscribe(metrics)
	}
	ledgerService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)
	importService.SetEventPublisher(eventBus)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// HTTP
	middleware.SetupValidator()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var validator *auth.Validator
	if cfg.JWT.Secret != "" {
		validator, err = auth.NewValidator(cfg.JWT)
		if err != nil {
			log.Fatal("Failed to create token validator", zap.Error(err))
		}
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:      cfg.Import.FetchTimeout,
		MaxBytes:     cfg.Import.MaxFileSize,
		AllowedHosts: cfg.Import.FetchAllowedHosts,
		AllowPrivate: cfg.Import.FetchAllowPrivate,
	}, fetch.WithLogger(log))

	engine, err := router.New(router.Config{
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		CORS:     cors,
		Security: middleware.DefaultSecurityConfig(),
		Auth: middleware.AuthConfig{
			Validator:           validator,
			AllowHeaderFallback: cfg.JWT.AllowHeaderFallback,
			Logger:              log,
		},
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		RateLimiter:    limiter,
		Logger:         log,
	}, router.Handlers{
		Ledger:   handler.NewLedgerHandler(ledgerService),
		Orders:   handler.NewOrderHandler(orderService),
		Reports:  handler.NewReportHandler(reportService),
		Expenses: handler.NewExpenseHandler(expenseService),
		Imports:  handler.NewImportHandler(importService, fetcher, cfg.Import.MaxFileSize),
		System:   handler.NewSystemHandler(cfg.App.Name, serviceVersion, db),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
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
		log.Error("Failed to stop event bus", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush telemetry", zap.Error(err))
	}

	log.Info("Server exited")
}

// migrateSchema applies the embedded migrations on postgres. sqlite, used
// for local runs, gets its schema from the models instead.
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver != "postgres" {
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared connection pool
	return m.Up()
}
