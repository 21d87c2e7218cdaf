package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/bms/backend/internal/application/billing"
	collectionapp "github.com/bms/backend/internal/application/collection"
	propertyapp "github.com/bms/backend/internal/application/property"
	"github.com/bms/backend/internal/infrastructure/cache"
	"github.com/bms/backend/internal/infrastructure/config"
	"github.com/bms/backend/internal/infrastructure/logger"
	"github.com/bms/backend/internal/infrastructure/migration"
	"github.com/bms/backend/internal/infrastructure/notification"
	"github.com/bms/backend/internal/infrastructure/persistence"
	"github.com/bms/backend/internal/infrastructure/scheduler"
	"github.com/bms/backend/internal/interfaces/http/handler"
	"github.com/bms/backend/internal/interfaces/http/middleware"
	"github.com/bms/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting BMS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Optionally apply pending migrations on boot
	if cfg.Database.AutoMigrate {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to get sql.DB for migrations", zap.Error(err))
		}
		migrator, err := migration.New(sqlDB, cfg.Database.MigrationsPath, log)
		if err != nil {
			log.Fatal("Failed to create migrator", zap.Error(err))
		}
		if err := migrator.Up(); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Initialize repositories
	buildingRepo := persistence.NewGormBuildingRepository(db.DB)
	apartmentRepo := persistence.NewGormApartmentRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	obligationRepo := persistence.NewGormObligationRepository(db.DB)
	stageRepo := persistence.NewGormStageRepository(db.DB)
	logRepo := persistence.NewGormLogRepository(db.DB)

	// Transaction scopes
	billingTxScope := persistence.NewGormBillingTransactionScope(db.DB)
	collectionTxScope := persistence.NewGormCollectionTransactionScope(db.DB)

	// Stage cache (memory or Redis, per config)
	stageCache := cache.NewStageCache(*cfg, stageRepo, log)

	// Collection notifier
	notifier := notification.NewLogNotifier(cfg.Notification, log)

	// Initialize application services
	propertyService := propertyapp.NewPropertyService(buildingRepo, apartmentRepo)
	expenseService := billingapp.NewExpenseService(billingTxScope, buildingRepo, expenseRepo, log)
	ledgerService := billingapp.NewLedgerService(billingTxScope, apartmentRepo, obligationRepo, log)
	paymentService := billingapp.NewPaymentService(billingTxScope, log)
	stageService := collectionapp.NewStageService(stageRepo, stageCache, log)
	collectionService := collectionapp.NewCollectionService(
		collectionTxScope, apartmentRepo, stageCache, stageRepo, logRepo, notifier, log,
	)

	// Billing scheduler (collection scans, recurring expenses, subscription dues)
	schedulerConfig := scheduler.DefaultBillingSchedulerConfig()
	schedulerConfig.Enabled = cfg.Scheduler.Enabled
	schedulerConfig.CollectionInterval = cfg.Scheduler.CollectionInterval
	schedulerConfig.RecurringInterval = cfg.Scheduler.RecurringInterval
	schedulerConfig.SubscriptionInterval = cfg.Scheduler.SubscriptionInterval
	billingScheduler := scheduler.NewBillingScheduler(
		collectionService, expenseService, ledgerService, schedulerConfig, log,
	)
	if cfg.Scheduler.Enabled {
		if err := billingScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start billing scheduler", zap.Error(err))
		}
		defer func() {
			if err := billingScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping billing scheduler", zap.Error(err))
			}
		}()
		log.Info("Billing scheduler started",
			zap.Duration("collection_interval", schedulerConfig.CollectionInterval),
			zap.Duration("recurring_interval", schedulerConfig.RecurringInterval),
			zap.Duration("subscription_interval", schedulerConfig.SubscriptionInterval),
		)
	}

	// Initialize HTTP handlers
	propertyHandler := handler.NewPropertyHandler(propertyService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	collectionHandler := handler.NewCollectionHandler(stageService, collectionService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Register custom binding rules (billing_month etc.)
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID first so recovery and logging can tag entries
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(propertyHandler).
		Register(expenseHandler).
		Register(paymentHandler).
		Register(ledgerHandler).
		Register(collectionHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for the liveness endpoint
func healthHandler(db *persistence.Database, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
