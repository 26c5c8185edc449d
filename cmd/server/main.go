package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	patientapp "github.com/clinic/backend/internal/application/patient"
	vipapp "github.com/clinic/backend/internal/application/vip"
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/domain/vip"
	"github.com/clinic/backend/internal/infrastructure/cache"
	"github.com/clinic/backend/internal/infrastructure/config"
	"github.com/clinic/backend/internal/infrastructure/logger"
	"github.com/clinic/backend/internal/infrastructure/persistence"
	"github.com/clinic/backend/internal/infrastructure/telemetry"
	"github.com/clinic/backend/internal/interfaces/http/handler"
	"github.com/clinic/backend/internal/interfaces/http/middleware"
	"github.com/clinic/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Clinic Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register database tracing when telemetry is on
	if cfg.Telemetry.Enabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			SlowQueryThresh:  200 * time.Millisecond,
			DBSystem:         "postgresql",
			WithoutVariables: true,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize repositories and ledger/directory gateways
	patientRepo := persistence.NewGormPatientRepository(db.DB)
	designationRepo := persistence.NewGormDesignationRepository(db.DB)
	ledgerGateway := persistence.NewGormLedgerGateway(db.DB)
	directoryGateway := persistence.NewGormDirectoryGateway(db.DB)
	identityRegistry := persistence.NewIdentityRegistry(directoryGateway)

	// Idempotency store for commit deduplication: Redis when enabled,
	// in-memory otherwise. In production an unreachable Redis is fatal;
	// elsewhere the factory falls back to the in-memory store.
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(cfg.App.Env != "production"),
		)
		idempotencyStore, err = storeFactory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Info("Redis disabled, using in-memory idempotency store")
	}

	// Initialize application services
	candidateService := vipapp.NewCandidateService(
		ledgerGateway,
		directoryGateway,
		identityRegistry,
		designationRepo,
		vip.NewTokenReferralExtractor(),
		vipapp.CandidateServiceConfig{
			FetchTimeout:          cfg.VIP.FetchTimeout,
			FetchBatchSize:        cfg.VIP.FetchBatchSize,
			ReferralRevenueHigh:   decimal.NewFromInt(cfg.VIP.ReferralRevenueHigh),
			ReferralRevenueMedium: decimal.NewFromInt(cfg.VIP.ReferralRevenueMedium),
		},
		log,
	)
	designationService := vipapp.NewDesignationService(designationRepo, patientRepo, log)
	patientService := patientapp.NewPatientService(patientRepo, log)

	// Initialize HTTP handlers
	vipHandler := handler.NewVIPHandler(candidateService, designationService)
	patientHandler := handler.NewPatientHandler(patientService)
	systemHandler := handler.NewSystemHandler(db.Ping, db.Stats)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/healthz", systemHandler.Healthz)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// VIP domain (candidate engine, designation registry)
	vipRoutes := router.NewDomainGroup("vip", "/vip")
	vipRoutes.POST("/candidates", vipHandler.GenerateCandidates)
	vipRoutes.GET("/designations", vipHandler.ListByYear)
	vipRoutes.POST("/designations", vipHandler.AddDesignation)
	vipRoutes.PUT("/designations/:patientId/:year/grade", vipHandler.SetGrade)
	vipRoutes.DELETE("/designations/:patientId/:year", vipHandler.RemoveDesignation)

	// Batch commit carries Idempotency-Key deduplication so a retried
	// commit of the same candidate list is rejected instead of re-applied
	idempotency := middleware.Idempotency(middleware.IdempotencyConfig{
		Store:  idempotencyStore,
		TTL:    cfg.VIP.IdempotencyTTL,
		Logger: log,
	})
	vipRoutes.POST("/designations/batch", idempotency, vipHandler.BatchCommit)
	vipRoutes.GET("/patients/:patientId/designations", vipHandler.History)

	// Patient roster (read-only views for the front desk)
	patientRoutes := router.NewDomainGroup("patient", "/patients")
	patientRoutes.GET("", patientHandler.List)
	patientRoutes.GET("/:id", patientHandler.Get)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/stats", systemHandler.GetDBStats)

	r.Register(vipRoutes).
		Register(patientRoutes).
		Register(systemRoutes)

	// Setup routes
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
