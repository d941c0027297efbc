package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/fenceline/backend/internal/application/billing"
	catalogapp "github.com/fenceline/backend/internal/application/catalog"
	fulfillmentapp "github.com/fenceline/backend/internal/application/fulfillment"
	partnerapp "github.com/fenceline/backend/internal/application/partner"
	"github.com/fenceline/backend/internal/domain/shared"
	"github.com/fenceline/backend/internal/infrastructure/auth"
	"github.com/fenceline/backend/internal/infrastructure/cache"
	"github.com/fenceline/backend/internal/infrastructure/event"
	"github.com/fenceline/backend/internal/infrastructure/config"
	"github.com/fenceline/backend/internal/infrastructure/logger"
	"github.com/fenceline/backend/internal/infrastructure/persistence"
	"github.com/fenceline/backend/internal/infrastructure/telemetry"
	"github.com/fenceline/backend/internal/interfaces/http/handler"
	"github.com/fenceline/backend/internal/interfaces/http/middleware"
	"github.com/fenceline/backend/internal/interfaces/http/router"
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
	log, err := logger.FromAppConfig(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Fenceline Backend",
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
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Idempotency store for bulk payment retry safety
	idempotencyStore, err := cache.NewIdempotencyStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize repositories
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	bulkPaymentRepo := persistence.NewGormBulkPaymentRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	vendorRepo := persistence.NewGormVendorRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	creditTxRepo := persistence.NewGormCreditTransactionRepository(db.DB)

	// In-process event bus with the audit log as its subscriber
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	// Initialize application services
	clock := shared.SystemClock{}
	documentService := billingapp.NewDocumentService(documentRepo, customerRepo, vendorRepo, productRepo, clock,
		billingapp.WithDocumentEventPublisher(eventBus))
	paymentService := billingapp.NewPaymentService(
		documentRepo,
		bulkPaymentRepo,
		customerRepo,
		creditTxRepo,
		idempotencyStore,
		shared.IdempotencyConfig{Enabled: cfg.Idempotency.Enabled, TTL: cfg.Idempotency.TTL},
		clock,
		log,
		billingapp.WithPaymentEventPublisher(eventBus),
	)
	receivingService := fulfillmentapp.NewReceivingService(documentRepo, clock,
		fulfillmentapp.WithReminderThreshold(cfg.Reminder.ThresholdDays))
	customerService := partnerapp.NewCustomerService(customerRepo, creditTxRepo, clock)
	vendorService := partnerapp.NewVendorService(vendorRepo)
	productService := catalogapp.NewProductService(productRepo)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	documentHandler := handler.NewDocumentHandler(documentService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	receivingHandler := handler.NewReceivingHandler(receivingService)
	customerHandler := handler.NewCustomerHandler(customerService)
	vendorHandler := handler.NewVendorHandler(vendorService)
	productHandler := handler.NewProductHandler(productService)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogger(log))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health endpoints live outside API versioning and authentication
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Logger:     log,
	}))

	// Billing domain: documents, payments, receiving
	documentRoutes := router.NewDomainGroup("billing", "/documents")
	documentRoutes.POST("", documentHandler.Create)
	documentRoutes.GET("", documentHandler.List)
	documentRoutes.GET("/number/:number", documentHandler.GetByNumber)
	documentRoutes.GET("/:id", documentHandler.GetByID)
	documentRoutes.PUT("/:id/line-items", documentHandler.UpdateLineItems)
	documentRoutes.POST("/:id/void", documentHandler.Void)
	documentRoutes.POST("/:id/finalize", documentHandler.Finalize)
	documentRoutes.POST("/:id/unfinalize", documentHandler.Unfinalize)
	documentRoutes.POST("/:id/convert", documentHandler.Convert)
	documentRoutes.POST("/:id/payments", paymentHandler.Apply)
	documentRoutes.POST("/:id/receipts", receivingHandler.RecordReceipt)
	documentRoutes.PUT("/:id/fulfillment-status", receivingHandler.SetStatus)
	documentRoutes.GET("/:id/backorders", receivingHandler.Backorders)

	paymentRoutes := router.NewDomainGroup("payments", "/payments")
	paymentRoutes.POST("/bulk", paymentHandler.ApplyBulk)

	fulfillmentRoutes := router.NewDomainGroup("fulfillment", "/fulfillment")
	fulfillmentRoutes.GET("/pickup-reminders", receivingHandler.PickupReminders)

	// Partner domain: customers with credit and markup rules, vendors
	customerRoutes := router.NewDomainGroup("customers", "/customers")
	customerRoutes.POST("", customerHandler.Create)
	customerRoutes.GET("", customerHandler.List)
	customerRoutes.GET("/:id", customerHandler.GetByID)
	customerRoutes.PUT("/:id", customerHandler.Update)
	customerRoutes.DELETE("/:id", customerHandler.Delete)
	customerRoutes.POST("/:id/activate", customerHandler.Activate)
	customerRoutes.POST("/:id/deactivate", customerHandler.Deactivate)
	customerRoutes.PUT("/:id/markup-rules", customerHandler.SetMarkupRule)
	customerRoutes.POST("/:id/credit", customerHandler.AdjustCredit)
	customerRoutes.GET("/:id/credit/transactions", customerHandler.CreditLedger)
	customerRoutes.GET("/:id/bulk-payments", paymentHandler.ListBulkByCustomer)

	vendorRoutes := router.NewDomainGroup("vendors", "/vendors")
	vendorRoutes.POST("", vendorHandler.Create)
	vendorRoutes.GET("", vendorHandler.List)
	vendorRoutes.GET("/:id", vendorHandler.GetByID)
	vendorRoutes.PUT("/:id", vendorHandler.Update)
	vendorRoutes.DELETE("/:id", vendorHandler.Delete)

	// Catalog domain
	productRoutes := router.NewDomainGroup("catalog", "/products")
	productRoutes.POST("", productHandler.Create)
	productRoutes.GET("", productHandler.List)
	productRoutes.GET("/:id", productHandler.GetByID)
	productRoutes.PUT("/:id", productHandler.Update)
	productRoutes.PUT("/:id/pricing", productHandler.UpdatePricing)
	productRoutes.DELETE("/:id", productHandler.Delete)

	r.Register(documentRoutes).
		Register(paymentRoutes).
		Register(fulfillmentRoutes).
		Register(customerRoutes).
		Register(vendorRoutes).
		Register(productRoutes)

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
