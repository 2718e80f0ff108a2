package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	dashboardapp "github.com/merchdash/backend/internal/application/dashboard"
	orderapp "github.com/merchdash/backend/internal/application/order"
	trackingapp "github.com/merchdash/backend/internal/application/tracking"
	"github.com/merchdash/backend/internal/infrastructure/cache"
	"github.com/merchdash/backend/internal/infrastructure/channels"
	"github.com/merchdash/backend/internal/infrastructure/config"
	"github.com/merchdash/backend/internal/infrastructure/logger"
	"github.com/merchdash/backend/internal/infrastructure/shipping"
	"github.com/merchdash/backend/internal/interfaces/http/handler"
	"github.com/merchdash/backend/internal/interfaces/http/middleware"
	"github.com/merchdash/backend/internal/interfaces/http/router"
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
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Merchdash Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Upstream order channels
	firebase, err := channels.NewFirebaseAdapter(&channels.FirebaseConfig{
		BaseURL:        cfg.Firebase.BaseURL,
		APIKey:         cfg.Firebase.APIKey,
		BasicUser:      cfg.Firebase.BasicUser,
		BasicPassword:  cfg.Firebase.BasicPassword,
		TimeoutSeconds: cfg.Firebase.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to initialize Firebase channel", zap.Error(err))
	}

	woocommerce, err := channels.NewWooCommerceAdapter(&channels.WooCommerceConfig{
		BaseURL:        cfg.WooCommerce.BaseURL,
		ConsumerKey:    cfg.WooCommerce.ConsumerKey,
		ConsumerSecret: cfg.WooCommerce.ConsumerSecret,
		TimeoutSeconds: cfg.WooCommerce.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to initialize WooCommerce channel", zap.Error(err))
	}

	carrier, err := shipping.NewTrackingClient(&shipping.TrackingConfig{
		BaseURL:        cfg.Tracking.BaseURL,
		APIKey:         cfg.Tracking.APIKey,
		TimeoutSeconds: cfg.Tracking.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to initialize carrier tracking client", zap.Error(err))
	}

	// List invalidation store (Redis when configured, in-memory otherwise)
	invalidator, err := cache.NewInvalidatorFactory(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cache.WithLogger(log)).Create()
	if err != nil {
		log.Fatal("Failed to initialize list invalidator", zap.Error(err))
	}

	// Application services
	orderService := orderapp.NewOrderService(firebase, woocommerce, invalidator)
	dashboardService := dashboardapp.NewDashboardService(firebase, woocommerce)
	trackingService := trackingapp.NewTrackingService(carrier)

	// HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	trackingHandler := handler.NewTrackingHandler(trackingService)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Env)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

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
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
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

	// Register versioned API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(orderHandler).
		Register(dashboardHandler).
		Register(trackingHandler)
	r.Setup()

	// Liveness endpoint outside the versioned API group
	engine.GET("/health", systemHandler.Health)

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
