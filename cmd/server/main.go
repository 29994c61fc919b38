// Package main is the entry point for the car workshop totals API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carworkshop/internal/config"
	"carworkshop/internal/domain/documents/billing"
	"carworkshop/internal/domain/documents/purchase"
	"carworkshop/internal/domain/documents/stock_adjustment"
	v1 "carworkshop/internal/infrastructure/http/v1"
	"carworkshop/internal/infrastructure/http/v1/middleware"
	"carworkshop/internal/infrastructure/storage/postgres"
	"carworkshop/pkg/logger"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting carworkshop server", "env", cfg.App.Env, "version", cfg.App.Version)

	// --- Database ---
	pool, err := postgres.NewPool(ctx, cfg.Database.PoolConfig())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	adapter := postgres.NewSourceAdapter(txManager, cfg.Billing.DefaultPriceList)
	ledger := postgres.NewStockLedger(txManager)
	namer := postgres.NewSeriesGenerator(txManager)

	// --- Services ---
	billingService := billing.NewService(adapter, cfg.Billing, log)
	purchaseService := purchase.NewService(adapter, log)
	stockService := stock_adjustment.NewService(ledger, txManager, namer)

	log.Infow("document services initialized",
		"default_price_list", cfg.Billing.DefaultPriceList,
		"discount_threshold", cfg.Billing.DiscountApprovalThreshold.String(),
		"approver_roles", cfg.Billing.DiscountApproverRoles,
	)

	// --- Rate limiting ---
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiterCfg := middleware.DefaultRateLimiterConfig()
		limiterCfg.RequestsPerSecond = cfg.RateLimit.Requests
		limiterCfg.Burst = cfg.RateLimit.Burst
		limiter = middleware.NewRateLimiter(limiterCfg)
		defer limiter.Close()
	}

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Logger:                 log,
		Database:               pool,
		Version:                cfg.App.Version,
		Adapter:                adapter,
		DefaultPriceList:       cfg.Billing.DefaultPriceList,
		BillingService:         billingService,
		PurchaseService:        purchaseService,
		StockAdjustmentService: stockService,
		CORSAllowedOrigins:     cfg.CORS.AllowedOrigins,
		TrustedProxies:         cfg.HTTP.TrustedProxies,
		RateLimiter:            limiter,
		ReleaseMode:            !cfg.App.IsDevelopment(),
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
