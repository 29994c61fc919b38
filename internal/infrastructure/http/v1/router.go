// Package v1 provides HTTP API version 1.
package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"carworkshop/internal/domain/documents/billing"
	"carworkshop/internal/domain/documents/purchase"
	"carworkshop/internal/domain/documents/stock_adjustment"
	"carworkshop/internal/domain/totals"
	"carworkshop/internal/infrastructure/http/v1/handlers"
	"carworkshop/internal/infrastructure/http/v1/middleware"
	"carworkshop/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Logger *logger.Logger

	// Database is pinged by the readiness probe.
	Database handlers.Database
	Version  string

	// Adapter answers engine lookups for the generic preview and lookup endpoints.
	Adapter          totals.SourceAdapter
	DefaultPriceList string

	BillingService         *billing.Service
	PurchaseService        *purchase.Service
	StockAdjustmentService *stock_adjustment.Service

	CORSAllowedOrigins []string

	// TrustedProxies may set X-Forwarded-For and forward the acting user.
	// Empty trusts no proxy: client IP is the socket peer and user headers are ignored.
	TrustedProxies []string

	// RateLimiter throttles /api/v1; nil disables it.
	RateLimiter *middleware.RateLimiter

	// ReleaseMode switches gin to release mode.
	ReleaseMode bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	proxyTrust, err := middleware.NewProxyTrust(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	healthHandler := handlers.NewHealthHandler(cfg.Database, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	{
		v1.Use(middleware.UserContext(proxyTrust)) // user id and roles for discount approval
		if cfg.RateLimiter != nil {
			v1.Use(cfg.RateLimiter.Middleware())
		}

		registerDocumentRoutes(v1, cfg)
	}

	return router, nil
}

// registerDocumentRoutes registers the engine and document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	if cfg.Adapter != nil {
		docHandler := handlers.NewDocumentHandler(baseHandler, cfg.Adapter, cfg.Logger, cfg.DefaultPriceList)
		RegisterDocumentRoutes(rg.Group("/documents"), docHandler)
		rg.GET("/work-orders/:id/billing-source", docHandler.BillingSource)
		rg.GET("/prices/:entityType/:entityId", docHandler.Price)
	}

	if cfg.BillingService != nil {
		RegisterDocumentRoutes(rg.Group("/billings"), handlers.NewBillingHandler(baseHandler, cfg.BillingService))
	}
	if cfg.PurchaseService != nil {
		RegisterDocumentRoutes(rg.Group("/purchase-orders"), handlers.NewPurchaseHandler(baseHandler, cfg.PurchaseService))
	}
	if cfg.StockAdjustmentService != nil {
		stockHandler := handlers.NewStockAdjustmentHandler(baseHandler, cfg.StockAdjustmentService)
		RegisterDocumentRoutes(rg.Group("/stock-adjustments"), stockHandler, func(g *gin.RouterGroup) {
			g.POST("", stockHandler.Submit)
		})
	}
}
