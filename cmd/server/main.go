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

	cartapp "github.com/unistore/backend/internal/application/cart"
	catalogapp "github.com/unistore/backend/internal/application/catalog"
	orderapp "github.com/unistore/backend/internal/application/order"
	"github.com/unistore/backend/internal/domain/cart"
	domstorefront "github.com/unistore/backend/internal/domain/storefront"
	"github.com/unistore/backend/internal/infrastructure/cache"
	"github.com/unistore/backend/internal/infrastructure/config"
	"github.com/unistore/backend/internal/infrastructure/logger"
	"github.com/unistore/backend/internal/infrastructure/persistence"
	"github.com/unistore/backend/internal/infrastructure/storefront"
	"github.com/unistore/backend/internal/interfaces/http/handler"
	"github.com/unistore/backend/internal/interfaces/http/middleware"
	"github.com/unistore/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Unistore Gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Connect to the catalog databases. Unreachable sources are skipped
	// with a warning; the gateway serves what it can reach.
	pool := persistence.NewPool(cfg, log)
	defer pool.Close()

	reader := persistence.NewCatalogReader(pool, cfg.Catalog.RowCap)
	log.Info("Catalog sources connected", zap.Int("count", len(reader.Sources())))

	// Remote storefront gateways, one per source
	gateways := []domstorefront.Gateway{
		storefront.NewRailwayGateway(
			cfg.Remote.RailwayBaseURL,
			cfg.Remote.RailwayAuthToken,
			cfg.Remote.RailwayUserID,
			cfg.Remote.RailwayCartID,
			cfg.Remote.Timeout,
		),
		storefront.NewEcomGateway(
			cfg.Remote.EcomBaseURL,
			cfg.Remote.EcomAuthToken,
			cfg.Remote.Timeout,
		),
		storefront.NewPhoneStoreGateway(
			cfg.Remote.PhoneStoreBaseURL,
			cfg.Remote.PhoneStoreUser,
			cfg.Remote.Timeout,
		),
	}

	// Product cache: redis when configured and reachable, in-memory otherwise
	productCache := cache.NewProductCacheFactory(cfg.Redis, log).Create()

	// Application services
	orderService := orderapp.NewService(gateways, cfg.Orders.PollInterval, cfg.Orders.PollTimeout, log)
	aggregator := catalogapp.NewAggregator(reader, orderService, productCache, cfg.Catalog.CacheTTL, cfg.Remote.PhoneStoreBaseURL, log)
	reconciler := cartapp.NewReconciler(cart.New(), gateways, cfg.Remote.PhoneStoreBaseURL, log)

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(reader)
	catalogHandler := handler.NewCatalogHandler(reader, aggregator)
	cartHandler := handler.NewCartHandler(reconciler)
	orderHandler := handler.NewOrderHandler(orderService)
	proxyHandler := handler.NewProxyHandler(cfg.Remote, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Middleware stack: request IDs first so recovery and logging can tag
	// their output, then CORS for the browser frontends.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(systemHandler).
		Register(catalogHandler).
		Register(cartHandler).
		Register(orderHandler).
		Register(proxyHandler)
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
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

	orderService.CancelPoll()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
