package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/rentradar/backend/internal/api/handlers"
	"github.com/rentradar/backend/internal/cache/redis"
	"github.com/rentradar/backend/internal/fraud"
	"github.com/rentradar/backend/internal/market"
	"github.com/rentradar/backend/internal/metrics"
	"github.com/rentradar/backend/internal/middleware/ratelimit"
	"github.com/rentradar/backend/internal/middleware/security"
	"github.com/rentradar/backend/internal/middleware/validation"
	"github.com/rentradar/backend/internal/pricing"
	"github.com/rentradar/backend/internal/recommend"
	"github.com/rentradar/backend/internal/storage/sqlite"
	"github.com/rentradar/backend/pkg/config"
	appLogger "github.com/rentradar/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting RentRadar ML API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Redis is an optional response cache; the service runs cacheless
	// when it is disabled or unreachable.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without response cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	marketProvider := market.NewProvider(sqliteClient, cfg.Market)
	refreshCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	err = marketProvider.Refresh(refreshCtx)
	cancel()
	if err != nil {
		appLogger.Warn("Failed to build market statistics, serving default bands", zap.Error(err))
	}
	metrics.MarketSegments.Set(float64(marketProvider.SegmentCount()))
	metrics.MarketDatasetRows.Set(float64(marketProvider.RowCount()))

	priceModel := pricing.NewModelEstimator(cfg.Pricing.ModelPath)
	priceService := pricing.NewService(priceModel, marketProvider, redisClient, cfg.Pricing)

	fraudScorer := fraud.NewScorer(cfg.Fraud)
	fraudService := fraud.NewService(fraudScorer, sqliteClient, cfg.Fraud)

	hybridRecommender := recommend.NewHybridRecommender(sqliteClient, cfg.Recommend.ContentWeight, cfg.Recommend.ColdStartContentWeight)
	recommendService := recommend.NewService(hybridRecommender, sqliteClient, sqliteClient, redisClient, cfg.Recommend)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	priceHandler := handlers.NewPriceHandler(priceService, marketProvider)
	fraudHandler := handlers.NewFraudHandler(fraudService, marketProvider, sqliteClient,
		time.Duration(cfg.Market.QueryTimeoutSec)*time.Second)
	recommendHandler := handlers.NewRecommendHandler(recommendService)
	interactionHandler := handlers.NewInteractionHandler(sqliteClient)

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	ml := api.Group("/ml", limiter.Middleware(), validation.Middleware(validation.Config{
		MaxBodyBytes: cfg.Server.BodyLimit,
	}))

	ml.Post("/price-estimate", priceHandler.EstimatePrice)
	ml.Get("/price-estimate/health", priceHandler.Health)

	ml.Post("/fraud-check", fraudHandler.CheckFraud)
	ml.Get("/fraud-check/health", fraudHandler.Health)

	ml.Post("/recommendations", recommendHandler.GetRecommendations)
	ml.Get("/recommendations/health", recommendHandler.Health)

	ml.Post("/interactions", interactionHandler.RecordInteraction)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
