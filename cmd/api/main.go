package main

import (
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

	"github.com/OksanaKunikevych/nebula/internal/analysis/insights"
	"github.com/OksanaKunikevych/nebula/internal/analysis/sentiment"
	"github.com/OksanaKunikevych/nebula/internal/api/handlers"
	"github.com/OksanaKunikevych/nebula/internal/cache/redis"
	"github.com/OksanaKunikevych/nebula/internal/metrics"
	"github.com/OksanaKunikevych/nebula/internal/middleware/ratelimit"
	"github.com/OksanaKunikevych/nebula/internal/middleware/security"
	"github.com/OksanaKunikevych/nebula/internal/pipeline"
	"github.com/OksanaKunikevych/nebula/internal/source/appstore"
	"github.com/OksanaKunikevych/nebula/internal/storage/sqlite"
	"github.com/OksanaKunikevych/nebula/pkg/config"
	appLogger "github.com/OksanaKunikevych/nebula/pkg/logger"
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

	appLogger.Info("Starting App Store Review Insight API Server")

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

	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer cacheClient.Close()
	}

	sourceClient := appstore.NewClient(
		cfg.Source.Country,
		time.Duration(cfg.Source.TimeoutSec)*time.Second,
		cfg.Source.RetryCount,
		cfg.Source.RetryBackoff,
	)

	classifier := sentiment.NewClassifier(cfg.Pipeline.SentimentThreshold, cfg.Pipeline.Workers)
	generator := insights.NewGenerator(
		cfg.Insights.KeywordTopK,
		insights.WithWordCloud(cfg.Insights.FontPath, cfg.Insights.CloudWidth, cfg.Insights.CloudHeight, cfg.Insights.CloudMaxWords),
	)

	orchestrator := pipeline.NewOrchestrator(sourceClient, sqliteClient, classifier, generator)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 30,
		Logger:               appLogger.Log,
	})
	defer limiter.Stop()

	reviewHandler := handlers.NewReviewHandler(orchestrator, sqliteClient, cacheClient, cfg.Pipeline.FetchLimit)

	api := app.Group("/api/v1")

	api.Post("/reviews/:item_id", limiter.Middleware(), reviewHandler.CollectReviews)
	api.Get("/reviews/:item_id/raw", reviewHandler.GetRawReviews)
	api.Get("/reviews/:item_id/metrics", reviewHandler.GetMetrics)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

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
