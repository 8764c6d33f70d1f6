package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpMetrics "outfitJourney/app/echo-server/metrics"
	"outfitJourney/app/echo-server/router"
	"outfitJourney/business/bandit"
	"outfitJourney/business/candidate"
	"outfitJourney/business/eventlog"
	"outfitJourney/business/feed"
	"outfitJourney/business/feedback"
	"outfitJourney/business/interaction"
	"outfitJourney/internal/middleware"
	psqlRepo "outfitJourney/internal/repository/postgres"
	redisRepo "outfitJourney/internal/repository/redis"
	"outfitJourney/internal/rest"
	"outfitJourney/pkg/config"
	"outfitJourney/pkg/database"
	redisClient "outfitJourney/pkg/database/redis"
	"outfitJourney/pkg/logger"
	"outfitJourney/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting Outfit Journey", "version", cfg.App.Version)

	metrics.Init()
	httpMetrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redisClient.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		logger.Info("Redis connected successfully")
	}

	likeCancel, err := bandit.ParseLikeCancelPolicy(cfg.Bandit.LikeCancelPolicy)
	if err != nil {
		logger.Fatal("Invalid bandit config", "error", err)
	}

	// Init repo
	likeRepo := psqlRepo.NewLikeRepository(db)
	sessionRepo := psqlRepo.NewSessionRepository(db)
	outfitRepo := psqlRepo.NewOutfitRepository(db)
	banditRepo := psqlRepo.NewBanditRepository(db)

	var armRepo bandit.ArmRepository = banditRepo
	if cfg.Bandit.Store == "redis" {
		armRepo = redisRepo.NewArmRepository(rdb)
	}
	logger.Info("Bandit arm store selected", "store", cfg.Bandit.Store)

	// Init service
	banditCfg := bandit.DefaultConfig()
	banditCfg.MaxArmsPerState = cfg.Bandit.MaxArmsPerState
	banditCfg.LikeCancel = likeCancel
	banditService := bandit.NewBanditService(armRepo, banditRepo, banditCfg)

	interactionService := interaction.NewInteractionService(likeRepo, sessionRepo, outfitRepo)

	generator := candidate.NewBreakerGenerator(
		candidate.NewContentGenerator(outfitRepo),
		candidate.BreakerSettings{
			Name:        "candidate-generator",
			MaxRequests: cfg.Candidate.BreakerMaxRequests,
			Interval:    cfg.Candidate.BreakerInterval,
			Timeout:     cfg.Candidate.BreakerTimeout,
			MinRequests: cfg.Candidate.BreakerMinRequests,
			FailureRate: cfg.Candidate.BreakerFailureRate,
		},
	)

	eventLogger, err := eventlog.NewLogger(cfg.EventLog.Dir)
	if err != nil {
		logger.Fatal("Failed to open event log", "error", err)
	}

	dispatcher := feedback.NewDispatcher(cfg.Feedback.Workers, cfg.Feedback.QueueSize)
	dispatcher.Start()

	assembler := feed.NewAssembler(interactionService, outfitRepo, generator, banditService, feed.Config{
		MinLikesForBandit: cfg.Feed.MinLikesForBandit,
		PoolMultiplier:    cfg.Feed.PoolMultiplier,
		Modes: feed.ModePolicy{
			Default:           feed.ParseMode(cfg.Feed.DefaultMode),
			ContentTrafficPct: cfg.Feed.ContentTrafficPct,
		},
	})
	feedService := feed.NewFeedService(assembler, interactionService, outfitRepo, banditService, eventLogger, dispatcher)

	// Init handler
	feedHandler := rest.NewFeedHandler(feedService, rest.FeedHandlerConfig{
		Timeout:         cfg.Server.RequestTimeout,
		DefaultPageSize: cfg.Feed.DefaultPageSize,
		DefaultSamples:  cfg.Feed.DefaultSamples,
	})

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceMiddleware())
	e.Use(httpMetrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Setup routes
	api := e.Group("/api")
	router.SetupFeedRoutes(api, feedHandler, middleware.IdentityMiddleware(cfg.JWT.SecretKey))
	router.SetupMetricsRoutes(e)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// Drain queued feedback before closing its sinks
	dispatcher.Stop()

	if err := eventLogger.Close(); err != nil {
		logger.Error("Event log close error", "error", err)
	}

	if err := redisClient.CloseRedisClient(rdb); err != nil {
		logger.Error("Redis close error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("Server stopped")
}
