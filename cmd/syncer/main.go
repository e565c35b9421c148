package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unfit20/unfit20/internal/cache"
	"github.com/unfit20/unfit20/internal/db"
	"github.com/unfit20/unfit20/internal/syncer"
	"github.com/unfit20/unfit20/pkg/config"
	"github.com/unfit20/unfit20/pkg/logging"
	"github.com/unfit20/unfit20/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Unfit20 Feed Syncer")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect to the database
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// The syncer exists to keep the redis replica warm; without redis
	// there is nothing to do.
	if !cfg.Redis.Enabled {
		logger.Fatal("redis_url is required for the feed syncer")
	}
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	repo := db.NewRepository(database.DB)
	postRepo := db.NewPostRepository(repo)
	postCache := cache.NewPostCache(redisCache)

	worker := syncer.New(postRepo, postCache, &cfg.Syncer)

	// Run until interrupted
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down syncer...")
		cancel()
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Syncer stopped", zap.Error(err))
	}

	logger.Info("Syncer exited")
}
