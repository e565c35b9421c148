package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unfit20/unfit20/internal/api"
	"github.com/unfit20/unfit20/internal/auth"
	"github.com/unfit20/unfit20/internal/cache"
	"github.com/unfit20/unfit20/internal/catalog"
	"github.com/unfit20/unfit20/internal/db"
	"github.com/unfit20/unfit20/internal/feed"
	"github.com/unfit20/unfit20/internal/storage"
	"github.com/unfit20/unfit20/internal/users"
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
	logger.Info("Starting Unfit20 API Server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect to the database and apply schema migrations
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Connect to redis. The cache degrades gracefully when unavailable.
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache", zap.Error(err))
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	// Connect to the object store
	objectStore, err := storage.New(&cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to connect to object storage", zap.Error(err))
	}

	// Upstream product catalog
	catalogClient, err := catalog.New(&cfg.Catalog)
	if err != nil {
		logger.Fatal("Failed to initialize catalog client", zap.Error(err))
	}

	// Wire repositories and services
	repo := db.NewRepository(database.DB)
	userRepo := db.NewUserRepository(repo)
	postRepo := db.NewPostRepository(repo)
	commentRepo := db.NewCommentRepository(repo)
	likeRepo := db.NewLikeRepository(repo)
	followRepo := db.NewFollowRepository(repo)

	authSvc := auth.NewService(userRepo, redisCache, &cfg.Auth)
	feedSvc := feed.NewService(postRepo, commentRepo, likeRepo, userRepo,
		cache.NewPostCache(redisCache), objectStore)
	userSvc := users.NewService(userRepo, followRepo, objectStore)

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	router := api.NewRouter(authSvc, feedSvc, userSvc, catalogClient, database, redisCache)
	router.SetupRoutes(engine)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
