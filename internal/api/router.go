package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unfit20/unfit20/internal/auth"
	"github.com/unfit20/unfit20/internal/cache"
	"github.com/unfit20/unfit20/internal/catalog"
	"github.com/unfit20/unfit20/internal/db"
	"github.com/unfit20/unfit20/internal/feed"
	"github.com/unfit20/unfit20/internal/users"
	"github.com/unfit20/unfit20/pkg/logging"
)

// Router sets up API routes
type Router struct {
	auth    *auth.Service
	feed    *feed.Service
	users   *users.Service
	catalog *catalog.Client
	db      *db.DB
	cache   *cache.Cache
	logger  *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(authSvc *auth.Service, feedSvc *feed.Service, userSvc *users.Service, catalogClient *catalog.Client, database *db.DB, redisCache *cache.Cache) *Router {
	return &Router{
		auth:    authSvc,
		feed:    feedSvc,
		users:   userSvc,
		catalog: catalogClient,
		db:      database,
		cache:   redisCache,
		logger:  logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(RequestLogger())

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	v1 := engine.Group("/api/v1")
	v1.Use(RateLimit(300, 30))

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/signup", r.signUp)
		authGroup.POST("/signin", r.signIn)
		authGroup.POST("/signout", auth.RequireAuth(r.auth), r.signOut)
	}

	feedGroup := v1.Group("/feed", auth.OptionalAuth(r.auth))
	{
		feedGroup.GET("", r.getFeed)
		feedGroup.GET("/page", r.getFeedPage)
	}

	posts := v1.Group("/posts")
	{
		posts.GET("/:id", auth.OptionalAuth(r.auth), r.getPost)
		posts.POST("", auth.RequireAuth(r.auth), r.createPost)
		posts.PUT("/:id", auth.RequireAuth(r.auth), r.updatePost)
		posts.DELETE("/:id", auth.RequireAuth(r.auth), r.deletePost)
		posts.POST("/:id/like", auth.RequireAuth(r.auth), r.likePost)
		posts.DELETE("/:id/like", auth.RequireAuth(r.auth), r.unlikePost)
		posts.POST("/:id/comments", auth.RequireAuth(r.auth), r.addComment)
	}

	userGroup := v1.Group("/users")
	{
		userGroup.GET("/me/likes", auth.RequireAuth(r.auth), r.getLikedPosts)
		userGroup.PUT("/me", auth.RequireAuth(r.auth), r.updateProfile)
		userGroup.GET("/:id", auth.OptionalAuth(r.auth), r.getProfile)
		userGroup.GET("/:id/posts", auth.OptionalAuth(r.auth), r.getUserFeed)
		userGroup.POST("/:id/follow", auth.RequireAuth(r.auth), r.follow)
		userGroup.DELETE("/:id/follow", auth.RequireAuth(r.auth), r.unfollow)
	}

	products := v1.Group("/products")
	{
		products.GET("", r.getProducts)
		products.GET("/categories", r.getCategories)
		products.GET("/:id", r.getProduct)
	}
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{"database": "OK", "cache": "OK"}

	if err := r.db.Health(c.Request.Context()); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := r.cache.Health(c.Request.Context()); err != nil {
		// The cache is an availability aid; its loss degrades but does not
		// take the service down.
		checks["cache"] = err.Error()
	}

	c.JSON(status, gin.H{
		"status":  http.StatusText(status),
		"service": "unfit20-api",
		"checks":  checks,
	})
}
