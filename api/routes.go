package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/killallgit/subclip/api/clips"
	"github.com/killallgit/subclip/api/health"
	"github.com/killallgit/subclip/api/index"
	"github.com/killallgit/subclip/api/middleware"
	"github.com/killallgit/subclip/api/projects"
	"github.com/killallgit/subclip/api/search"
	"github.com/killallgit/subclip/api/types"
	"github.com/killallgit/subclip/api/version"
	_ "github.com/killallgit/subclip/docs/swagger"
	"github.com/killallgit/subclip/internal/services/cache"
)

// statsCacheTTL bounds how stale GET /index/stats may be between rebuilds
const statsCacheTTL = 30 * time.Second

// RouteOptions carries what route registration needs besides handler dependencies
type RouteOptions struct {
	// Limit returns the rate limiting middleware for a route group
	Limit func(group string) gin.HandlerFunc
	// StatsCache holds rendered index statistics; nil disables caching
	StatsCache cache.Cache
}

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, opts RouteOptions) {
	limit := opts.Limit
	if limit == nil {
		limit = func(string) gin.HandlerFunc { return func(c *gin.Context) { c.Next() } }
	}

	// Public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	// Swagger UI, generated from the handler annotations by `make docs`
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	docsGroup := engine.Group("/docs")
	docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.NoRoute(NotFoundHandler())

	v1 := engine.Group("/api/v1")

	searchGroup := v1.Group("/search")
	searchGroup.Use(limit("search"))
	search.RegisterRoutes(searchGroup, deps)

	clipsGroup := v1.Group("/clips")
	clipsGroup.Use(limit("clips"))
	clips.RegisterRoutes(clipsGroup, deps)

	projectsGroup := v1.Group("/projects")
	projectsGroup.Use(limit("clips"))
	projects.RegisterRoutes(projectsGroup, deps)

	indexGroup := v1.Group("/index")
	indexGroup.Use(limit("index"))
	indexGroup.Use(middleware.ResponseCache(middleware.CacheConfig{
		Cache:   opts.StatsCache,
		TTL:     statsCacheTTL,
		Enabled: opts.StatsCache != nil,
	}))
	index.RegisterRoutes(indexGroup, deps, func() {
		if opts.StatsCache != nil {
			_ = opts.StatsCache.Clear(context.Background())
		}
	})
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  types.StatusError,
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
