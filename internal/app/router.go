package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/howard-metropia/trip-validation/internal/handler"
	"github.com/howard-metropia/trip-validation/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	ValidationHandler *handler.ValidationHandler
	RedisClient       *redis.Client
	NewRelicApp       *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics.
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		trips := v1.Group("/trips")
		{
			trips.POST("/:id/validate", deps.ValidationHandler.Validate)
			trips.GET("/:id/validations", deps.ValidationHandler.List)
			trips.GET("/:id/validations/latest", deps.ValidationHandler.GetLatest)
			trips.POST("/:id/schedule", deps.ValidationHandler.Schedule)
			trips.DELETE("/:id/schedule", deps.ValidationHandler.CancelSchedule)
			trips.POST("/:id/override", deps.ValidationHandler.Override)
		}
	}

	return router
}
