package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safetrack-app/safetrack-go/internal/config"
	"github.com/safetrack-app/safetrack-go/internal/handler"
	"github.com/safetrack-app/safetrack-go/internal/middleware"
)

// Handlers bundles the HTTP handlers the router mounts.
type Handlers struct {
	Tracking     *handler.TrackingHandler
	Location     *handler.LocationHandler
	Route        *handler.RouteHandler
	Notification *handler.NotificationHandler
}

// SetupRouter builds the gin engine with all routes and middleware.
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(cfg.RateLimit, time.Minute))

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret))
	{
		tracking := api.Group("/tracking")
		{
			tracking.POST("/fixes", h.Tracking.IngestFixes)
			tracking.GET("/trips", h.Tracking.GetTrips)
			tracking.DELETE("/trips/:id", h.Tracking.DeleteTrip)
			tracking.GET("/patterns", h.Tracking.GetPatterns)
		}

		locations := api.Group("/locations")
		{
			locations.GET("", h.Location.GetLocations)
			locations.POST("", h.Location.CreateLocation)
			locations.PUT("/:id", h.Location.UpdateLocation)
			locations.DELETE("/:id", h.Location.DeleteLocation)
		}

		routes := api.Group("/routes")
		{
			routes.GET("/recommend", h.Route.Recommend)
			routes.POST("/feedback", h.Route.Feedback)
			routes.GET("/stats", h.Route.Stats)
			routes.POST("/reset", h.Route.Reset)
		}

		notifications := api.Group("/notifications")
		{
			notifications.POST("/tokens", h.Notification.RegisterToken)
		}
	}

	return r
}
