package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"linktrack-go/internal/ratelimit"
)

// Handlers contains all HTTP handlers for the settings/admin API
type Handlers struct {
	db      *gorm.DB
	limiter *ratelimit.Limiter
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, limiter *ratelimit.Limiter) *Handlers {
	return &Handlers{
		db:      db,
		limiter: limiter,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	// Health check
	router.GET("/healthz", h.HealthCheck)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		// Monitored channels
		api.GET("/channels", h.GetChannels)
		api.POST("/channels", h.CreateChannel)
		api.PATCH("/channels/:id/activate", h.ActivateChannel)
		api.PATCH("/channels/:id/deactivate", h.DeactivateChannel)
		api.DELETE("/channels/:id", h.DeleteChannel)

		// Feature flags
		api.GET("/flags", h.GetFlags)
		api.PUT("/flags/:key", h.PutFlag)

		// Links
		api.GET("/links", h.GetLinks)

		// Rate limit inspection and resets
		api.GET("/ratelimit/:user/:command", h.GetRateLimit)
		api.DELETE("/ratelimit/:user", h.ResetUserRateLimits)
		api.DELETE("/ratelimit/:user/:command", h.ResetRateLimit)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
		"database":  "ok",
	}

	statusCode := http.StatusOK
	if err := h.db.Raw("SELECT 1").Error; err != nil {
		response["status"] = "error"
		response["database"] = "error"
		statusCode = http.StatusServiceUnavailable
		logrus.Errorf("Database health check failed: %v", err)
	}

	if h.limiter.IsRunning() {
		response["ratelimiter"] = "running"
	} else {
		response["ratelimiter"] = "stopped"
	}

	c.JSON(statusCode, response)
}
