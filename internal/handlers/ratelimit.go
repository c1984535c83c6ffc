package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetRateLimit returns the current window state for one (user, command) key
// without consuming a slot
func (h *Handlers) GetRateLimit(c *gin.Context) {
	result := h.limiter.Peek(c.Param("user"), c.Param("command"))

	c.JSON(http.StatusOK, gin.H{
		"allowed":     result.Allowed,
		"remaining":   result.Remaining,
		"reset_time":  result.ResetTime.Format(time.RFC3339),
		"retry_after": result.RetryAfter,
	})
}

// ResetRateLimit clears the window for one (user, command) key
func (h *Handlers) ResetRateLimit(c *gin.Context) {
	h.limiter.Reset(c.Param("user"), c.Param("command"))
	c.Status(http.StatusNoContent)
}

// ResetUserRateLimits clears every window belonging to a user
func (h *Handlers) ResetUserRateLimits(c *gin.Context) {
	h.limiter.ResetUser(c.Param("user"))
	c.Status(http.StatusNoContent)
}
