package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"linktrack-go/internal/models"
)

// GetFlags returns all feature flags
func (h *Handlers) GetFlags(c *gin.Context) {
	var flags []models.FeatureFlag
	if err := h.db.Find(&flags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch flags",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, flags)
}

// PutFlag creates or updates one feature flag
func (h *Handlers) PutFlag(c *gin.Context) {
	key := c.Param("key")

	var req models.FeatureFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	var flag models.FeatureFlag
	err := h.db.Where("`key` = ?", key).First(&flag).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		flag = models.FeatureFlag{Key: key, Enabled: req.Enabled}
		err = h.db.Create(&flag).Error
	case err == nil:
		err = h.db.Model(&flag).Update("enabled", req.Enabled).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update flag",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, flag)
}
