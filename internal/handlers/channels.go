package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"linktrack-go/internal/models"
)

// GetChannels returns monitored channels, optionally filtered by guild
func (h *Handlers) GetChannels(c *gin.Context) {
	query := h.db.Model(&models.MonitoredChannel{})
	if guildID := c.Query("guild_id"); guildID != "" {
		query = query.Where("guild_id = ?", guildID)
	}

	var channels []models.MonitoredChannel
	if err := query.Find(&channels).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch channels",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, channels)
}

// CreateChannel registers a channel for monitoring
func (h *Handlers) CreateChannel(c *gin.Context) {
	var req models.MonitoredChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	channel := models.MonitoredChannel{
		GuildID:     req.GuildID,
		ChannelID:   req.ChannelID,
		ChannelName: req.ChannelName,
		IsActive:    active,
	}

	if err := h.db.Create(&channel).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create channel",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusCreated, channel)
}

// ActivateChannel enables monitoring for a channel
func (h *Handlers) ActivateChannel(c *gin.Context) {
	h.setChannelActive(c, true)
}

// DeactivateChannel disables monitoring for a channel
func (h *Handlers) DeactivateChannel(c *gin.Context) {
	h.setChannelActive(c, false)
}

func (h *Handlers) setChannelActive(c *gin.Context, active bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid channel ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	var channel models.MonitoredChannel
	if err := h.db.First(&channel, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch channel",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if err := h.db.Model(&channel).Update("is_active", active).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update channel",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, channel)
}

// DeleteChannel removes a channel registration
func (h *Handlers) DeleteChannel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid channel ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	result := h.db.Delete(&models.MonitoredChannel{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to delete channel",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Channel not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.Status(http.StatusNoContent)
}
