package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linktrack-go/internal/models"
)

// GetLinks returns stored links for a guild, newest first
func (h *Handlers) GetLinks(c *gin.Context) {
	guildID := c.Query("guild_id")
	if guildID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "guild_id query parameter is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	var links []models.Link
	err := h.db.
		Preload("Reads").
		Where("guild_id = ? AND is_deleted = ?", guildID, false).
		Order("posted_at DESC").
		Limit(100).
		Find(&links).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch links",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	responses := make([]models.LinkResponse, 0, len(links))
	for _, link := range links {
		readBy := make([]string, 0, len(link.Reads))
		for _, read := range link.Reads {
			readBy = append(readBy, read.Username)
		}
		responses = append(responses, models.LinkResponse{
			ID:        link.ID,
			MessageID: link.MessageID,
			GuildID:   link.GuildID,
			ChannelID: link.ChannelID,
			URL:       link.URL,
			Author:    link.Author,
			PostedAt:  link.PostedAt,
			ReadBy:    readBy,
		})
	}

	c.JSON(http.StatusOK, responses)
}
