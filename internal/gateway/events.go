package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linktrack-go/internal/bot"
	"linktrack-go/internal/metrics"
	"linktrack-go/internal/platform"
)

// commandEvent is an interaction invocation as posted by the sidecar
type commandEvent struct {
	Interaction platform.Interaction `json:"interaction"`
	CommandName string               `json:"command_name" binding:"required"`
}

// EventRoutes receives event callbacks from the gateway sidecar and feeds
// them to the bot. Each event is handled on its own goroutine; the sidecar
// gets an immediate 202 and failures stay contained per event.
type EventRoutes struct {
	bot     *bot.Bot
	metrics *metrics.Metrics
}

// NewEventRoutes creates EventRoutes
func NewEventRoutes(b *bot.Bot, m *metrics.Metrics) *EventRoutes {
	return &EventRoutes{bot: b, metrics: m}
}

// Register mounts the event callback routes
func (e *EventRoutes) Register(router *gin.Engine) {
	events := router.Group("/events")
	{
		events.POST("/message", e.Message)
		events.POST("/reaction-add", e.ReactionAdd)
		events.POST("/reaction-remove", e.ReactionRemove)
		events.POST("/command", e.Command)
	}
}

func (e *EventRoutes) dispatch(fn func(ctx context.Context)) {
	go func() {
		start := time.Now()
		fn(context.Background())
		e.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
	}()
}

// Message receives a message-created event
func (e *EventRoutes) Message(c *gin.Context) {
	var msg platform.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message event"})
		return
	}
	e.dispatch(func(ctx context.Context) { e.bot.OnMessage(ctx, &msg) })
	c.Status(http.StatusAccepted)
}

// ReactionAdd receives a reaction-added event
func (e *EventRoutes) ReactionAdd(c *gin.Context) {
	var ev platform.ReactionEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reaction event"})
		return
	}
	e.dispatch(func(ctx context.Context) { e.bot.OnReactionAdd(ctx, &ev) })
	c.Status(http.StatusAccepted)
}

// ReactionRemove receives a reaction-removed event
func (e *EventRoutes) ReactionRemove(c *gin.Context) {
	var ev platform.ReactionEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reaction event"})
		return
	}
	e.dispatch(func(ctx context.Context) { e.bot.OnReactionRemove(ctx, &ev) })
	c.Status(http.StatusAccepted)
}

// Command receives an interaction invocation
func (e *EventRoutes) Command(c *gin.Context) {
	var ev commandEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid command event"})
		return
	}
	e.dispatch(func(ctx context.Context) { e.bot.OnCommand(ctx, &ev.Interaction, ev.CommandName) })
	c.Status(http.StatusAccepted)
}
