package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"linktrack-go/internal/config"
	"linktrack-go/internal/metrics"
	"linktrack-go/internal/models"
)

// Notifier is told about every stored link. Delivery failures must never
// affect ingestion.
type Notifier interface {
	LinkStored(ctx context.Context, link *models.Link)
}

// WebhookNotifier posts stored links to a configured endpoint
type WebhookNotifier struct {
	url     string
	client  *http.Client
	metrics *metrics.Metrics
}

// NewWebhookNotifier creates a WebhookNotifier
func NewWebhookNotifier(cfg *config.WebhookConfig, m *metrics.Metrics) *WebhookNotifier {
	return &WebhookNotifier{
		url:     cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
		metrics: m,
	}
}

type webhookPayload struct {
	DeliveryID string    `json:"delivery_id"`
	MessageID  string    `json:"message_id"`
	GuildID    string    `json:"guild_id"`
	ChannelID  string    `json:"channel_id"`
	URL        string    `json:"url"`
	Author     string    `json:"author"`
	PostedAt   time.Time `json:"posted_at"`
}

// LinkStored delivers one stored link, fire and forget
func (n *WebhookNotifier) LinkStored(ctx context.Context, link *models.Link) {
	payload := webhookPayload{
		DeliveryID: uuid.NewString(),
		MessageID:  link.MessageID,
		GuildID:    link.GuildID,
		ChannelID:  link.ChannelID,
		URL:        link.URL,
		Author:     link.Author,
		PostedAt:   link.PostedAt,
	}

	if err := n.deliver(ctx, payload); err != nil {
		logrus.Errorf("Webhook delivery %s failed: %v", payload.DeliveryID, err)
		n.metrics.WebhookFailures.Inc()
		return
	}
	n.metrics.WebhookDeliveries.Inc()
}

func (n *WebhookNotifier) deliver(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
