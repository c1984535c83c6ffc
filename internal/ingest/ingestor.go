package ingest

import (
	"context"
	"regexp"

	"github.com/sirupsen/logrus"

	"linktrack-go/internal/metrics"
	"linktrack-go/internal/models"
	"linktrack-go/internal/platform"
	"linktrack-go/internal/store"
)

// urlPattern matches a run of non-whitespace characters following an HTTP or
// HTTPS scheme. Deliberately permissive; the platform renders the same text
// as a link.
var urlPattern = regexp.MustCompile(`https?://\S+`)

// ExtractURLs returns all URL substrings in encounter order
func ExtractURLs(content string) []string {
	return urlPattern.FindAllString(content, -1)
}

// Ingestor consumes inbound messages, persists detected links, and
// acknowledges the source message with a reaction
type Ingestor struct {
	links     store.LinkStore
	chat      platform.ChatService
	notifier  Notifier
	metrics   *metrics.Metrics
	botUserID string
	ackEmoji  string
}

// NewIngestor creates an Ingestor
func NewIngestor(links store.LinkStore, chat platform.ChatService, notifier Notifier, m *metrics.Metrics, botUserID, ackEmoji string) *Ingestor {
	return &Ingestor{
		links:     links,
		chat:      chat,
		notifier:  notifier,
		metrics:   m,
		botUserID: botUserID,
		ackEmoji:  ackEmoji,
	}
}

// Handle processes one inbound message. Per-URL store failures are logged
// and skipped; the acknowledgment reaction is applied once when at least one
// URL was detected.
func (i *Ingestor) Handle(ctx context.Context, msg *platform.Message) {
	if !i.links.GetFeatureFlagCached(models.FlagLinkTracking, true) {
		logrus.Debug("Link tracking disabled, ignoring message")
		return
	}
	if msg.Author.ID == i.botUserID {
		return
	}
	if msg.GuildID == "" {
		// Malformed or DM event; fail closed with no store writes.
		logrus.Warnf("Message %s has no guild context, ignoring", msg.ID)
		return
	}

	urls := ExtractURLs(msg.Content)
	if len(urls) == 0 {
		return
	}

	for _, url := range urls {
		link := &models.Link{
			MessageID: msg.ID,
			GuildID:   msg.GuildID,
			ChannelID: msg.ChannelID,
			URL:       url,
			Author:    msg.Author.Username,
			PostedAt:  msg.Timestamp,
		}
		if err := i.links.StoreLink(ctx, link); err != nil {
			logrus.Errorf("Failed to store link %s from message %s: %v", url, msg.ID, err)
			i.metrics.IngestFailures.Inc()
			continue
		}
		i.metrics.LinksIngested.Inc()
		logrus.Infof("Stored link %s from message %s in guild %s", url, msg.ID, msg.GuildID)

		if i.notifier != nil {
			i.notifier.LinkStored(ctx, link)
		}
	}

	if err := i.chat.React(ctx, msg.ChannelID, msg.ID, i.ackEmoji); err != nil {
		logrus.Errorf("Failed to acknowledge message %s: %v", msg.ID, err)
	}
}
