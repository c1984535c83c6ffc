package channels

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"linktrack-go/internal/models"
)

// ChannelLister is the slice of the store the authority depends on
type ChannelLister interface {
	GetActiveMonitoredChannels(ctx context.Context, guildID string) ([]models.MonitoredChannel, error)
}

// Authority resolves whether a channel is monitored for a guild. Resolution
// is cache first, store second, static legacy allow-list last, so a
// transient outage degrades to the old coarse list instead of admitting or
// rejecting everything.
type Authority struct {
	lister         ChannelLister
	cache          Cache
	ttl            time.Duration
	legacyChannels map[string]bool
}

// NewAuthority creates an Authority. legacyChannels may be empty when no
// static fallback is configured.
func NewAuthority(lister ChannelLister, cache Cache, ttl time.Duration, legacyChannels []string) *Authority {
	legacy := make(map[string]bool, len(legacyChannels))
	for _, id := range legacyChannels {
		legacy[id] = true
	}
	return &Authority{
		lister:         lister,
		cache:          cache,
		ttl:            ttl,
		legacyChannels: legacy,
	}
}

func cacheKey(guildID string) string {
	return "monitored:" + guildID
}

// IsMonitored reports whether the channel is actively monitored in the guild
func (a *Authority) IsMonitored(ctx context.Context, guildID, channelID string) bool {
	if ids, found := a.cache.Get(cacheKey(guildID)); found && len(ids) > 0 {
		return contains(ids, channelID)
	}

	monitored, err := a.lister.GetActiveMonitoredChannels(ctx, guildID)
	if err != nil {
		logrus.Warnf("Monitored channel lookup failed for guild %s, falling back to legacy list: %v", guildID, err)
		return a.legacyChannels[channelID]
	}

	ids := make([]string, 0, len(monitored))
	for _, ch := range monitored {
		ids = append(ids, ch.ChannelID)
	}
	a.cache.Set(cacheKey(guildID), ids, a.ttl)

	return contains(ids, channelID)
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
