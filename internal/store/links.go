package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"linktrack-go/internal/models"
)

// StoreLink persists one detected link
func (s *Store) StoreLink(ctx context.Context, link *models.Link) error {
	result := s.db.WithContext(ctx).Create(link)
	if result.Error != nil {
		return fmt.Errorf("failed to store link: %w", result.Error)
	}
	return nil
}

func (s *Store) findLink(ctx context.Context, messageID, guildID string) (*models.Link, error) {
	var link models.Link
	result := s.db.WithContext(ctx).
		Where("message_id = ? AND guild_id = ? AND is_deleted = ?", messageID, guildID, false).
		First(&link)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error finding link: %w", result.Error)
	}
	return &link, nil
}

// setReadState writes a user's read state for a link. The write is
// unconditional: marking an already-read link read is a no-op upsert, not an
// error, so concurrent toggles stay idempotent.
func (s *Store) setReadState(ctx context.Context, link *models.Link, username string, read bool) error {
	if read {
		receipt := models.ReadReceipt{
			LinkID:   link.ID,
			Username: username,
		}
		result := s.db.WithContext(ctx).
			Where("link_id = ? AND username = ?", link.ID, username).
			Attrs(models.ReadReceipt{ReadAt: time.Now()}).
			FirstOrCreate(&receipt)
		if result.Error != nil {
			return fmt.Errorf("failed to mark link read: %w", result.Error)
		}
		return nil
	}

	result := s.db.WithContext(ctx).
		Where("link_id = ? AND username = ?", link.ID, username).
		Delete(&models.ReadReceipt{})
	if result.Error != nil {
		return fmt.Errorf("failed to mark link unread: %w", result.Error)
	}
	return nil
}

// UpdateReadStatus toggles a user's read state for the link identified by
// message and guild id
func (s *Store) UpdateReadStatus(ctx context.Context, messageID, guildID, username string, read bool) error {
	link, err := s.findLink(ctx, messageID, guildID)
	if err != nil {
		return err
	}
	if link == nil {
		return fmt.Errorf("no link found for message %s in guild %s", messageID, guildID)
	}
	return s.setReadState(ctx, link, username, read)
}

// UpdateReadStatusFromReaction toggles read state attributed to the reacting
// user, not the link's author
func (s *Store) UpdateReadStatusFromReaction(ctx context.Context, messageID, guildID, actorUsername string, read bool) error {
	return s.UpdateReadStatus(ctx, messageID, guildID, actorUsername, read)
}

// DeleteLink soft-deletes the link record for a message
func (s *Store) DeleteLink(ctx context.Context, messageID, guildID string) error {
	link, err := s.findLink(ctx, messageID, guildID)
	if err != nil {
		return err
	}
	if link == nil {
		return fmt.Errorf("no link found for message %s in guild %s", messageID, guildID)
	}

	if err := s.db.WithContext(ctx).Model(link).Update("is_deleted", true).Error; err != nil {
		return fmt.Errorf("failed to flag link deleted: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(link).Error; err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}

func (s *Store) unreadQuery(ctx context.Context, username, botUserID string) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("author <> ? AND author <> ?", username, botUserID).
		Where("id NOT IN (?)", s.db.WithContext(ctx).Model(&models.ReadReceipt{}).
			Select("link_id").
			Where("username = ?", username)).
		Order("posted_at ASC")
}

// GetUnreadLinksForUser returns links in one guild authored by others and not
// yet read by the user, oldest first
func (s *Store) GetUnreadLinksForUser(ctx context.Context, username, guildID, botUserID string) ([]models.Link, error) {
	var links []models.Link
	result := s.unreadQuery(ctx, username, botUserID).
		Where("guild_id = ?", guildID).
		Find(&links)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get unread links: %w", result.Error)
	}
	return links, nil
}

// GetUnreadLinksForUserAllGuilds returns unread links across the given
// guilds, oldest first
func (s *Store) GetUnreadLinksForUserAllGuilds(ctx context.Context, username, botUserID string, guildIDs []string) ([]models.Link, error) {
	if len(guildIDs) == 0 {
		return nil, nil
	}
	var links []models.Link
	result := s.unreadQuery(ctx, username, botUserID).
		Where("guild_id IN ?", guildIDs).
		Find(&links)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get unread links across guilds: %w", result.Error)
	}
	return links, nil
}

// FindLinkByMessageIDAllGuilds resolves a link by message id regardless of
// guild. Bulk digests span guilds, so the owning guild is recovered from the
// record itself.
func (s *Store) FindLinkByMessageIDAllGuilds(ctx context.Context, messageID string) (*models.Link, error) {
	var link models.Link
	result := s.db.WithContext(ctx).
		Where("message_id = ? AND is_deleted = ?", messageID, false).
		First(&link)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error finding link by message id: %w", result.Error)
	}
	return &link, nil
}

// GetActiveMonitoredChannels returns the channels currently monitored for a
// guild
func (s *Store) GetActiveMonitoredChannels(ctx context.Context, guildID string) ([]models.MonitoredChannel, error) {
	var channels []models.MonitoredChannel
	result := s.db.WithContext(ctx).
		Where("guild_id = ? AND is_active = ?", guildID, true).
		Find(&channels)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get monitored channels: %w", result.Error)
	}
	return channels, nil
}

// GetFeatureFlagCached reads a feature flag through a short-lived cache. A
// flag that cannot be read resolves to the fallback value.
func (s *Store) GetFeatureFlagCached(key string, fallback bool) bool {
	if cached, found := s.flagCache.Get(key); found {
		return cached.(bool)
	}

	var flag models.FeatureFlag
	result := s.db.Where("`key` = ?", key).First(&flag)
	if result.Error == gorm.ErrRecordNotFound {
		s.flagCache.SetDefault(key, fallback)
		return fallback
	}
	if result.Error != nil {
		logrus.Errorf("Failed to read feature flag %s: %v", key, result.Error)
		return fallback
	}

	s.flagCache.SetDefault(key, flag.Enabled)
	return flag.Enabled
}
