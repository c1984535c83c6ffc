package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"linktrack-go/internal/models"
)

// CreateDMMapping records a reaction mapping for one source message
func (s *Store) CreateDMMapping(ctx context.Context, dmMessageID, emoji, messageID, guildID, digestID string) error {
	mapping := models.DMMapping{
		DMMessageID: dmMessageID,
		Emoji:       emoji,
		Kind:        models.MappingKindSingle,
		MessageID:   messageID,
		GuildID:     guildID,
		DigestID:    digestID,
		CreatedAt:   time.Now(),
	}
	result := s.db.WithContext(ctx).Create(&mapping)
	if result.Error != nil {
		return fmt.Errorf("failed to create DM mapping: %w", result.Error)
	}
	return nil
}

// CreateBulkDMMapping records a reaction mapping covering an ordered list of
// source messages
func (s *Store) CreateBulkDMMapping(ctx context.Context, dmMessageID, emoji string, messageIDs []string, digestID string) error {
	encoded, err := models.EncodeMessageIDs(messageIDs)
	if err != nil {
		return err
	}
	mapping := models.DMMapping{
		DMMessageID: dmMessageID,
		Emoji:       emoji,
		Kind:        models.MappingKindBulk,
		MessageIDs:  encoded,
		DigestID:    digestID,
		CreatedAt:   time.Now(),
	}
	result := s.db.WithContext(ctx).Create(&mapping)
	if result.Error != nil {
		return fmt.Errorf("failed to create bulk DM mapping: %w", result.Error)
	}
	return nil
}

// FindDMMapping looks up a mapping by DM message and emoji. A missing mapping
// is not an error; stray reactions on old DMs are expected.
func (s *Store) FindDMMapping(ctx context.Context, dmMessageID, emoji string) (*models.DMMapping, error) {
	var mapping models.DMMapping
	result := s.db.WithContext(ctx).
		Where("dm_message_id = ? AND emoji = ?", dmMessageID, emoji).
		First(&mapping)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error finding DM mapping: %w", result.Error)
	}
	return &mapping, nil
}
