package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Link represents one detected URL from one source message
type Link struct {
	ID        uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	MessageID string         `json:"message_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_links_message_guild"`
	GuildID   string         `json:"guild_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_links_message_guild"`
	ChannelID string         `json:"channel_id" gorm:"type:varchar(64);not null;index"`
	URL       string         `json:"url" gorm:"type:text;not null"`
	Author    string         `json:"author" gorm:"type:varchar(255);not null"`
	PostedAt  time.Time      `json:"posted_at"`
	IsDeleted bool           `json:"is_deleted" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationship
	Reads []ReadReceipt `json:"reads,omitempty" gorm:"foreignKey:LinkID"`
}

// TableName specifies the table name for Link
func (Link) TableName() string {
	return "links"
}

// ReadReceipt records that one user has read one link
type ReadReceipt struct {
	ID       uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	LinkID   uint      `json:"link_id" gorm:"not null;uniqueIndex:idx_link_reads_link_user"`
	Username string    `json:"username" gorm:"type:varchar(255);not null;uniqueIndex:idx_link_reads_link_user"`
	ReadAt   time.Time `json:"read_at"`
}

// TableName specifies the table name for ReadReceipt
func (ReadReceipt) TableName() string {
	return "link_reads"
}

// Mapping kinds stored in DMMapping.Kind
const (
	MappingKindSingle = "single"
	MappingKindBulk   = "bulk"
)

// DMMapping links a reaction emoji on a specific DM message to either one
// source message id (single) or an ordered list of ids (bulk)
type DMMapping struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	DMMessageID string    `json:"dm_message_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_dm_mappings_message_emoji"`
	Emoji       string    `json:"emoji" gorm:"type:varchar(32);not null;uniqueIndex:idx_dm_mappings_message_emoji"`
	Kind        string    `json:"kind" gorm:"type:varchar(16);not null"`
	MessageID   string    `json:"message_id" gorm:"type:varchar(64)"`
	GuildID     string    `json:"guild_id" gorm:"type:varchar(64)"`
	MessageIDs  string    `json:"message_ids" gorm:"type:text"`
	DigestID    string    `json:"digest_id" gorm:"type:varchar(36);index"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for DMMapping
func (DMMapping) TableName() string {
	return "dm_mappings"
}

// SingleTarget identifies one source message in one guild
type SingleTarget struct {
	MessageID string
	GuildID   string
}

// BulkTarget identifies an ordered list of source messages whose guilds are
// resolved individually at toggle time
type BulkTarget struct {
	MessageIDs []string
}

// MappingTarget is the decoded form of a DMMapping payload, either single or
// bulk. Exactly one field is non-nil.
type MappingTarget struct {
	Single *SingleTarget
	Bulk   *BulkTarget
}

// Target decodes the mapping payload into its tagged-variant form
func (m *DMMapping) Target() (MappingTarget, error) {
	switch m.Kind {
	case MappingKindSingle:
		if m.MessageID == "" {
			return MappingTarget{}, fmt.Errorf("single mapping %d has no message id", m.ID)
		}
		return MappingTarget{Single: &SingleTarget{MessageID: m.MessageID, GuildID: m.GuildID}}, nil
	case MappingKindBulk:
		var ids []string
		if err := json.Unmarshal([]byte(m.MessageIDs), &ids); err != nil {
			return MappingTarget{}, fmt.Errorf("failed to decode bulk mapping %d: %w", m.ID, err)
		}
		return MappingTarget{Bulk: &BulkTarget{MessageIDs: ids}}, nil
	default:
		return MappingTarget{}, fmt.Errorf("unknown mapping kind %q", m.Kind)
	}
}

// EncodeMessageIDs serializes an ordered id list for a bulk mapping payload
func EncodeMessageIDs(ids []string) (string, error) {
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode message ids: %w", err)
	}
	return string(data), nil
}

// MonitoredChannel flags a channel as active for link ingestion and reaction
// gating within a guild
type MonitoredChannel struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	GuildID     string    `json:"guild_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_monitored_guild_channel"`
	ChannelID   string    `json:"channel_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_monitored_guild_channel"`
	ChannelName string    `json:"channel_name" gorm:"type:varchar(255)"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for MonitoredChannel
func (MonitoredChannel) TableName() string {
	return "monitored_channels"
}

// FeatureFlag toggles a named behavior at runtime
type FeatureFlag struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Key       string    `json:"key" gorm:"type:varchar(255);not null;uniqueIndex"`
	Enabled   bool      `json:"enabled" gorm:"default:true"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for FeatureFlag
func (FeatureFlag) TableName() string {
	return "feature_flags"
}

// FlagLinkTracking gates link ingestion globally
const FlagLinkTracking = "link_tracking_enabled"

// MonitoredChannelRequest represents the request structure for registering a
// monitored channel
type MonitoredChannelRequest struct {
	GuildID     string `json:"guild_id" binding:"required"`
	ChannelID   string `json:"channel_id" binding:"required"`
	ChannelName string `json:"channel_name"`
	IsActive    *bool  `json:"is_active"`
}

// FeatureFlagRequest represents the request structure for updating a flag
type FeatureFlagRequest struct {
	Enabled bool `json:"enabled"`
}

// LinkResponse represents the response structure for links
type LinkResponse struct {
	ID        uint      `json:"id"`
	MessageID string    `json:"message_id"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	URL       string    `json:"url"`
	Author    string    `json:"author"`
	PostedAt  time.Time `json:"posted_at"`
	ReadBy    []string  `json:"read_by"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
