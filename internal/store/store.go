package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"linktrack-go/internal/models"
)

// LinkStore exposes persistence operations on link records
type LinkStore interface {
	StoreLink(ctx context.Context, link *models.Link) error
	UpdateReadStatus(ctx context.Context, messageID, guildID, username string, read bool) error
	UpdateReadStatusFromReaction(ctx context.Context, messageID, guildID, actorUsername string, read bool) error
	DeleteLink(ctx context.Context, messageID, guildID string) error
	GetUnreadLinksForUser(ctx context.Context, username, guildID, botUserID string) ([]models.Link, error)
	GetUnreadLinksForUserAllGuilds(ctx context.Context, username, botUserID string, guildIDs []string) ([]models.Link, error)
	FindLinkByMessageIDAllGuilds(ctx context.Context, messageID string) (*models.Link, error)
	GetActiveMonitoredChannels(ctx context.Context, guildID string) ([]models.MonitoredChannel, error)
	GetFeatureFlagCached(key string, fallback bool) bool
}

// MappingStore exposes persistence operations on DM reaction mappings
type MappingStore interface {
	CreateDMMapping(ctx context.Context, dmMessageID, emoji, messageID, guildID, digestID string) error
	CreateBulkDMMapping(ctx context.Context, dmMessageID, emoji string, messageIDs []string, digestID string) error
	FindDMMapping(ctx context.Context, dmMessageID, emoji string) (*models.DMMapping, error)
}

// Store is the gorm-backed implementation of LinkStore and MappingStore
type Store struct {
	db        *gorm.DB
	flagCache *gocache.Cache
}

// New creates a Store on an initialized database connection
func New(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		flagCache: gocache.New(30*time.Second, time.Minute),
	}
}
