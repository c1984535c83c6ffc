// Package platform defines the boundary to the chat-platform client. The
// gateway that delivers events and the connection it runs on live outside
// this service; everything here is consumed through ChatService.
package platform

import (
	"context"
	"time"
)

// Permission bits reported for a guild member
const (
	PermissionAdministrator  int64 = 1 << 3
	PermissionManageMessages int64 = 1 << 13
)

// User identifies a platform account
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsBot    bool   `json:"is_bot"`
}

// Message is a chat message as delivered by the platform. GuildID is empty
// for DM messages.
type Message struct {
	ID        string    `json:"id"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	Author    User      `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Partial   bool      `json:"partial"`
}

// ReactionEvent is a reaction add or remove as delivered by the platform
type ReactionEvent struct {
	Emoji     string   `json:"emoji"`
	User      User     `json:"user"`
	Message   *Message `json:"message"`
	MessageID string   `json:"message_id"`
	ChannelID string   `json:"channel_id"`
	GuildID   string   `json:"guild_id"`
	Partial   bool     `json:"partial"`
}

// Interaction is an invoked slash command awaiting a reply
type Interaction struct {
	ID        string `json:"id"`
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
	User      User   `json:"user"`
}

// Member carries the guild-scoped authorization data for a user
type Member struct {
	User        User     `json:"user"`
	RoleNames   []string `json:"role_names"`
	Permissions int64    `json:"permissions"`
}

// ChatService is the outbound interface to the chat platform
type ChatService interface {
	// FetchMessage fully hydrates a message by channel and id
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
	// React applies an emoji reaction to a message
	React(ctx context.Context, channelID, messageID, emoji string) error
	// DeleteMessage removes a message from its channel
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	// FetchMember resolves a guild member with roles and permissions
	FetchMember(ctx context.Context, guildID, userID string) (*Member, error)
	// SendDM opens (or reuses) a DM channel with the user and sends content,
	// returning the sent message
	SendDM(ctx context.Context, userID, content string) (*Message, error)
	// Reply sends an ephemeral reply to an interaction
	Reply(ctx context.Context, interaction *Interaction, content string) error
	// Defer acknowledges an interaction so a slow reply can follow
	Defer(ctx context.Context, interaction *Interaction) error
	// GuildsForUser lists ids of guilds shared between the bot and the user
	GuildsForUser(ctx context.Context, userID string) ([]string, error)
}
