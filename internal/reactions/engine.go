package reactions

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"linktrack-go/internal/channels"
	"linktrack-go/internal/metrics"
	"linktrack-go/internal/models"
	"linktrack-go/internal/platform"
	"linktrack-go/internal/store"
)

// elevatedRoleNames are matched case-insensitively as substrings of a
// member's role names when platform permissions alone do not authorize a
// deletion
var elevatedRoleNames = []string{"admin", "moderator"}

// Engine turns reaction add/remove events into read-state toggles, DM
// mapping resolutions, and permission-gated deletions
type Engine struct {
	links        store.LinkStore
	mappings     store.MappingStore
	chat         platform.ChatService
	authority    *channels.Authority
	metrics      *metrics.Metrics
	botUserID    string
	ackEmoji     string
	deleteEmojis []string
}

// NewEngine creates an Engine
func NewEngine(links store.LinkStore, mappings store.MappingStore, chat platform.ChatService, authority *channels.Authority, m *metrics.Metrics, botUserID, ackEmoji string, deleteEmojis []string) *Engine {
	return &Engine{
		links:        links,
		mappings:     mappings,
		chat:         chat,
		authority:    authority,
		metrics:      m,
		botUserID:    botUserID,
		ackEmoji:     ackEmoji,
		deleteEmojis: deleteEmojis,
	}
}

// HandleReactionAdd processes a reaction-added event
func (e *Engine) HandleReactionAdd(ctx context.Context, ev *platform.ReactionEvent) {
	e.handleEvent(ctx, ev, true)
}

// HandleReactionRemove processes a reaction-removed event
func (e *Engine) HandleReactionRemove(ctx context.Context, ev *platform.ReactionEvent) {
	e.handleEvent(ctx, ev, false)
}

// handleEvent is the outermost per-event boundary: nothing escapes into the
// platform event loop.
func (e *Engine) handleEvent(ctx context.Context, ev *platform.ReactionEvent, added bool) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Panic handling reaction on message %s: %v", ev.MessageID, r)
		}
	}()

	if err := e.handle(ctx, ev, added); err != nil {
		logrus.Errorf("Failed to handle reaction on message %s: %v", ev.MessageID, err)
	}
}

func (e *Engine) handle(ctx context.Context, ev *platform.ReactionEvent, added bool) error {
	if ev.User.ID == e.botUserID {
		return nil
	}

	msg, err := e.hydrate(ctx, ev)
	if err != nil {
		return fmt.Errorf("failed to hydrate reaction event: %w", err)
	}

	e.metrics.ReactionsHandled.Inc()

	if msg.GuildID != "" {
		return e.handleChannelReaction(ctx, ev, msg, added)
	}
	return e.handleDMReaction(ctx, ev, msg, added)
}

// hydrate fully fetches a partially delivered reaction or parent message
func (e *Engine) hydrate(ctx context.Context, ev *platform.ReactionEvent) (*platform.Message, error) {
	if ev.Message != nil && !ev.Message.Partial && !ev.Partial {
		return ev.Message, nil
	}
	msg, err := e.chat.FetchMessage(ctx, ev.ChannelID, ev.MessageID)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (e *Engine) handleChannelReaction(ctx context.Context, ev *platform.ReactionEvent, msg *platform.Message, added bool) error {
	if !e.authority.IsMonitored(ctx, msg.GuildID, msg.ChannelID) {
		logrus.Debugf("Channel %s not monitored in guild %s, ignoring reaction", msg.ChannelID, msg.GuildID)
		return nil
	}

	if added && e.isDeleteEmoji(ev.Emoji) {
		return e.handleDeletion(ctx, ev, msg)
	}

	if ev.Emoji == e.ackEmoji {
		// Attributed to the reactor, not the original poster. The write is
		// unconditional; repeating the same state is a no-op at the store.
		if err := e.links.UpdateReadStatusFromReaction(ctx, msg.ID, msg.GuildID, ev.User.Username, added); err != nil {
			return fmt.Errorf("failed to toggle read state: %w", err)
		}
		e.metrics.ReadToggles.Inc()
		logrus.Infof("Marked message %s read=%t for %s", msg.ID, added, ev.User.Username)
	}

	return nil
}

func (e *Engine) handleDMReaction(ctx context.Context, ev *platform.ReactionEvent, msg *platform.Message, added bool) error {
	mapping, err := e.mappings.FindDMMapping(ctx, msg.ID, ev.Emoji)
	if err != nil {
		return fmt.Errorf("failed to look up DM mapping: %w", err)
	}
	if mapping == nil {
		// Expected for stray reactions on old or unrelated DMs.
		logrus.Warnf("No DM mapping for message %s emoji %s", msg.ID, ev.Emoji)
		return nil
	}

	target, err := mapping.Target()
	if err != nil {
		return fmt.Errorf("failed to decode DM mapping: %w", err)
	}

	if target.Bulk != nil {
		e.toggleBulk(ctx, target.Bulk, ev.User.Username, added)
		return nil
	}

	single := target.Single
	if err := e.links.UpdateReadStatus(ctx, single.MessageID, single.GuildID, ev.User.Username, added); err != nil {
		return fmt.Errorf("failed to toggle read state for message %s: %w", single.MessageID, err)
	}
	e.metrics.ReadToggles.Inc()
	logrus.Infof("DM reaction toggled message %s read=%t for %s", single.MessageID, added, ev.User.Username)
	return nil
}

// toggleBulk marks every message of a bulk mapping. Bulk digests span
// guilds, so each id is resolved to its owning guild individually. Per-id
// failures are counted, not fatal.
func (e *Engine) toggleBulk(ctx context.Context, bulk *models.BulkTarget, username string, read bool) {
	failures := 0
	for _, messageID := range bulk.MessageIDs {
		link, err := e.links.FindLinkByMessageIDAllGuilds(ctx, messageID)
		if err != nil || link == nil {
			logrus.Errorf("Failed to resolve guild for message %s: %v", messageID, err)
			failures++
			continue
		}
		if err := e.links.UpdateReadStatus(ctx, messageID, link.GuildID, username, read); err != nil {
			logrus.Errorf("Failed to toggle read state for message %s: %v", messageID, err)
			failures++
			continue
		}
		e.metrics.ReadToggles.Inc()
	}

	logrus.Infof("Bulk toggle read=%t for %s: %d messages, %d failures",
		read, username, len(bulk.MessageIDs), failures)
}

func (e *Engine) isDeleteEmoji(emoji string) bool {
	for _, candidate := range e.deleteEmojis {
		if emoji == candidate {
			return true
		}
	}
	return false
}

// handleDeletion removes a link record and its origin message if the reactor
// is authorized. The two deletions are independent: a store failure does not
// keep the message alive, and a message failure leaves the record gone.
func (e *Engine) handleDeletion(ctx context.Context, ev *platform.ReactionEvent, msg *platform.Message) error {
	if msg.GuildID == "" {
		return fmt.Errorf("deletion requires a guild context")
	}

	authorized, err := e.canDelete(ctx, ev, msg)
	if err != nil {
		return fmt.Errorf("failed to check deletion permission: %w", err)
	}
	if !authorized {
		logrus.Debugf("User %s not authorized to delete message %s", ev.User.Username, msg.ID)
		return nil
	}

	if err := e.links.DeleteLink(ctx, msg.ID, msg.GuildID); err != nil {
		logrus.Errorf("Failed to delete link record for message %s: %v", msg.ID, err)
	} else {
		e.metrics.LinksDeleted.Inc()
	}

	if err := e.chat.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		logrus.Errorf("Failed to delete message %s: %v", msg.ID, err)
		return nil
	}

	logrus.Infof("Deleted message %s in guild %s on request of %s", msg.ID, msg.GuildID, ev.User.Username)
	return nil
}

// canDelete authorizes a deletion: the original author may always delete
// their own link; anyone else needs elevated platform permissions or a
// matching role name.
func (e *Engine) canDelete(ctx context.Context, ev *platform.ReactionEvent, msg *platform.Message) (bool, error) {
	if ev.User.ID == msg.Author.ID {
		return true, nil
	}

	member, err := e.chat.FetchMember(ctx, msg.GuildID, ev.User.ID)
	if err != nil {
		return false, err
	}

	if member.Permissions&platform.PermissionAdministrator != 0 {
		return true, nil
	}
	if member.Permissions&platform.PermissionManageMessages != 0 {
		return true, nil
	}

	for _, role := range member.RoleNames {
		lower := strings.ToLower(role)
		for _, elevated := range elevatedRoleNames {
			if strings.Contains(lower, elevated) {
				return true, nil
			}
		}
	}

	return false, nil
}
