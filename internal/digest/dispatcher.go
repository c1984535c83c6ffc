package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"linktrack-go/internal/metrics"
	"linktrack-go/internal/models"
	"linktrack-go/internal/platform"
	"linktrack-go/internal/ratelimit"
	"linktrack-go/internal/reactions"
	"linktrack-go/internal/store"
)

// CommandFunc is the body of one interactive command
type CommandFunc func(ctx context.Context) error

// Dispatcher gates interactive commands behind the rate limiter and builds
// unread-link digests
type Dispatcher struct {
	limiter   *ratelimit.Limiter
	links     store.LinkStore
	mappings  store.MappingStore
	chat      platform.ChatService
	metrics   *metrics.Metrics
	botUserID string
	ackEmoji  string
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(limiter *ratelimit.Limiter, links store.LinkStore, mappings store.MappingStore, chat platform.ChatService, m *metrics.Metrics, botUserID, ackEmoji string) *Dispatcher {
	return &Dispatcher{
		limiter:   limiter,
		links:     links,
		mappings:  mappings,
		chat:      chat,
		metrics:   m,
		botUserID: botUserID,
		ackEmoji:  ackEmoji,
	}
}

// HandleCommand wraps a command body with the rate limit gate. Every
// invocation terminates with exactly one reply: the rate limit notice, the
// command's own reply, or a generic failure reply.
func (d *Dispatcher) HandleCommand(ctx context.Context, interaction *platform.Interaction, commandName string, fn CommandFunc) {
	result := d.limiter.Check(interaction.User.ID, commandName)
	if !result.Allowed {
		d.metrics.RateLimitedHits.Inc()
		notice := fmt.Sprintf("You're doing that too often. Try again in %s.",
			(time.Duration(result.RetryAfter) * time.Second).String())
		if err := d.chat.Reply(ctx, interaction, notice); err != nil {
			logrus.Errorf("Failed to send rate limit notice to %s: %v", interaction.User.ID, err)
		}
		return
	}

	if err := d.run(ctx, fn); err != nil {
		logrus.Errorf("Command %s failed for user %s: %v", commandName, interaction.User.ID, err)
		if replyErr := d.chat.Reply(ctx, interaction, "Something went wrong running that command. Please try again later."); replyErr != nil {
			logrus.Errorf("Failed to send failure reply to %s: %v", interaction.User.ID, replyErr)
		}
	}
}

// run executes a command body, converting panics into errors so the
// dispatcher can still produce its one reply
func (d *Dispatcher) run(ctx context.Context, fn CommandFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in command body: %v", r)
		}
	}()
	return fn(ctx)
}

// HandleUnknownCommand replies to a command this bot does not implement
func (d *Dispatcher) HandleUnknownCommand(ctx context.Context, interaction *platform.Interaction, commandName string) error {
	return d.chat.Reply(ctx, interaction, fmt.Sprintf("Unknown command %q.", commandName))
}

// HandleUnreadCommand builds and delivers the unread-links digest DM. Scope
// is the invoking guild, or every shared guild when invoked from a DM.
func (d *Dispatcher) HandleUnreadCommand(ctx context.Context, interaction *platform.Interaction) error {
	// The queries below can be slow; acknowledge first.
	if err := d.chat.Defer(ctx, interaction); err != nil {
		return fmt.Errorf("failed to defer reply: %w", err)
	}

	username := interaction.User.Username

	var links []models.Link
	var err error
	if interaction.GuildID != "" {
		links, err = d.links.GetUnreadLinksForUser(ctx, username, interaction.GuildID, d.botUserID)
	} else {
		var guildIDs []string
		guildIDs, err = d.chat.GuildsForUser(ctx, interaction.User.ID)
		if err != nil {
			return fmt.Errorf("failed to list shared guilds: %w", err)
		}
		links, err = d.links.GetUnreadLinksForUserAllGuilds(ctx, username, d.botUserID, guildIDs)
	}
	if err != nil {
		return fmt.Errorf("failed to query unread links: %w", err)
	}

	if len(links) == 0 {
		return d.chat.Reply(ctx, interaction, "🎉 You're all caught up! No unread links.")
	}

	if len(links) > reactions.MaxDigestItems {
		links = links[:reactions.MaxDigestItems]
	}

	dm, err := d.sendDigestDM(ctx, interaction.User.ID, links)
	if err != nil {
		d.metrics.DigestFailures.Inc()
		logrus.Errorf("Failed to DM digest to %s: %v", username, err)
		return d.chat.Reply(ctx, interaction, "I couldn't reach you by DM. Check that your DMs are open and try again.")
	}

	d.createMappings(ctx, dm, links)
	d.applyReactions(ctx, dm, len(links))

	d.metrics.DigestsSent.Inc()
	return d.chat.Reply(ctx, interaction, fmt.Sprintf("Sent you a DM with %d unread links.", len(links)))
}

func (d *Dispatcher) sendDigestDM(ctx context.Context, userID string, links []models.Link) (*platform.Message, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("You have %d unread links. React with a symbol to mark one read, or %s to mark everything read.\n", len(links), d.ackEmoji))
	for i, link := range links {
		symbol, _ := reactions.SymbolForIndex(i)
		b.WriteString(fmt.Sprintf("%s %s — %s (%s)\n", symbol, link.URL, link.Author, link.PostedAt.Format("2006-01-02")))
	}
	return d.chat.SendDM(ctx, userID, b.String())
}

// createMappings persists one mapping per digest item plus one bulk mapping
// keyed to the acknowledgment emoji, covering the whole ordered list
func (d *Dispatcher) createMappings(ctx context.Context, dm *platform.Message, links []models.Link) {
	digestID := uuid.NewString()

	messageIDs := make([]string, 0, len(links))
	for i, link := range links {
		messageIDs = append(messageIDs, link.MessageID)

		symbol, ok := reactions.SymbolForIndex(i)
		if !ok {
			continue
		}
		if err := d.mappings.CreateDMMapping(ctx, dm.ID, symbol, link.MessageID, link.GuildID, digestID); err != nil {
			logrus.Errorf("Failed to create DM mapping for message %s: %v", link.MessageID, err)
		}
	}

	if err := d.mappings.CreateBulkDMMapping(ctx, dm.ID, d.ackEmoji, messageIDs, digestID); err != nil {
		logrus.Errorf("Failed to create bulk DM mapping for digest %s: %v", digestID, err)
	}
}

// applyReactions pre-seeds the DM with its reaction affordances so one tap
// toggles an item
func (d *Dispatcher) applyReactions(ctx context.Context, dm *platform.Message, count int) {
	for i := 0; i < count; i++ {
		symbol, ok := reactions.SymbolForIndex(i)
		if !ok {
			break
		}
		if err := d.chat.React(ctx, dm.ChannelID, dm.ID, symbol); err != nil {
			logrus.Warnf("Failed to seed reaction %s on digest DM: %v", symbol, err)
		}
	}
	if err := d.chat.React(ctx, dm.ChannelID, dm.ID, d.ackEmoji); err != nil {
		logrus.Warnf("Failed to seed bulk reaction on digest DM: %v", err)
	}
}
