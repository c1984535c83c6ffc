package bot

import (
	"context"

	"linktrack-go/internal/digest"
	"linktrack-go/internal/ingest"
	"linktrack-go/internal/platform"
	"linktrack-go/internal/reactions"
)

// CommandUnread is the interactive command producing the unread digest
const CommandUnread = "unread"

// Bot is the event-facing facade the gateway dispatches into
type Bot struct {
	ingestor   *ingest.Ingestor
	engine     *reactions.Engine
	dispatcher *digest.Dispatcher
}

// New creates a Bot
func New(ingestor *ingest.Ingestor, engine *reactions.Engine, dispatcher *digest.Dispatcher) *Bot {
	return &Bot{
		ingestor:   ingestor,
		engine:     engine,
		dispatcher: dispatcher,
	}
}

// OnMessage handles one inbound chat message
func (b *Bot) OnMessage(ctx context.Context, msg *platform.Message) {
	b.ingestor.Handle(ctx, msg)
}

// OnReactionAdd handles one reaction-added event
func (b *Bot) OnReactionAdd(ctx context.Context, ev *platform.ReactionEvent) {
	b.engine.HandleReactionAdd(ctx, ev)
}

// OnReactionRemove handles one reaction-removed event
func (b *Bot) OnReactionRemove(ctx context.Context, ev *platform.ReactionEvent) {
	b.engine.HandleReactionRemove(ctx, ev)
}

// OnCommand handles one interactive command invocation
func (b *Bot) OnCommand(ctx context.Context, interaction *platform.Interaction, commandName string) {
	switch commandName {
	case CommandUnread:
		b.dispatcher.HandleCommand(ctx, interaction, commandName, func(ctx context.Context) error {
			return b.dispatcher.HandleUnreadCommand(ctx, interaction)
		})
	default:
		b.dispatcher.HandleCommand(ctx, interaction, commandName, func(ctx context.Context) error {
			return b.dispatcher.HandleUnknownCommand(ctx, interaction, commandName)
		})
	}
}
