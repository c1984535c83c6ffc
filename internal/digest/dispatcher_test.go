package digest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linktrack-go/internal/config"
	"linktrack-go/internal/metrics"
	"linktrack-go/internal/models"
	"linktrack-go/internal/platform"
	"linktrack-go/internal/ratelimit"
)

// promauto registers globally; one set of metrics per test binary.
var testMetrics = metrics.NewMetrics()

const ackEmoji = "✅"

type fakeLinkStore struct {
	guildLinks    []models.Link
	allGuildLinks []models.Link
}

func (f *fakeLinkStore) StoreLink(ctx context.Context, link *models.Link) error { return nil }

func (f *fakeLinkStore) UpdateReadStatus(ctx context.Context, messageID, guildID, username string, read bool) error {
	return nil
}

func (f *fakeLinkStore) UpdateReadStatusFromReaction(ctx context.Context, messageID, guildID, actorUsername string, read bool) error {
	return nil
}

func (f *fakeLinkStore) DeleteLink(ctx context.Context, messageID, guildID string) error { return nil }

func (f *fakeLinkStore) GetUnreadLinksForUser(ctx context.Context, username, guildID, botUserID string) ([]models.Link, error) {
	return f.guildLinks, nil
}

func (f *fakeLinkStore) GetUnreadLinksForUserAllGuilds(ctx context.Context, username, botUserID string, guildIDs []string) ([]models.Link, error) {
	return f.allGuildLinks, nil
}

func (f *fakeLinkStore) FindLinkByMessageIDAllGuilds(ctx context.Context, messageID string) (*models.Link, error) {
	return nil, nil
}

func (f *fakeLinkStore) GetActiveMonitoredChannels(ctx context.Context, guildID string) ([]models.MonitoredChannel, error) {
	return nil, nil
}

func (f *fakeLinkStore) GetFeatureFlagCached(key string, fallback bool) bool { return fallback }

type singleMapping struct {
	dmMessageID string
	emoji       string
	messageID   string
	guildID     string
}

type bulkMapping struct {
	dmMessageID string
	emoji       string
	messageIDs  []string
}

type fakeMappingStore struct {
	singles []singleMapping
	bulks   []bulkMapping
}

func (f *fakeMappingStore) CreateDMMapping(ctx context.Context, dmMessageID, emoji, messageID, guildID, digestID string) error {
	f.singles = append(f.singles, singleMapping{dmMessageID, emoji, messageID, guildID})
	return nil
}

func (f *fakeMappingStore) CreateBulkDMMapping(ctx context.Context, dmMessageID, emoji string, messageIDs []string, digestID string) error {
	f.bulks = append(f.bulks, bulkMapping{dmMessageID, emoji, messageIDs})
	return nil
}

func (f *fakeMappingStore) FindDMMapping(ctx context.Context, dmMessageID, emoji string) (*models.DMMapping, error) {
	return nil, nil
}

type fakeChat struct {
	replies      []string
	deferCalls   int
	dmContents   []string
	dmErr        error
	reactions    []string
	sharedGuilds []string
	guildCalls   int
}

func (f *fakeChat) FetchMessage(ctx context.Context, channelID, messageID string) (*platform.Message, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeChat) React(ctx context.Context, channelID, messageID, emoji string) error {
	f.reactions = append(f.reactions, emoji)
	return nil
}

func (f *fakeChat) DeleteMessage(ctx context.Context, channelID, messageID string) error { return nil }

func (f *fakeChat) FetchMember(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeChat) SendDM(ctx context.Context, userID, content string) (*platform.Message, error) {
	if f.dmErr != nil {
		return nil, f.dmErr
	}
	f.dmContents = append(f.dmContents, content)
	return &platform.Message{ID: "dm1", ChannelID: "dmchan"}, nil
}

func (f *fakeChat) Reply(ctx context.Context, interaction *platform.Interaction, content string) error {
	f.replies = append(f.replies, content)
	return nil
}

func (f *fakeChat) Defer(ctx context.Context, interaction *platform.Interaction) error {
	f.deferCalls++
	return nil
}

func (f *fakeChat) GuildsForUser(ctx context.Context, userID string) ([]string, error) {
	f.guildCalls++
	return f.sharedGuilds, nil
}

func makeLinks(n int) []models.Link {
	links := make([]models.Link, 0, n)
	for i := 0; i < n; i++ {
		links = append(links, models.Link{
			MessageID: fmt.Sprintf("m%d", i),
			GuildID:   "g1",
			URL:       fmt.Sprintf("https://example.com/%d", i),
			Author:    "alice",
			PostedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		})
	}
	return links
}

func newDispatcher(links *fakeLinkStore, mappings *fakeMappingStore, chat *fakeChat, maxRequests int) *Dispatcher {
	limiter := ratelimit.New(&config.RateLimitConfig{
		Enabled:       true,
		MaxRequests:   maxRequests,
		Window:        time.Minute,
		SweepInterval: time.Minute,
	})
	return NewDispatcher(limiter, links, mappings, chat, testMetrics, "bot1", ackEmoji)
}

func guildInteraction() *platform.Interaction {
	return &platform.Interaction{
		ID:      "i1",
		GuildID: "g1",
		User:    platform.User{ID: "u1", Username: "bob"},
	}
}

func TestHandleCommandRateLimitGate(t *testing.T) {
	chat := &fakeChat{}
	d := newDispatcher(&fakeLinkStore{}, &fakeMappingStore{}, chat, 1)

	invoked := 0
	fn := func(ctx context.Context) error {
		invoked++
		return chat.Reply(ctx, guildInteraction(), "done")
	}

	d.HandleCommand(context.Background(), guildInteraction(), "unread", fn)
	assert.Equal(t, 1, invoked)

	d.HandleCommand(context.Background(), guildInteraction(), "unread", fn)
	assert.Equal(t, 1, invoked, "blocked command must not run")

	require.Len(t, chat.replies, 2)
	assert.Contains(t, chat.replies[1], "too often")
	assert.Contains(t, chat.replies[1], "1m0s")
}

func TestHandleCommandConvertsErrorToReply(t *testing.T) {
	chat := &fakeChat{}
	d := newDispatcher(&fakeLinkStore{}, &fakeMappingStore{}, chat, 5)

	d.HandleCommand(context.Background(), guildInteraction(), "unread", func(ctx context.Context) error {
		return fmt.Errorf("query exploded")
	})

	require.Len(t, chat.replies, 1)
	assert.Contains(t, chat.replies[0], "Something went wrong")
}

func TestHandleCommandConvertsPanicToReply(t *testing.T) {
	chat := &fakeChat{}
	d := newDispatcher(&fakeLinkStore{}, &fakeMappingStore{}, chat, 5)

	d.HandleCommand(context.Background(), guildInteraction(), "unread", func(ctx context.Context) error {
		panic("boom")
	})

	require.Len(t, chat.replies, 1)
	assert.Contains(t, chat.replies[0], "Something went wrong")
}

func TestUnreadCommandAllCaughtUp(t *testing.T) {
	chat := &fakeChat{}
	d := newDispatcher(&fakeLinkStore{}, &fakeMappingStore{}, chat, 5)

	err := d.HandleUnreadCommand(context.Background(), guildInteraction())
	require.NoError(t, err)

	assert.Equal(t, 1, chat.deferCalls)
	require.Len(t, chat.replies, 1)
	assert.Contains(t, chat.replies[0], "caught up")
	assert.Empty(t, chat.dmContents)
}

func TestUnreadCommandCreatesMappings(t *testing.T) {
	links := &fakeLinkStore{guildLinks: makeLinks(15)}
	mappings := &fakeMappingStore{}
	chat := &fakeChat{}
	d := newDispatcher(links, mappings, chat, 5)

	err := d.HandleUnreadCommand(context.Background(), guildInteraction())
	require.NoError(t, err)

	// One single mapping per item: ten digit symbols then five letters.
	require.Len(t, mappings.singles, 15)
	assert.Equal(t, singleMapping{"dm1", "1️⃣", "m0", "g1"}, mappings.singles[0])
	assert.Equal(t, singleMapping{"dm1", "🔟", "m9", "g1"}, mappings.singles[9])
	assert.Equal(t, singleMapping{"dm1", "🇦", "m10", "g1"}, mappings.singles[10])
	assert.Equal(t, singleMapping{"dm1", "🇪", "m14", "g1"}, mappings.singles[14])

	// Exactly one bulk mapping covering the whole ordered list.
	require.Len(t, mappings.bulks, 1)
	assert.Equal(t, ackEmoji, mappings.bulks[0].emoji)
	assert.Len(t, mappings.bulks[0].messageIDs, 15)
	assert.Equal(t, "m0", mappings.bulks[0].messageIDs[0])
	assert.Equal(t, "m14", mappings.bulks[0].messageIDs[14])

	// The DM lists each link and is pre-seeded with its reactions.
	require.Len(t, chat.dmContents, 1)
	assert.Equal(t, 15, strings.Count(chat.dmContents[0], "https://example.com/"))
	assert.Len(t, chat.reactions, 16)
	assert.Equal(t, ackEmoji, chat.reactions[15])

	require.Len(t, chat.replies, 1)
	assert.Contains(t, chat.replies[0], "15 unread links")
}

func TestUnreadCommandTruncatesAtTwentyFive(t *testing.T) {
	links := &fakeLinkStore{guildLinks: makeLinks(30)}
	mappings := &fakeMappingStore{}
	chat := &fakeChat{}
	d := newDispatcher(links, mappings, chat, 5)

	err := d.HandleUnreadCommand(context.Background(), guildInteraction())
	require.NoError(t, err)

	assert.Len(t, mappings.singles, 25)
	require.Len(t, mappings.bulks, 1)
	assert.Len(t, mappings.bulks[0].messageIDs, 25)
	assert.Equal(t, "m24", mappings.bulks[0].messageIDs[24])
}

func TestUnreadCommandCrossGuildScope(t *testing.T) {
	links := &fakeLinkStore{allGuildLinks: makeLinks(2)}
	mappings := &fakeMappingStore{}
	chat := &fakeChat{sharedGuilds: []string{"g1", "g2"}}
	d := newDispatcher(links, mappings, chat, 5)

	dmInteraction := &platform.Interaction{
		ID:   "i2",
		User: platform.User{ID: "u1", Username: "bob"},
	}
	err := d.HandleUnreadCommand(context.Background(), dmInteraction)
	require.NoError(t, err)

	assert.Equal(t, 1, chat.guildCalls)
	assert.Len(t, mappings.singles, 2)
}

func TestUnreadCommandDMFailureIsDistinct(t *testing.T) {
	links := &fakeLinkStore{guildLinks: makeLinks(3)}
	mappings := &fakeMappingStore{}
	chat := &fakeChat{dmErr: fmt.Errorf("DMs closed")}
	d := newDispatcher(links, mappings, chat, 5)

	err := d.HandleUnreadCommand(context.Background(), guildInteraction())
	require.NoError(t, err)

	require.Len(t, chat.replies, 1)
	assert.Contains(t, chat.replies[0], "couldn't reach you")
	// No mappings without a delivered DM.
	assert.Empty(t, mappings.singles)
	assert.Empty(t, mappings.bulks)
}
