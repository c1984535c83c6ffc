package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linktrack-go/internal/config"
	"linktrack-go/internal/models"
)

func newTestNotifier(url string) *WebhookNotifier {
	return NewWebhookNotifier(&config.WebhookConfig{
		Enabled: true,
		URL:     url,
		Timeout: time.Second,
	}, testMetrics)
}

func testLink() *models.Link {
	return &models.Link{
		MessageID: "m1",
		GuildID:   "g1",
		ChannelID: "c1",
		URL:       "https://a.example",
		Author:    "alice",
		PostedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLinkStoredDeliversPayload(t *testing.T) {
	var gotContentType string
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	before := testutil.ToFloat64(testMetrics.WebhookDeliveries)

	n.LinkStored(context.Background(), testLink())

	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "m1", got.MessageID)
	assert.Equal(t, "g1", got.GuildID)
	assert.Equal(t, "c1", got.ChannelID)
	assert.Equal(t, "https://a.example", got.URL)
	assert.Equal(t, "alice", got.Author)
	assert.True(t, got.PostedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))

	// Every delivery carries a fresh correlation id.
	_, err := uuid.Parse(got.DeliveryID)
	assert.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(testMetrics.WebhookDeliveries))
}

func TestLinkStoredEndpointErrorCountsAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	failuresBefore := testutil.ToFloat64(testMetrics.WebhookFailures)
	deliveriesBefore := testutil.ToFloat64(testMetrics.WebhookDeliveries)

	n.LinkStored(context.Background(), testLink())

	assert.Equal(t, failuresBefore+1, testutil.ToFloat64(testMetrics.WebhookFailures))
	assert.Equal(t, deliveriesBefore, testutil.ToFloat64(testMetrics.WebhookDeliveries))
}

func TestLinkStoredUnreachableEndpointCountsAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	n := newTestNotifier(srv.URL)
	before := testutil.ToFloat64(testMetrics.WebhookFailures)

	n.LinkStored(context.Background(), testLink())

	assert.Equal(t, before+1, testutil.ToFloat64(testMetrics.WebhookFailures))
}

func TestHandleNotifierFailureDoesNotAffectIngestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	links := newFakeLinkStore()
	chat := &fakeChat{}
	ing := NewIngestor(links, chat, newTestNotifier(srv.URL), testMetrics, "bot1", "✅")

	ing.Handle(context.Background(), testMessage("https://a.example https://b.example"))

	// Both links land and the acknowledgment goes out despite the dead endpoint.
	assert.Len(t, links.stored, 2)
	assert.Equal(t, []reactionCall{{"c1", "m1", "✅"}}, chat.reactions)
}
