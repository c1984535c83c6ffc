package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	LinksIngested     prometheus.Counter
	IngestFailures    prometheus.Counter
	ReactionsHandled  prometheus.Counter
	ReadToggles       prometheus.Counter
	LinksDeleted      prometheus.Counter
	DigestsSent       prometheus.Counter
	DigestFailures    prometheus.Counter
	RateLimitedHits   prometheus.Counter
	WebhookDeliveries prometheus.Counter
	WebhookFailures   prometheus.Counter
	ProcessingTime    prometheus.Histogram
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		LinksIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_links_ingested_total",
			Help: "Total number of links stored from inbound messages",
		}),
		IngestFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_ingest_failures_total",
			Help: "Total number of per-URL store failures during ingestion",
		}),
		ReactionsHandled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_reactions_handled_total",
			Help: "Total number of reaction events processed",
		}),
		ReadToggles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_read_toggles_total",
			Help: "Total number of read-state toggles applied",
		}),
		LinksDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_links_deleted_total",
			Help: "Total number of links removed by the deletion flow",
		}),
		DigestsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_digests_sent_total",
			Help: "Total number of unread digests delivered by DM",
		}),
		DigestFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_digest_failures_total",
			Help: "Total number of digest deliveries that failed",
		}),
		RateLimitedHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_rate_limited_total",
			Help: "Total number of commands rejected by the rate limiter",
		}),
		WebhookDeliveries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_webhook_deliveries_total",
			Help: "Total number of successful link webhook deliveries",
		}),
		WebhookFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrack_webhook_failures_total",
			Help: "Total number of failed link webhook deliveries",
		}),
		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "linktrack_event_processing_duration_seconds",
			Help:    "Time spent handling inbound platform events",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
