package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	reviewsDesc = prometheus.NewDesc(
		"missioncontrol_reviews",
		"Current number of reviews by status",
		[]string{"status"},
		nil,
	)

	sourceFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "missioncontrol_source_fetch_total",
		Help: "Dashboard resource fetches by the tier that answered",
	}, []string{"resource", "source"})

	tierFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "missioncontrol_tier_fallback_total",
		Help: "Tiers skipped because they failed",
	}, []string{"resource", "tier"})

	reviewDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "missioncontrol_review_decisions_total",
		Help: "Review decisions recorded by status",
	}, []string{"status"})

	webhookDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "missioncontrol_webhook_deliveries_total",
		Help: "Approval webhook deliveries by outcome",
	}, []string{"outcome"})
)

// ReviewCounter reports how many reviews are in each status.
type ReviewCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// ReviewCollector is a custom Prometheus collector that counts reviews by
// status on each scrape.
type ReviewCollector struct {
	counter ReviewCounter
	log     *zap.Logger
}

// NewReviewCollector returns a collector backed by counter.
func NewReviewCollector(counter ReviewCounter, log *zap.Logger) *ReviewCollector {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewCollector{counter: counter, log: log}
}

// Describe sends the metric descriptor to the channel.
func (c *ReviewCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- reviewsDesc
}

// Collect counts reviews and emits one gauge per status.
func (c *ReviewCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.counter.CountByStatus(ctx)
	if err != nil {
		c.log.Error("failed to collect review metrics", zap.Error(err))
		return
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(
			reviewsDesc,
			prometheus.GaugeValue,
			float64(n),
			status,
		)
	}
}

var initOnce sync.Once

// Init registers every collector with the default registry.
// Must be called once at startup.
func Init(counter ReviewCounter, log *zap.Logger) {
	initOnce.Do(func() {
		prometheus.MustRegister(sourceFetches, tierFallbacks, reviewDecisions, webhookDeliveries)
		if counter != nil {
			prometheus.MustRegister(NewReviewCollector(counter, log))
		}
	})
}

// RecordSourceFetch counts a resource answered by source.
func RecordSourceFetch(resource, source string) {
	sourceFetches.WithLabelValues(resource, source).Inc()
}

// RecordTierFallback counts a failed tier for resource.
func RecordTierFallback(resource, tier string) {
	tierFallbacks.WithLabelValues(resource, tier).Inc()
}

// RecordDecision counts a recorded review decision.
func RecordDecision(status string) {
	reviewDecisions.WithLabelValues(status).Inc()
}

// RecordWebhook counts a webhook delivery outcome ("sent", "failed" or "skipped").
func RecordWebhook(outcome string) {
	webhookDeliveries.WithLabelValues(outcome).Inc()
}
