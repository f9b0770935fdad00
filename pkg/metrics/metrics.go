package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all delivery pipeline metrics. A nil *Metrics is valid
// everywhere; callers guard observation helpers so tests can run without
// a registry.
type Metrics struct {
	// Queue consumer metrics
	DeliveriesProcessed *prometheus.CounterVec
	DeliveriesFailed    *prometheus.CounterVec
	DeliveriesRetried   *prometheus.CounterVec
	DeliveriesSuppressed *prometheus.CounterVec
	DeliveryLatency     prometheus.Histogram
	QueueBatchSize      prometheus.Gauge

	// Digest metrics
	DigestRuns       *prometheus.CounterVec
	DigestEmailsSent prometheus.Counter

	// Push subscription metrics
	PushSubscriptionsDeactivated prometheus.Counter
}

// New creates and registers all pipeline metrics under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		DeliveriesProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_processed_total",
			Help:      "Total number of successfully completed delivery items",
		}, []string{"channel"}),
		DeliveriesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_failed_total",
			Help:      "Total number of permanently failed delivery items",
		}, []string{"channel"}),
		DeliveriesRetried: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_retried_total",
			Help:      "Total number of delivery items rescheduled for retry",
		}, []string{"channel"}),
		DeliveriesSuppressed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_suppressed_total",
			Help:      "Total number of deliveries skipped because the recipient was reachable in-app",
		}, []string{"channel"}),
		DeliveryLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_processing_duration_seconds",
			Help:      "Time spent processing one queue cycle",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		QueueBatchSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "delivery_queue_batch_size",
			Help:      "Number of due delivery items selected in the last cycle",
		}),
		DigestRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digest_runs_total",
			Help:      "Total number of digest aggregation runs",
		}, []string{"period", "status"}),
		DigestEmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digest_emails_sent_total",
			Help:      "Total number of digest emails sent",
		}),
		PushSubscriptionsDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_subscriptions_deactivated_total",
			Help:      "Total number of push subscriptions deactivated after endpoint rejection",
		}),
	}
}

// ObserveProcessed guards nil metrics for tests.
func (m *Metrics) ObserveProcessed(channel string) {
	if m == nil {
		return
	}
	m.DeliveriesProcessed.WithLabelValues(channel).Inc()
}

func (m *Metrics) ObserveFailed(channel string) {
	if m == nil {
		return
	}
	m.DeliveriesFailed.WithLabelValues(channel).Inc()
}

func (m *Metrics) ObserveRetried(channel string) {
	if m == nil {
		return
	}
	m.DeliveriesRetried.WithLabelValues(channel).Inc()
}

func (m *Metrics) ObserveSuppressed(channel string) {
	if m == nil {
		return
	}
	m.DeliveriesSuppressed.WithLabelValues(channel).Inc()
}

func (m *Metrics) ObserveBatch(n int) {
	if m == nil {
		return
	}
	m.QueueBatchSize.Set(float64(n))
}

func (m *Metrics) ObserveDigestRun(period, status string) {
	if m == nil {
		return
	}
	m.DigestRuns.WithLabelValues(period, status).Inc()
}

func (m *Metrics) ObserveDigestEmail() {
	if m == nil {
		return
	}
	m.DigestEmailsSent.Inc()
}

func (m *Metrics) ObserveSubscriptionDeactivated() {
	if m == nil {
		return
	}
	m.PushSubscriptionsDeactivated.Inc()
}
