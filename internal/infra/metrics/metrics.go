package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inbound webhook deliveries per platform/event type.",
		},
		[]string{"platform", "event"},
	)

	webhookFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_failures_total",
			Help: "Webhook deliveries that ended in a processing error.",
		},
		[]string{"platform"},
	)

	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notifications delivered to Telegram per platform/event type.",
		},
		[]string{"platform", "event_type"},
	)

	notificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_send_failures_total",
			Help: "Notifications dropped after the send (and fallback) failed.",
		},
		[]string{"platform", "event_type"},
	)

	webhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_handle_latency_ms",
			Help:    "End-to-end webhook handling latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"platform"},
	)
)

// Register installs all collectors into the default registry. Safe to call
// more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			webhookEvents,
			webhookFailures,
			notificationsSent,
			notificationFailures,
			webhookLatency,
		)
	})
}

func WebhookReceived(platform, event string) {
	webhookEvents.WithLabelValues(platform, event).Inc()
}

func WebhookFailed(platform string) {
	webhookFailures.WithLabelValues(platform).Inc()
}

func NotificationSent(platform, eventType string) {
	notificationsSent.WithLabelValues(platform, eventType).Inc()
}

func NotificationFailed(platform, eventType string) {
	notificationFailures.WithLabelValues(platform, eventType).Inc()
}

func ObserveWebhookLatency(platform string, ms float64) {
	webhookLatency.WithLabelValues(platform).Observe(ms)
}
