// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MessagesTotal tracks messages accepted by the ingestion pipeline.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total messages persisted",
		},
		[]string{"conversation_type"},
	)

	// EnvelopesPublished tracks envelopes published to the cluster bus.
	EnvelopesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_envelopes_published_total",
			Help: "Event envelopes published to the broadcast bus",
		},
		[]string{"event_type"},
	)

	// EnvelopesDelivered tracks envelopes fanned out to local connections.
	EnvelopesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_envelopes_delivered_total",
			Help: "Event envelopes delivered to locally connected clients",
		},
		[]string{"event_type"},
	)

	// LiveConnections tracks active SSE connections on this process.
	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_live_connections",
			Help: "Number of active live connections",
		},
	)

	// NotificationsTotal tracks persisted notifications.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_notifications_total",
			Help: "Total notifications created",
		},
		[]string{"type"},
	)

	// PushFailures tracks swallowed push-delivery failures.
	PushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_push_failures_total",
			Help: "Push delivery attempts that failed and were dropped",
		},
	)

	// IndexFailures tracks swallowed external-index failures.
	IndexFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_index_failures_total",
			Help: "External index calls that failed and were dropped",
		},
	)

	// MentionsTotal tracks mention rows created.
	MentionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_mentions_total",
			Help: "Total mention records created",
		},
		[]string{"kind"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// IncrementLiveConnections increments the active connection count.
func IncrementLiveConnections() {
	LiveConnections.Inc()
}

// DecrementLiveConnections decrements the active connection count.
func DecrementLiveConnections() {
	LiveConnections.Dec()
}
