package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
	apiErrorsTotal          *prometheus.CounterVec
	interactionsTotal       *prometheus.CounterVec
	notificationsPublished  *prometheus.CounterVec
	messagesSentTotal       prometheus.Counter
	sseClientsActive        prometheus.Gauge
	streamConnectionsActive prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		interactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interactions_total",
			Help: "Ledger interactions processed, by action and resulting state.",
		}, []string{"action", "state"})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notifications created and delivered, by type.",
		}, []string{"type"})

		messagesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Direct messages stored.",
		})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sse_clients_active",
			Help: "Open notification SSE subscriptions.",
		})

		streamConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stream_connections_active",
			Help: "Open websocket message stream connections.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			interactionsTotal,
			notificationsPublished,
			messagesSentTotal,
			sseClientsActive,
			streamConnectionsActive,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// InteractionsTotal exposes the ledger interaction counter.
func InteractionsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return interactionsTotal
}

// NotificationsPublishedTotal exposes the notification delivery counter.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

// MessagesSentTotal exposes the direct message counter.
func MessagesSentTotal() prometheus.Counter {
	RegisterMetrics()
	return messagesSentTotal
}

// SSEClientsActive exposes the gauge of open SSE subscriptions.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

// StreamConnectionsActive exposes the gauge of open websocket connections.
func StreamConnectionsActive() prometheus.Gauge {
	RegisterMetrics()
	return streamConnectionsActive
}
