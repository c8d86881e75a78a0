package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the relay
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// WebhookEvents counts ingested webhook events by event type and outcome
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_events_total", Help: "Ingested webhook events by type and outcome."},
		[]string{"event_type", "outcome"},
	)
	// PushSends counts per-token push delivery attempts by outcome
	PushSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "push_sends_total", Help: "Push delivery attempts by outcome."},
		[]string{"outcome"},
	)
	// PushLatency tracks per-token push delivery latencies in milliseconds
	PushLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "push_send_latency_ms", Help: "Push delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"outcome"},
	)
	// Subscribers tracks the current registry size
	Subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "push_subscribers", Help: "Currently registered push subscriber tokens."},
	)
)

// RegisterDefault registers collectors to the relay registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(WebhookEvents)
		Registry.MustRegister(PushSends)
		Registry.MustRegister(PushLatency)
		Registry.MustRegister(Subscribers)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
