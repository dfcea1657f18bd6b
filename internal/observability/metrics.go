package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	Requests        *prometheus.CounterVec
	ProviderErrors  *prometheus.CounterVec
	HistoryFailures *prometheus.CounterVec
	VoiceFallbacks  prometheus.Counter
	TurnLatency     *prometheus.HistogramVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Conversational requests by flow and outcome.",
		}, []string{"flow", "outcome"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and code.",
		}, []string{"provider", "code"}),
		HistoryFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_failures_total",
			Help:      "Absorbed history store failures by operation.",
		}, []string{"op"}),
		VoiceFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_voice_fallbacks_total",
			Help:      "Agent voice lookups that fell back to the persona default.",
		}),
		TurnLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "End-to-end request latency per flow in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		}, []string{"flow"}),
	}
}

func (m *Metrics) ObserveTurn(flow string, d time.Duration) {
	m.TurnLatency.WithLabelValues(flow).Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
