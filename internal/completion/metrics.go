package completion

import (
	"time"

	"github.com/lewisedginton/health_companion/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// Metrics are the completion client's collectors. A nil *Metrics records nothing.
type Metrics struct {
	Requests     *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	BreakerState *prometheus.GaugeVec
}

// NewMetrics creates unregistered collectors; register them with Collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "completion_requests_total",
			Help:      "Completion API calls by provider and outcome",
		}, []string{"provider", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Name:      "completion_duration_seconds",
			Help:      "Completion API call duration in seconds",
			Buckets:   metrics.DurationBuckets,
		}, []string{"provider"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Name:      "completion_circuit_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		}, []string{"provider"}),
	}
}

// Collectors returns every collector for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Requests, m.Duration, m.BreakerState}
}

func (m *Metrics) observe(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeCircuitOpen {
		m.Duration.WithLabelValues(provider).Observe(d.Seconds())
	}
}

func (m *Metrics) setBreakerState(provider string, s gobreaker.State) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(provider).Set(float64(s))
}
