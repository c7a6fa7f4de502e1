package skill

import (
	"github.com/lewisedginton/health_companion/internal/alexa"
	"github.com/lewisedginton/health_companion/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics counts dispatched requests. A nil *Metrics records nothing.
type Metrics struct {
	Requests *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "skill_requests_total",
			Help:      "Skill requests by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Requests}
}

func (m *Metrics) observe(kind alexa.RequestKind, outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(kind.String(), outcome).Inc()
}
