// Package metrics provides Prometheus metrics collection for the HTTP server.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lewisedginton/health_companion/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric exported by the service.
const Namespace = "health_companion"

// DurationBuckets are the histogram buckets shared by latency metrics, in seconds.
var DurationBuckets = []float64{0.05, 0.1, 0.3, 0.5, 1.0, 2.0, 3.0, 5.0, 8.0, 10.0}

// Metrics owns a private registry plus the HTTP collectors.
type Metrics struct {
	reg *prometheus.Registry
	log logger.Logger

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	server *http.Server
}

// NewMetrics creates a registry with Go/process collectors and, optionally, HTTP metrics.
func NewMetrics(httpMetrics bool, l logger.Logger) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if httpMetrics {
		m.HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{"method", "code"})
		m.HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   DurationBuckets,
		}, []string{"method"})
		m.reg.MustRegister(m.HTTPRequests, m.HTTPDuration)
	}
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// AddCustomMetric registers additional collectors.
func (m *Metrics) AddCustomMetric(cs ...prometheus.Collector) {
	m.reg.MustRegister(cs...)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// HTTPMiddleware returns a chi-compatible middleware that tracks HTTP metrics.
// It is a pass-through when HTTP metrics are disabled.
func (m *Metrics) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil || m.HTTPRequests == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.HTTPDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
			m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		})
	}
}

// Listen starts the /metrics server on port. The returned channel receives a
// listener error, if any, and is closed when the server stops.
func (m *Metrics) Listen(port int) <-chan error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", http.NotFoundHandler())
	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		m.log.Info("Starting metrics listener", logger.IntField("port", port))
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("metrics listener: %w", err)
		}
	}()
	return errChan
}

// Shutdown stops the metrics server if it was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	m.log.Info("Stopping metrics listener")
	return m.server.Shutdown(ctx)
}
