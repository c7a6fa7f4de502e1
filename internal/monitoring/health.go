// Package monitoring wires the service's liveness and readiness checks.
package monitoring

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lewisedginton/health_companion/pkg/health"
	"github.com/lewisedginton/health_companion/pkg/logger"
	"github.com/sony/gobreaker"
)

var (
	errShuttingDown = errors.New("shutting down")
	errCircuitOpen  = errors.New("completion circuit breaker is open")
)

// BreakerReporter exposes the completion client's circuit state.
type BreakerReporter interface {
	Provider() string
	BreakerState() gobreaker.State
}

// Config holds configuration for the health monitor
type Config struct {
	Logger logger.Logger
	// Completion adds a readiness check failing while the circuit is open.
	Completion BreakerReporter
	// CompletionProbe adds a completion API reachability check when set.
	CompletionProbe  health.Check
	Timeout          time.Duration
	FailureThreshold int
}

// HealthMonitor owns the health checker and serves the health endpoints.
type HealthMonitor struct {
	checker      *health.Checker
	log          logger.Logger
	shuttingDown atomic.Bool
}

// NewHealthMonitor creates a new health monitor with configured checks
func NewHealthMonitor(cfg Config) *HealthMonitor {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNopLogger()
	}
	hm := &HealthMonitor{
		checker: health.New(
			health.WithLogger(cfg.Logger),
			health.WithTimeout(cfg.Timeout),
			health.WithFailureThreshold(cfg.FailureThreshold),
		),
		log: cfg.Logger,
	}

	hm.checker.AddLivenessCheck(health.CheckFunc("process", func(context.Context) error {
		return nil
	}))

	hm.checker.AddReadinessCheck(health.CheckFunc("shutdown", func(context.Context) error {
		if hm.shuttingDown.Load() {
			return errShuttingDown
		}
		return nil
	}))

	if cfg.Completion != nil {
		breaker := cfg.Completion
		hm.checker.AddReadinessCheck(health.CheckFunc(breaker.Provider()+"_circuit", func(context.Context) error {
			if breaker.BreakerState() == gobreaker.StateOpen {
				return errCircuitOpen
			}
			return nil
		}))
	}

	if cfg.CompletionProbe != nil {
		hm.checker.AddReadinessCheck(cfg.CompletionProbe)
	}
	return hm
}

// MarkShuttingDown makes readiness fail from now on.
func (hm *HealthMonitor) MarkShuttingDown() {
	hm.shuttingDown.Store(true)
}

// Checker returns the underlying checker.
func (hm *HealthMonitor) Checker() *health.Checker {
	return hm.checker
}

// HealthHandler is the plain uptime probe: 200 with body "OK".
func (hm *HealthMonitor) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// RegisterRoutes mounts /health, /health/live and /health/ready.
func (hm *HealthMonitor) RegisterRoutes(r chi.Router) {
	r.Get("/health", hm.HealthHandler())
	r.Get("/health/live", hm.checker.LivenessHandler())
	r.Get("/health/ready", hm.checker.ReadinessHandler())
}
