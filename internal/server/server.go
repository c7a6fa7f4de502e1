// Package server hosts the skill endpoint and manages the process lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lewisedginton/health_companion/internal/alexa"
	"github.com/lewisedginton/health_companion/internal/completion"
	appconfig "github.com/lewisedginton/health_companion/internal/config"
	"github.com/lewisedginton/health_companion/internal/monitoring"
	"github.com/lewisedginton/health_companion/internal/skill"
	"github.com/lewisedginton/health_companion/pkg/health"
	"github.com/lewisedginton/health_companion/pkg/httpmiddleware"
	"github.com/lewisedginton/health_companion/pkg/logger"
	"github.com/lewisedginton/health_companion/pkg/metrics"
	"github.com/lewisedginton/health_companion/pkg/ratelimiter"
	"github.com/lewisedginton/health_companion/pkg/utils"
	"github.com/unrolled/secure"
)

// ShutdownTimeout bounds the drain of in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Server encapsulates the HTTP surface and its dependencies
type Server struct {
	cfg        *appconfig.AppConfig
	log        logger.Logger
	metrics    *metrics.Metrics
	advisor    *completion.Client
	dispatcher *skill.Dispatcher
	verifier   *alexa.Verifier
	monitor    *monitoring.HealthMonitor
	router     chi.Router
	httpServer *http.Server
}

// CompletionSettings maps the completion configuration onto client settings.
func CompletionSettings(cfg *appconfig.AppConfig) completion.Settings {
	return completion.Settings{
		MaxTokens:           cfg.Completion.MaxTokens,
		Temperature:         cfg.Completion.Temperature,
		Timeout:             cfg.Completion.Timeout,
		BreakerMinRequests:  uint32(cfg.Completion.BreakerMinRequests),
		BreakerFailureRatio: cfg.Completion.BreakerFailureRatio,
		BreakerInterval:     cfg.Completion.BreakerInterval,
		BreakerOpenTimeout:  cfg.Completion.BreakerOpenTimeout,
	}
}

// New wires the skill around gen. probe, when non-nil, is added to readiness
// if completion API checks are enabled.
func New(cfg *appconfig.AppConfig, gen completion.Generator, probe health.Check, log logger.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewMetrics(cfg.Metrics.EnableHTTPMetrics, log),
	}

	completionMetrics := completion.NewMetrics()
	skillMetrics := skill.NewMetrics()
	s.metrics.AddCustomMetric(completionMetrics.Collectors()...)
	s.metrics.AddCustomMetric(skillMetrics.Collectors()...)

	s.advisor = completion.New(gen, CompletionSettings(cfg), log, completionMetrics)

	s.dispatcher = skill.NewDispatcher(s.advisor, log, skill.WithMetrics(skillMetrics))

	s.verifier = alexa.NewVerifier(
		alexa.WithSignatureCheck(cfg.Skill.VerifySignature),
		alexa.WithTimestampCheck(cfg.Skill.VerifyTimestamp, cfg.Skill.TimestampTolerance),
		alexa.WithApplicationIDs(cfg.Skill.ApplicationIDs...),
	)

	monitorCfg := monitoring.Config{
		Logger:           log,
		Completion:       s.advisor,
		Timeout:          cfg.Health.Timeout,
		FailureThreshold: cfg.Health.FailureThreshold,
	}
	if cfg.Health.CheckCompletionAPI {
		monitorCfg.CompletionProbe = probe
	}
	s.monitor = monitoring.NewHealthMonitor(monitorCfg)

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	mw := httpmiddleware.DefaultConfig()
	mw.Logger = s.log
	mw.EnableLogging = true
	mw.Timeout = s.cfg.HTTP.HandlerTimeout
	mw.StripPrefix = s.cfg.HTTP.StripPrefix
	mw.EnableStripPrefix = s.cfg.HTTP.StripPrefix != ""
	mw.EnableRealIP = s.cfg.Security.TrustProxyHeaders
	mw.CORS.AllowedOrigins = s.cfg.Security.CORSAllowedOrigins
	mw.Security = &secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		STSSeconds:         31536000,
		IsDevelopment:      !s.cfg.IsProduction(),
	}
	httpmiddleware.ApplyToRouter(r, mw)
	r.Use(s.metrics.HTTPMiddleware())

	s.monitor.RegisterRoutes(r)

	alexaRoute := r.With()
	if s.cfg.Security.RateLimitEnabled {
		limiter := ratelimiter.New(s.cfg.Security.RateLimitRPS, s.cfg.Security.RateLimitBurst, 0)
		alexaRoute = r.With(httpmiddleware.RateLimit(limiter, s.log))
	}
	alexaRoute.Post("/alexa", s.handleAlexa)

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled or a listener fails, then drains.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.HTTP.Port),
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.HTTP.ReadTimeout(),
		ReadTimeout:       s.cfg.HTTP.ReadTimeout(),
		WriteTimeout:      s.cfg.HTTP.WriteTimeout(),
		IdleTimeout:       s.cfg.HTTP.IdleTimeout(),
		MaxHeaderBytes:    s.cfg.HTTP.MaxHeaderBytes,
	}

	httpErrs := make(chan error, 1)
	go func() {
		defer close(httpErrs)
		s.log.Info("Server is running", logger.IntField("port", s.cfg.HTTP.Port))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrs <- fmt.Errorf("http listener: %w", err)
		}
	}()

	var metricsErrs <-chan error
	if s.cfg.Metrics.ExposeMetrics {
		metricsErrs = s.metrics.Listen(s.cfg.Metrics.Port)
	}

	var runErr error
	select {
	case <-ctx.Done():
		s.log.Info("Shutdown requested")
	case err := <-utils.MergeErrorChans(httpErrs, metricsErrs):
		runErr = err
		s.log.Error("Listener failed", logger.ErrorField(err))
	}

	return errors.Join(runErr, s.shutdown())
}

//nolint:contextcheck // shutdown runs after the parent context is done
func (s *Server) shutdown() error {
	s.monitor.MarkShuttingDown()

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.metrics.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
	}
	s.log.Info("Server stopped")
	return errors.Join(errs...)
}
