package skill

import (
	"context"
	"errors"
	"fmt"

	"github.com/lewisedginton/health_companion/internal/alexa"
	"github.com/lewisedginton/health_companion/pkg/logger"
)

// ErrHandlerPanic wraps a recovered handler panic.
var ErrHandlerPanic = errors.New("handler panicked")

// Dispatcher routes each envelope to the first handler that accepts its kind.
type Dispatcher struct {
	handlers []Handler
	fallback Handler
	onError  ErrorHandler
	metrics  *Metrics
	log      logger.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHandlers replaces the default handler chain. Order matters: the first
// match wins.
func WithHandlers(hs ...Handler) Option {
	return func(d *Dispatcher) { d.handlers = hs }
}

// WithErrorHandler replaces the default apology handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(d *Dispatcher) { d.onError = h }
}

// WithMetrics records per-kind outcomes.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher builds the skill's handler chain around advisor.
func NewDispatcher(advisor Advisor, log logger.Logger, opts ...Option) *Dispatcher {
	fallback := FallbackHandler()
	d := &Dispatcher{
		handlers: []Handler{
			LaunchHandler(),
			NewSingleSymptomHandler(advisor),
			NewMultipleSymptomHandler(advisor),
			HelpHandler(),
			CancelOrStopHandler(),
			fallback,
			NewSessionEndedHandler(log),
		},
		fallback: fallback,
		onError:  NewApologyHandler(log),
		log:      log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch produces exactly one response for env. Handler errors and panics
// are turned into the error handler's response.
func (d *Dispatcher) Dispatch(ctx context.Context, env *alexa.RequestEnvelope) alexa.Response {
	kind := alexa.Classify(env)
	log := logger.GetLoggerFromContext(ctx, d.log)

	h := d.route(kind)
	if kind == alexa.KindUnknown {
		log.Info("Unrecognised request routed to fallback",
			logger.StringField("request_type", env.Request.Type),
			logger.StringField("intent", env.IntentName()))
	}

	resp, err := invoke(ctx, h, env)
	if err != nil {
		d.metrics.observe(kind, OutcomeError)
		return d.onError.HandleError(ctx, env, err)
	}

	d.metrics.observe(kind, OutcomeOK)
	log.Debug("Request handled",
		logger.StringField("kind", kind.String()),
		logger.BoolField("end_session", resp.EndSession))
	return resp
}

func (d *Dispatcher) route(kind alexa.RequestKind) Handler {
	for _, h := range d.handlers {
		if h.CanHandle(kind) {
			return h
		}
	}
	return d.fallback
}

func invoke(ctx context.Context, h Handler, env *alexa.RequestEnvelope) (resp alexa.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h.Handle(ctx, env)
}
