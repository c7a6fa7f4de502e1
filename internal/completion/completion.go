// Package completion asks a chat-completion API for symptom advice. GetAdvice
// never fails: every error path degrades to FallbackAdvice.
package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lewisedginton/health_companion/pkg/logger"
	"github.com/sony/gobreaker"
)

const (
	// SystemInstruction frames every advice request.
	SystemInstruction = "You are a helpful health assistant. Provide basic health advice and recommendations for common symptoms. Always include disclaimer that this is not medical advice and serious symptoms should be evaluated by a doctor."

	// FallbackAdvice is returned whenever no advice could be obtained.
	FallbackAdvice = "I'm sorry, I'm having trouble processing your symptoms right now. Please try again later or consult with a healthcare professional."
)

// ErrEmptyCompletion is returned when the API answers with no usable text.
var ErrEmptyCompletion = errors.New("completion returned no text")

// Prompt is a single-turn completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Generator is a completion backend.
type Generator interface {
	// Name is the provider label used in logs and metrics.
	Name() string
	Complete(ctx context.Context, p Prompt) (string, error)
}

// UserMessage renders the user turn for a symptom description.
func UserMessage(symptoms string) string {
	return fmt.Sprintf("I have the following symptoms: %s. What could this be and what should I do?", symptoms)
}

// Settings tunes a Client.
type Settings struct {
	MaxTokens   int
	Temperature float64
	// Timeout bounds each call; zero disables it.
	Timeout time.Duration

	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerInterval     time.Duration
	BreakerOpenTimeout  time.Duration
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		MaxTokens:           200,
		Temperature:         0.7,
		Timeout:             7 * time.Second,
		BreakerMinRequests:  5,
		BreakerFailureRatio: 0.6,
		BreakerInterval:     60 * time.Second,
		BreakerOpenTimeout:  30 * time.Second,
	}
}

// Client wraps a Generator with a timeout, a circuit breaker and metrics.
// It is safe for concurrent use.
type Client struct {
	gen      Generator
	settings Settings
	breaker  *gobreaker.CircuitBreaker
	metrics  *Metrics
	log      logger.Logger
}

// New creates a Client. metrics may be nil.
func New(gen Generator, s Settings, log logger.Logger, metrics *Metrics) *Client {
	c := &Client{
		gen:      gen,
		settings: s,
		metrics:  metrics,
		log:      log.WithFields(logger.StringField("provider", gen.Name())),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        gen.Name(),
		MaxRequests: 1,
		Interval:    s.BreakerInterval,
		Timeout:     s.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.BreakerFailureRatio
		},
		// A caller hanging up says nothing about the upstream API.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("Completion circuit breaker state changed",
				logger.StringField("from", from.String()),
				logger.StringField("to", to.String()))
			c.metrics.setBreakerState(name, to)
		},
	})
	c.metrics.setBreakerState(gen.Name(), gobreaker.StateClosed)
	return c
}

// Provider returns the generator's name.
func (c *Client) Provider() string {
	return c.gen.Name()
}

// BreakerState reports the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// GetAdvice returns advice for the given symptom description, or
// FallbackAdvice when the API cannot provide any. The result is never empty.
func (c *Client) GetAdvice(ctx context.Context, symptoms string) string {
	log := logger.GetLoggerFromContext(ctx, c.log)

	if c.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.settings.Timeout)
		defer cancel()
	}

	prompt := Prompt{
		System:      SystemInstruction,
		User:        UserMessage(symptoms),
		MaxTokens:   c.settings.MaxTokens,
		Temperature: c.settings.Temperature,
	}

	start := time.Now()
	res, err := c.breaker.Execute(func() (interface{}, error) {
		text, err := c.gen.Complete(ctx, prompt)
		if err != nil {
			return nil, err
		}
		if text = strings.TrimSpace(text); text == "" {
			return nil, ErrEmptyCompletion
		}
		return text, nil
	})
	elapsed := time.Since(start)

	outcome := classify(err)
	c.metrics.observe(c.gen.Name(), outcome, elapsed)

	if err != nil {
		log.Error("Error getting health recommendation",
			logger.ErrorField(err),
			logger.StringField("outcome", outcome),
			logger.DurationField("duration", elapsed))
		return FallbackAdvice
	}

	log.Debug("Completion succeeded", logger.DurationField("duration", elapsed))
	return res.(string)
}

// Metric outcome labels.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomeEmpty       = "empty"
	OutcomeCircuitOpen = "circuit_open"
)

func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return OutcomeCircuitOpen
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, ErrEmptyCompletion):
		return OutcomeEmpty
	default:
		return OutcomeError
	}
}
