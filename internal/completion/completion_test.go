package completion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lewisedginton/health_companion/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	calls   int
	prompts []Prompt
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Complete(ctx context.Context, p Prompt) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, p)
	reply, err, block := f.reply, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newClient(gen Generator, s Settings) (*Client, *Metrics) {
	m := NewMetrics()
	return New(gen, s, logger.NewNopLogger(), m), m
}

func TestGetAdviceSuccess(t *testing.T) {
	gen := &fakeGenerator{reply: "  Rest and drink water. This is not medical advice.\n"}
	c, m := newClient(gen, DefaultSettings())

	advice := c.GetAdvice(context.Background(), "headache")
	assert.Equal(t, "Rest and drink water. This is not medical advice.", advice)

	require.Len(t, gen.prompts, 1)
	p := gen.prompts[0]
	assert.Equal(t, SystemInstruction, p.System)
	assert.Equal(t, "I have the following symptoms: headache. What could this be and what should I do?", p.User)
	assert.Equal(t, 200, p.MaxTokens)
	assert.Equal(t, 0.7, p.Temperature)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("fake", OutcomeSuccess)))
}

func TestGetAdviceFallback(t *testing.T) {
	tests := []struct {
		name    string
		gen     *fakeGenerator
		outcome string
	}{
		{"api error", &fakeGenerator{err: errors.New("401 unauthorized")}, OutcomeError},
		{"empty reply", &fakeGenerator{reply: "   "}, OutcomeEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, m := newClient(tt.gen, DefaultSettings())
			assert.Equal(t, FallbackAdvice, c.GetAdvice(context.Background(), "fever"))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("fake", tt.outcome)))
		})
	}
}

func TestGetAdviceTimeout(t *testing.T) {
	s := DefaultSettings()
	s.Timeout = 20 * time.Millisecond
	c, m := newClient(&fakeGenerator{block: true}, s)

	start := time.Now()
	assert.Equal(t, FallbackAdvice, c.GetAdvice(context.Background(), "cough"))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("fake", OutcomeTimeout)))
}

func TestGetAdviceHonoursCallerContext(t *testing.T) {
	s := DefaultSettings()
	s.Timeout = 0
	c, _ := newClient(&fakeGenerator{block: true}, s)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Equal(t, FallbackAdvice, c.GetAdvice(ctx, "cough"))
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("503 service unavailable")}
	s := DefaultSettings()
	s.BreakerOpenTimeout = time.Hour
	c, m := newClient(gen, s)

	for i := 0; i < 5; i++ {
		assert.Equal(t, FallbackAdvice, c.GetAdvice(context.Background(), "nausea"))
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())
	assert.Equal(t, 5, gen.callCount())

	assert.Equal(t, FallbackAdvice, c.GetAdvice(context.Background(), "nausea"))
	assert.Equal(t, 5, gen.callCount(), "open circuit must not reach the generator")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("fake", OutcomeCircuitOpen)))
	assert.Equal(t, float64(gobreaker.StateOpen), testutil.ToFloat64(m.BreakerState.WithLabelValues("fake")))
}

func TestCircuitBreakerStaysClosedBelowRatio(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	c, _ := newClient(gen, DefaultSettings())

	for i := 0; i < 6; i++ {
		c.GetAdvice(context.Background(), "rash")
	}
	gen.mu.Lock()
	gen.reply, gen.err = "", errors.New("boom")
	gen.mu.Unlock()
	for i := 0; i < 3; i++ {
		c.GetAdvice(context.Background(), "rash")
	}

	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestNilMetrics(t *testing.T) {
	c := New(&fakeGenerator{reply: "fine"}, DefaultSettings(), logger.NewNopLogger(), nil)
	assert.Equal(t, "fine", c.GetAdvice(context.Background(), "sneezing"))
	assert.Equal(t, "fake", c.Provider())
}
