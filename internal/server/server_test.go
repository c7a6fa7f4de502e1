package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lewisedginton/health_companion/internal/alexa"
	"github.com/lewisedginton/health_companion/internal/completion"
	appconfig "github.com/lewisedginton/health_companion/internal/config"
	"github.com/lewisedginton/health_companion/internal/skill"
	pkgconfig "github.com/lewisedginton/health_companion/pkg/config"
	"github.com/lewisedginton/health_companion/pkg/config/configtest"
	"github.com/lewisedginton/health_companion/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []completion.Prompt
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Complete(_ context.Context, p completion.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, p)
	return g.reply, g.err
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func loadConfig(t *testing.T, env map[string]string) *appconfig.AppConfig {
	t.Helper()
	configtest.ClearEnv(t)
	for k, v := range env {
		t.Setenv(k, v)
	}
	var cfg appconfig.AppConfig
	require.NoError(t, pkgconfig.GetConfigFromEnvVars(&cfg))
	return &cfg
}

func newTestServer(t *testing.T, gen completion.Generator, env map[string]string) http.Handler {
	t.Helper()
	return New(loadConfig(t, env), gen, nil, logger.NewNopLogger()).Handler()
}

func postAlexa(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/alexa", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) alexa.ResponseEnvelope {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, jsonContentType, rec.Header().Get("Content-Type"))
	var out alexa.ResponseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const launchEnvelope = `{
  "version": "1.0",
  "session": {"new": true, "sessionId": "s-1", "application": {"applicationId": "amzn1.ask.skill.test"}, "user": {"userId": "u-1"}},
  "request": {"type": "LaunchRequest", "requestId": "r-1", "timestamp": "2024-05-01T10:00:00Z", "locale": "en-US"}
}`

const symptomEnvelope = `{
  "version": "1.0",
  "session": {"new": false, "sessionId": "s-1", "application": {"applicationId": "amzn1.ask.skill.test"}, "user": {"userId": "u-1"}},
  "request": {"type": "IntentRequest", "requestId": "r-2", "timestamp": "2024-05-01T10:00:00Z",
    "intent": {"name": "SymptomIntent", "slots": {"symptom": {"name": "symptom", "value": "headache"}}}}
}`

const symptomEnvelopeNoValue = `{
  "version": "1.0",
  "request": {"type": "IntentRequest", "requestId": "r-3", "timestamp": "2024-05-01T10:00:00Z",
    "intent": {"name": "SymptomIntent", "slots": {"symptom": {"name": "symptom"}}}}
}`

const unknownIntentEnvelope = `{
  "version": "1.0",
  "request": {"type": "IntentRequest", "requestId": "r-4", "timestamp": "2024-05-01T10:00:00Z",
    "intent": {"name": "BookFlightIntent"}}
}`

func TestLaunchScenario(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, nil)

	out := decodeResponse(t, postAlexa(t, h, launchEnvelope))
	assert.Equal(t, "1.0", out.Version)
	require.NotNil(t, out.Response.OutputSpeech)
	assert.Equal(t, skill.WelcomeSpeech, out.Response.OutputSpeech.Text)
	assert.Equal(t, "PlainText", out.Response.OutputSpeech.Type)
	require.NotNil(t, out.Response.Reprompt)
	assert.Equal(t, skill.WelcomeSpeech, out.Response.Reprompt.OutputSpeech.Text)
	assert.False(t, out.Response.ShouldEndSession)
}

func TestSymptomScenario(t *testing.T) {
	gen := &stubGenerator{reply: "Drink water and rest."}
	h := newTestServer(t, gen, nil)

	out := decodeResponse(t, postAlexa(t, h, symptomEnvelope))
	assert.Equal(t, "For your symptom of headache, here's what I found: Drink water and rest.", out.Response.OutputSpeech.Text)
	assert.Equal(t, skill.SingleSymptomReprompt, out.Response.Reprompt.OutputSpeech.Text)
	assert.Equal(t, 1, gen.callCount())
}

func TestMissingSlotScenario(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	h := newTestServer(t, gen, nil)

	out := decodeResponse(t, postAlexa(t, h, symptomEnvelopeNoValue))
	assert.Equal(t, skill.MissingSymptomSpeech, out.Response.OutputSpeech.Text)
	assert.Equal(t, 0, gen.callCount())
}

func TestUnknownIntentScenario(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, nil)

	out := decodeResponse(t, postAlexa(t, h, unknownIntentEnvelope))
	assert.Equal(t, skill.FallbackSpeech, out.Response.OutputSpeech.Text)
	assert.Equal(t, skill.FallbackSpeech, out.Response.Reprompt.OutputSpeech.Text)
}

func TestHealthScenario(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCompletionFailureSpeaksApology(t *testing.T) {
	h := newTestServer(t, &stubGenerator{err: errors.New("invalid api key")}, nil)

	out := decodeResponse(t, postAlexa(t, h, symptomEnvelope))
	assert.Equal(t, "For your symptom of headache, here's what I found: "+completion.FallbackAdvice, out.Response.OutputSpeech.Text)
}

func TestCancelEndsSession(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, nil)
	body := `{"version":"1.0","request":{"type":"IntentRequest","requestId":"r","timestamp":"2024-05-01T10:00:00Z","intent":{"name":"AMAZON.StopIntent"}}}`

	rec := postAlexa(t, h, body)
	out := decodeResponse(t, rec)
	assert.True(t, out.Response.ShouldEndSession)
	assert.Nil(t, out.Response.Reprompt)
	assert.NotContains(t, rec.Body.String(), "reprompt")
}

func TestTransportErrors(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		h := newTestServer(t, &stubGenerator{}, nil)
		assert.Equal(t, http.StatusBadRequest, postAlexa(t, h, `{"version":`).Code)
	})

	t.Run("missing request type", func(t *testing.T) {
		h := newTestServer(t, &stubGenerator{}, nil)
		assert.Equal(t, http.StatusBadRequest, postAlexa(t, h, `{"version":"1.0","request":{}}`).Code)
	})

	t.Run("body too large", func(t *testing.T) {
		h := newTestServer(t, &stubGenerator{}, map[string]string{"MAX_REQUEST_SIZE": "64"})
		assert.Equal(t, http.StatusRequestEntityTooLarge, postAlexa(t, h, launchEnvelope).Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		h := newTestServer(t, &stubGenerator{}, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alexa", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestVerificationRejects(t *testing.T) {
	t.Run("foreign application id", func(t *testing.T) {
		h := newTestServer(t, &stubGenerator{}, map[string]string{"ALEXA_SKILL_IDS": "amzn1.ask.skill.other"})
		assert.Equal(t, http.StatusBadRequest, postAlexa(t, h, launchEnvelope).Code)
	})

	t.Run("allowed application id", func(t *testing.T) {
		h := newTestServer(t, &stubGenerator{}, map[string]string{"ALEXA_SKILL_IDS": "amzn1.ask.skill.test"})
		assert.Equal(t, http.StatusOK, postAlexa(t, h, launchEnvelope).Code)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		h := newTestServer(t, &stubGenerator{}, map[string]string{"ALEXA_VERIFY_TIMESTAMP": "true"})
		assert.Equal(t, http.StatusBadRequest, postAlexa(t, h, launchEnvelope).Code)
	})

	t.Run("missing signature", func(t *testing.T) {
		h := newTestServer(t, &stubGenerator{}, map[string]string{"ALEXA_VERIFY_SIGNATURE": "true"})
		assert.Equal(t, http.StatusBadRequest, postAlexa(t, h, launchEnvelope).Code)
	})
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, map[string]string{
		"RATE_LIMIT_ENABLED": "true",
		"RATE_LIMIT_RPS":     "0.001",
		"RATE_LIMIT_BURST":   "1",
	})

	assert.Equal(t, http.StatusOK, postAlexa(t, h, launchEnvelope).Code)
	rec := postAlexa(t, h, launchEnvelope)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func postAlexaForwardedFor(t *testing.T, h http.Handler, body, forwardedFor string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/alexa", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitIgnoresForwardedForByDefault(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, map[string]string{
		"RATE_LIMIT_ENABLED": "true",
		"RATE_LIMIT_RPS":     "0.001",
		"RATE_LIMIT_BURST":   "1",
	})

	var codes []int
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"} {
		codes = append(codes, postAlexaForwardedFor(t, h, launchEnvelope, ip))
	}
	assert.Equal(t, []int{200, 429, 429, 429, 429}, codes)
}

func TestRateLimitTrustsForwardedForBehindProxy(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, map[string]string{
		"RATE_LIMIT_ENABLED":  "true",
		"RATE_LIMIT_RPS":      "0.001",
		"RATE_LIMIT_BURST":    "1",
		"TRUST_PROXY_HEADERS": "true",
	})

	assert.Equal(t, http.StatusOK, postAlexaForwardedFor(t, h, launchEnvelope, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, postAlexaForwardedFor(t, h, launchEnvelope, "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, postAlexaForwardedFor(t, h, launchEnvelope, "10.0.0.1"))
}

func TestCorrelationIDHeader(t *testing.T) {
	h := newTestServer(t, &stubGenerator{}, nil)
	rec := postAlexa(t, h, launchEnvelope)
	assert.NotEmpty(t, rec.Header().Get(logger.CorrelationIDHeader))
}
