package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lewisedginton/health_companion/internal/completion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messageResponse = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-test",
  "content": [{"type": "text", "text": "Rest. "}, {"type": "text", "text": "See a doctor if it persists."}],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 10, "output_tokens": 8}
}`

func TestNewClaudeModel(t *testing.T) {
	_, err := NewClaudeModel("", "", "")
	assert.Error(t, err)

	m, err := NewClaudeModel("key", "", "")
	require.NoError(t, err)
	assert.Equal(t, defaultModel, m.ModelName())
	assert.Equal(t, ProviderName, m.Name())
}

func TestComplete(t *testing.T) {
	var body map[string]interface{}
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		apiKey = r.Header.Get("X-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageResponse))
	}))
	defer srv.Close()

	m, err := NewClaudeModel("test-key", "claude-test", srv.URL, option.WithMaxRetries(0))
	require.NoError(t, err)

	text, err := m.Complete(context.Background(), completion.Prompt{
		System:      "be helpful",
		User:        "I have a headache",
		MaxTokens:   200,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rest. See a doctor if it persists.", text)

	assert.Equal(t, "test-key", apiKey)
	assert.Equal(t, "claude-test", body["model"])
	assert.Equal(t, 200.0, body["max_tokens"])
	assert.Equal(t, 0.7, body["temperature"])
	system, ok := body["system"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, "be helpful", system[0].(map[string]interface{})["text"])
}

func TestCompleteErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
		}))
		defer srv.Close()

		m, err := NewClaudeModel("k", "claude-test", srv.URL, option.WithMaxRetries(0))
		require.NoError(t, err)
		_, err = m.Complete(context.Background(), completion.Prompt{User: "fever", MaxTokens: 10})
		assert.Error(t, err)
	})

	t.Run("no text blocks", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"msg_2","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`))
		}))
		defer srv.Close()

		m, err := NewClaudeModel("k", "claude-test", srv.URL, option.WithMaxRetries(0))
		require.NoError(t, err)
		_, err = m.Complete(context.Background(), completion.Prompt{User: "fever", MaxTokens: 10})
		assert.ErrorIs(t, err, completion.ErrEmptyCompletion)
	})
}
