package alexa

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const intentRequest = `{
  "version": "1.0",
  "session": {
    "new": false,
    "sessionId": "amzn1.echo-api.session.1",
    "application": {"applicationId": "amzn1.ask.skill.session"},
    "attributes": {"turn": 2},
    "user": {"userId": "amzn1.ask.account.1"}
  },
  "context": {"System": {"application": {"applicationId": "amzn1.ask.skill.ctx"}, "user": {"userId": "amzn1.ask.account.1"}}},
  "request": {
    "type": "IntentRequest",
    "requestId": "amzn1.echo-api.request.1",
    "timestamp": "2024-05-01T10:00:00Z",
    "locale": "en-US",
    "intent": {"name": "SymptomIntent", "slots": {"symptom": {"name": "symptom", "value": " headache "}, "other": {"name": "other"}}}
  }
}`

func decode(t *testing.T, raw string) *RequestEnvelope {
	t.Helper()
	var env RequestEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	return &env
}

func TestDecodeEnvelope(t *testing.T) {
	env := decode(t, intentRequest)

	assert.Equal(t, TypeIntentRequest, env.Request.Type)
	assert.Equal(t, IntentSymptom, env.IntentName())
	assert.Equal(t, "amzn1.ask.skill.ctx", env.ApplicationID())
	assert.Equal(t, "amzn1.echo-api.session.1", env.SessionID())

	ts, err := env.Time()
	require.NoError(t, err)
	assert.Equal(t, 2024, ts.Year())
}

func TestSlotValue(t *testing.T) {
	env := decode(t, intentRequest)

	v, ok := env.SlotValue(SlotSymptom)
	assert.True(t, ok)
	assert.Equal(t, "headache", v)

	_, ok = env.SlotValue("other")
	assert.False(t, ok, "unfilled slot")

	_, ok = env.SlotValue("missing")
	assert.False(t, ok, "absent slot")

	empty := ""
	env.Request.Intent.Slots[SlotSymptom] = Slot{Name: SlotSymptom, Value: &empty}
	_, ok = env.SlotValue(SlotSymptom)
	assert.False(t, ok, "empty slot")

	padded := "  sore throat "
	env.Request.Intent.Slots[SlotSymptom] = Slot{Name: SlotSymptom, Value: &padded}
	v, ok = env.SlotValue(SlotSymptom)
	assert.True(t, ok, "whitespace is a value")
	assert.Equal(t, padded, v)

	_, ok = (&RequestEnvelope{Request: Request{Type: TypeLaunchRequest}}).SlotValue(SlotSymptom)
	assert.False(t, ok, "no intent")
}

func TestApplicationIDFallsBackToSession(t *testing.T) {
	env := decode(t, intentRequest)
	env.Context = nil
	assert.Equal(t, "amzn1.ask.skill.session", env.ApplicationID())
	assert.Empty(t, (&RequestEnvelope{}).ApplicationID())
}

func TestClassify(t *testing.T) {
	intent := func(name string) *RequestEnvelope {
		return &RequestEnvelope{Request: Request{Type: TypeIntentRequest, Intent: &Intent{Name: name}}}
	}
	tests := []struct {
		name string
		env  *RequestEnvelope
		want RequestKind
	}{
		{"launch", &RequestEnvelope{Request: Request{Type: TypeLaunchRequest}}, KindLaunch},
		{"session ended", &RequestEnvelope{Request: Request{Type: TypeSessionEndedRequest}}, KindSessionEnded},
		{"symptom", intent(IntentSymptom), KindSymptom},
		{"multiple", intent(IntentMultipleSymptoms), KindMultipleSymptoms},
		{"help", intent(IntentHelp), KindHelp},
		{"cancel", intent(IntentCancel), KindCancelOrStop},
		{"stop", intent(IntentStop), KindCancelOrStop},
		{"fallback", intent(IntentFallback), KindFallback},
		{"unknown intent", intent("WeatherIntent"), KindUnknown},
		{"intent request without intent", &RequestEnvelope{Request: Request{Type: TypeIntentRequest}}, KindUnknown},
		{"unknown type", &RequestEnvelope{Request: Request{Type: "Display.ElementSelected"}}, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.env))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "cancel_or_stop", KindCancelOrStop.String())
	assert.Equal(t, "unknown", RequestKind(99).String())
}

func TestRender(t *testing.T) {
	env := decode(t, intentRequest)

	t.Run("ask", func(t *testing.T) {
		out, err := json.Marshal(Render(env, Ask("Hello", "Still there?")))
		require.NoError(t, err)
		assert.JSONEq(t, `{
		  "version": "1.0",
		  "sessionAttributes": {"turn": 2},
		  "response": {
		    "outputSpeech": {"type": "PlainText", "text": "Hello"},
		    "reprompt": {"outputSpeech": {"type": "PlainText", "text": "Still there?"}},
		    "shouldEndSession": false
		  }
		}`, string(out))
	})

	t.Run("tell", func(t *testing.T) {
		out, err := json.Marshal(Render(nil, Tell("Goodbye")))
		require.NoError(t, err)
		assert.JSONEq(t, `{"version":"1.0","response":{"outputSpeech":{"type":"PlainText","text":"Goodbye"},"shouldEndSession":true}}`, string(out))
	})

	t.Run("empty", func(t *testing.T) {
		out, err := json.Marshal(Render(nil, Response{EndSession: true}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"version":"1.0","response":{"shouldEndSession":true}}`, string(out))
	})
}
