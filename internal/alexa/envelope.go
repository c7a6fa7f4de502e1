// Package alexa holds the custom-skill wire types, request classification,
// response rendering and request verification.
package alexa

import (
	"time"

	"github.com/lewisedginton/health_companion/pkg/utils"
)

// Request types.
const (
	TypeLaunchRequest       = "LaunchRequest"
	TypeIntentRequest       = "IntentRequest"
	TypeSessionEndedRequest = "SessionEndedRequest"
)

// Intent names.
const (
	IntentSymptom          = "SymptomIntent"
	IntentMultipleSymptoms = "MultipleSymptomIntent"
	IntentHelp             = "AMAZON.HelpIntent"
	IntentCancel           = "AMAZON.CancelIntent"
	IntentStop             = "AMAZON.StopIntent"
	IntentFallback         = "AMAZON.FallbackIntent"
)

// Slot names.
const (
	SlotSymptom  = "symptom"
	SlotSymptoms = "symptoms"
)

// RequestEnvelope is the body the platform POSTs for every user interaction.
type RequestEnvelope struct {
	Version string   `json:"version"`
	Session *Session `json:"session,omitempty"`
	Context *Context `json:"context,omitempty"`
	Request Request  `json:"request"`
}

type Session struct {
	New         bool                   `json:"new"`
	SessionID   string                 `json:"sessionId"`
	Application Application            `json:"application"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	User        User                   `json:"user"`
}

type Application struct {
	ApplicationID string `json:"applicationId"`
}

type User struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken,omitempty"`
}

type Context struct {
	System System `json:"System"`
}

type System struct {
	Application Application `json:"application"`
	User        User        `json:"user"`
	Device      *Device     `json:"device,omitempty"`
	APIEndpoint string      `json:"apiEndpoint,omitempty"`
}

type Device struct {
	DeviceID string `json:"deviceId"`
}

// Request is the typed part of the envelope. Intent is set for IntentRequest,
// Reason and Error for SessionEndedRequest.
type Request struct {
	Type        string        `json:"type"`
	RequestID   string        `json:"requestId"`
	Timestamp   string        `json:"timestamp"`
	Locale      string        `json:"locale,omitempty"`
	DialogState string        `json:"dialogState,omitempty"`
	Intent      *Intent       `json:"intent,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Error       *RequestError `json:"error,omitempty"`
}

type Intent struct {
	Name               string          `json:"name"`
	ConfirmationStatus string          `json:"confirmationStatus,omitempty"`
	Slots              map[string]Slot `json:"slots,omitempty"`
}

// Slot is a named intent parameter. A nil Value means the user did not fill it.
type Slot struct {
	Name  string  `json:"name"`
	Value *string `json:"value,omitempty"`
}

type RequestError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// IntentName returns the intent name, or "" for non-intent requests.
func (e *RequestEnvelope) IntentName() string {
	if e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Name
}

// SlotValue returns the value of the named slot unchanged. ok is false when
// the slot is missing, unfilled or empty.
func (e *RequestEnvelope) SlotValue(name string) (value string, ok bool) {
	if e.Request.Intent == nil {
		return "", false
	}
	value = utils.Deref(e.Request.Intent.Slots[name].Value, "")
	return value, value != ""
}

// ApplicationID prefers context.System over the session copy.
func (e *RequestEnvelope) ApplicationID() string {
	if e.Context != nil && e.Context.System.Application.ApplicationID != "" {
		return e.Context.System.Application.ApplicationID
	}
	if e.Session != nil {
		return e.Session.Application.ApplicationID
	}
	return ""
}

// SessionID returns the session id, or "" when the envelope has no session.
func (e *RequestEnvelope) SessionID() string {
	if e.Session == nil {
		return ""
	}
	return e.Session.SessionID
}

// Time parses the request timestamp.
func (e *RequestEnvelope) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, e.Request.Timestamp)
}
