// Package skill turns classified platform requests into spoken responses.
package skill

import (
	"context"
	"fmt"

	"github.com/lewisedginton/health_companion/internal/alexa"
	"github.com/lewisedginton/health_companion/pkg/logger"
)

// Handler answers one class of request.
type Handler interface {
	CanHandle(kind alexa.RequestKind) bool
	Handle(ctx context.Context, env *alexa.RequestEnvelope) (alexa.Response, error)
}

// ErrorHandler produces the response after a Handler failed.
type ErrorHandler interface {
	HandleError(ctx context.Context, env *alexa.RequestEnvelope, err error) alexa.Response
}

// Advisor supplies advice text for a symptom description. It never fails.
type Advisor interface {
	GetAdvice(ctx context.Context, symptoms string) string
}

// staticHandler answers a fixed set of kinds with a fixed response.
type staticHandler struct {
	kinds    []alexa.RequestKind
	response alexa.Response
}

func (h staticHandler) CanHandle(kind alexa.RequestKind) bool {
	for _, k := range h.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (h staticHandler) Handle(context.Context, *alexa.RequestEnvelope) (alexa.Response, error) {
	return h.response, nil
}

// LaunchHandler greets the user when the skill is opened.
func LaunchHandler() Handler {
	return staticHandler{kinds: []alexa.RequestKind{alexa.KindLaunch}, response: alexa.Ask(WelcomeSpeech, WelcomeSpeech)}
}

// HelpHandler explains how to use the skill.
func HelpHandler() Handler {
	return staticHandler{kinds: []alexa.RequestKind{alexa.KindHelp}, response: alexa.Ask(HelpSpeech, HelpSpeech)}
}

// CancelOrStopHandler says goodbye and ends the session.
func CancelOrStopHandler() Handler {
	return staticHandler{kinds: []alexa.RequestKind{alexa.KindCancelOrStop}, response: alexa.Tell(GoodbyeSpeech)}
}

// FallbackHandler answers requests the skill did not understand.
func FallbackHandler() Handler {
	return staticHandler{kinds: []alexa.RequestKind{alexa.KindFallback}, response: alexa.Ask(FallbackSpeech, FallbackSpeech)}
}

// SymptomHandler reads a symptom slot and speaks advice for it.
type SymptomHandler struct {
	kind     alexa.RequestKind
	slot     string
	format   string
	reprompt string
	advisor  Advisor
}

// NewSingleSymptomHandler handles SymptomIntent.
func NewSingleSymptomHandler(advisor Advisor) *SymptomHandler {
	return &SymptomHandler{
		kind:     alexa.KindSymptom,
		slot:     alexa.SlotSymptom,
		format:   SingleSymptomFormat,
		reprompt: SingleSymptomReprompt,
		advisor:  advisor,
	}
}

// NewMultipleSymptomHandler handles MultipleSymptomIntent.
func NewMultipleSymptomHandler(advisor Advisor) *SymptomHandler {
	return &SymptomHandler{
		kind:     alexa.KindMultipleSymptoms,
		slot:     alexa.SlotSymptoms,
		format:   MultipleSymptomFormat,
		reprompt: MultipleSymptomReprompt,
		advisor:  advisor,
	}
}

func (h *SymptomHandler) CanHandle(kind alexa.RequestKind) bool {
	return kind == h.kind
}

// Handle asks for clarification without calling the advisor when the slot is empty.
func (h *SymptomHandler) Handle(ctx context.Context, env *alexa.RequestEnvelope) (alexa.Response, error) {
	symptoms, ok := env.SlotValue(h.slot)
	if !ok {
		return alexa.Ask(MissingSymptomSpeech, MissingSymptomReprompt), nil
	}
	advice := h.advisor.GetAdvice(ctx, symptoms)
	return alexa.Ask(fmt.Sprintf(h.format, symptoms, advice), h.reprompt), nil
}

// SessionEndedHandler records why the session closed. The platform ignores
// any speech in the reply.
type SessionEndedHandler struct {
	log logger.Logger
}

func NewSessionEndedHandler(log logger.Logger) *SessionEndedHandler {
	return &SessionEndedHandler{log: log}
}

func (h *SessionEndedHandler) CanHandle(kind alexa.RequestKind) bool {
	return kind == alexa.KindSessionEnded
}

func (h *SessionEndedHandler) Handle(ctx context.Context, env *alexa.RequestEnvelope) (alexa.Response, error) {
	fields := []logger.LogField{
		logger.StringField("request_type", env.Request.Type),
		logger.StringField("request_id", env.Request.RequestID),
		logger.StringField("session_id", env.SessionID()),
		logger.StringField("reason", env.Request.Reason),
	}
	if env.Request.Error != nil {
		fields = append(fields,
			logger.StringField("error_type", env.Request.Error.Type),
			logger.StringField("error_message", env.Request.Error.Message))
	}
	logger.GetLoggerFromContext(ctx, h.log).Info("Session ended", fields...)
	return alexa.Response{EndSession: true}, nil
}

// ApologyHandler is the ErrorHandler used by the Dispatcher.
type ApologyHandler struct {
	log logger.Logger
}

func NewApologyHandler(log logger.Logger) *ApologyHandler {
	return &ApologyHandler{log: log}
}

func (h *ApologyHandler) HandleError(ctx context.Context, env *alexa.RequestEnvelope, err error) alexa.Response {
	logger.GetLoggerFromContext(ctx, h.log).Error("Error handled",
		logger.ErrorField(err),
		logger.StringField("request_type", env.Request.Type),
		logger.StringField("intent", env.IntentName()),
		logger.StringField("request_id", env.Request.RequestID))
	return alexa.Ask(ErrorSpeech, ErrorSpeech)
}
