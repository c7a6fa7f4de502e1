package alexa

// RequestKind is the closed set of request classes the skill handles.
type RequestKind int

const (
	KindUnknown RequestKind = iota
	KindLaunch
	KindSymptom
	KindMultipleSymptoms
	KindHelp
	KindCancelOrStop
	KindFallback
	KindSessionEnded
)

var kindNames = [...]string{
	KindUnknown:          "unknown",
	KindLaunch:           "launch",
	KindSymptom:          "symptom",
	KindMultipleSymptoms: "multiple_symptoms",
	KindHelp:             "help",
	KindCancelOrStop:     "cancel_or_stop",
	KindFallback:         "fallback",
	KindSessionEnded:     "session_ended",
}

func (k RequestKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Classify maps an envelope to its RequestKind. Unrecognised request types and
// intent names yield KindUnknown.
func Classify(env *RequestEnvelope) RequestKind {
	switch env.Request.Type {
	case TypeLaunchRequest:
		return KindLaunch
	case TypeSessionEndedRequest:
		return KindSessionEnded
	case TypeIntentRequest:
		switch env.IntentName() {
		case IntentSymptom:
			return KindSymptom
		case IntentMultipleSymptoms:
			return KindMultipleSymptoms
		case IntentHelp:
			return KindHelp
		case IntentCancel, IntentStop:
			return KindCancelOrStop
		case IntentFallback:
			return KindFallback
		}
	}
	return KindUnknown
}
