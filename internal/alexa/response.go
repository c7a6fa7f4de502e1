package alexa

const (
	responseVersion = "1.0"
	speechPlainText = "PlainText"
)

// Response is what a handler produces. An empty Reprompt means none.
type Response struct {
	Speech     string
	Reprompt   string
	EndSession bool
}

// Ask speaks and keeps the session open with a reprompt.
func Ask(speech, reprompt string) Response {
	return Response{Speech: speech, Reprompt: reprompt}
}

// Tell speaks and ends the session.
func Tell(speech string) Response {
	return Response{Speech: speech, EndSession: true}
}

// ResponseEnvelope is the platform response body.
type ResponseEnvelope struct {
	Version           string                 `json:"version"`
	SessionAttributes map[string]interface{} `json:"sessionAttributes,omitempty"`
	Response          ResponseBody           `json:"response"`
}

type ResponseBody struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

// Render converts r into the wire envelope. Session attributes of req, if
// any, are echoed back.
func Render(req *RequestEnvelope, r Response) ResponseEnvelope {
	out := ResponseEnvelope{
		Version:  responseVersion,
		Response: ResponseBody{ShouldEndSession: r.EndSession},
	}
	if req != nil && req.Session != nil && len(req.Session.Attributes) > 0 {
		out.SessionAttributes = req.Session.Attributes
	}
	if r.Speech != "" {
		out.Response.OutputSpeech = &OutputSpeech{Type: speechPlainText, Text: r.Speech}
	}
	if r.Reprompt != "" && !r.EndSession {
		out.Response.Reprompt = &Reprompt{OutputSpeech: OutputSpeech{Type: speechPlainText, Text: r.Reprompt}}
	}
	return out
}
