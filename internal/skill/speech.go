package skill

// Spoken texts.
const (
	WelcomeSpeech = "Welcome to Health Companion. You can tell me your symptoms, and I will provide some basic information. What symptoms are you experiencing today?"

	MissingSymptomSpeech   = "I didn't catch that. What symptoms are you experiencing?"
	MissingSymptomReprompt = "Please tell me what symptoms you're having."

	SingleSymptomFormat   = "For your symptom of %s, here's what I found: %s"
	SingleSymptomReprompt = "Do you have any other symptoms you'd like me to check?"

	MultipleSymptomFormat   = "Based on your symptoms: %s, here's what I found: %s"
	MultipleSymptomReprompt = "Is there anything else you'd like to know?"

	HelpSpeech = `You can tell me your symptoms by saying phrases like "I have a headache" or "I'm experiencing fever and chills". I'll provide some basic health information. How can I help you today?`

	GoodbyeSpeech = "Thank you for using Health Companion. Remember, for serious health concerns, please consult with a healthcare professional. Goodbye!"

	FallbackSpeech = "I'm sorry, I didn't understand that. You can tell me your symptoms by saying something like 'I have a headache' or 'I'm experiencing fever'. How can I help you?"

	ErrorSpeech = "Sorry, I had trouble processing your request. Please try again."
)
