package providers

const (
	groqBaseURL = "https://api.groq.com/openai/v1"
	groqModel   = "whisper-large-v3"
)

// NewGroqTranscriptionProvider creates a provider for Groq's Whisper API,
// which speaks the OpenAI transcription protocol.
func NewGroqTranscriptionProvider(apiKey string) *OpenAITranscriptionProvider {
	p := NewOpenAITranscriptionProvider(groqBaseURL, apiKey, groqModel)
	p.name = "groq"
	return p
}
