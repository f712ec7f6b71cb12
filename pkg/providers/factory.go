package providers

import (
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"vidscribe/pkg/config"
)

// FromConfig builds the provider selected by cfg.Provider, binding the
// credentials it needs.
func FromConfig(cfg *config.AppConfig) (TranscriptionProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "azure", "":
		p := NewAzureSpeechProvider(cfg.AzureSpeechRegion, cfg.AzureSpeechKey, cfg.Language)
		if cfg.AzureSpeechRegion == "" {
			return nil, fmt.Errorf("%w: azure provider needs AZURE_SPEECH_REGION", ErrMissingCredentials)
		}
		if cfg.AzureSpeechKey == "" {
			if cfg.AzureSpeechResourceID == "" {
				return nil, fmt.Errorf("%w: azure provider needs AZURE_SPEECH_KEY or AZURE_SPEECH_RESOURCE_ID", ErrMissingCredentials)
			}
			cred, err := azidentity.NewDefaultAzureCredential(nil)
			if err != nil {
				return nil, fmt.Errorf("failed to create Azure credential: %w", err)
			}
			p.WithTokenCredential(cred, cfg.AzureSpeechResourceID)
		}
		return p, nil

	case "openai":
		if cfg.OpenAIAPIKey == "" && cfg.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("%w: openai provider needs OPENAI_API_KEY", ErrMissingCredentials)
		}
		p := NewOpenAITranscriptionProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		p.Language = whisperLanguage(cfg.Language)
		return p, nil

	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("%w: groq provider needs GROQ_API_KEY", ErrMissingCredentials)
		}
		p := NewGroqTranscriptionProvider(cfg.GroqAPIKey)
		p.Language = whisperLanguage(cfg.Language)
		return p, nil

	case "whisper":
		return NewWhisperCLITranscriptionProvider(cfg.WhisperModel, cfg.Language), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
