package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mudler/xlog"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAITranscriptionProvider implements TranscriptionProvider for OpenAI-compatible APIs (including local ones).
type OpenAITranscriptionProvider struct {
	BaseURL  string
	Model    string
	Language string

	name   string
	client *openai.Client
}

// NewOpenAITranscriptionProvider creates a new OpenAI transcription provider.
func NewOpenAITranscriptionProvider(baseURL, apiKey, model string) *OpenAITranscriptionProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = openai.Whisper1
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/audio/transcriptions")
	return &OpenAITranscriptionProvider{
		BaseURL: cfg.BaseURL,
		Model:   model,
		name:    "openai",
		client:  openai.NewClientWithConfig(cfg),
	}
}

func (p *OpenAITranscriptionProvider) Name() string {
	return p.name
}

func (p *OpenAITranscriptionProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	xlog.Debug("transcribing via OpenAI-compatible API", "provider", p.name, "endpoint", p.BaseURL, "model", p.Model)
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.Model,
		FilePath: audioPath,
		Language: p.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: p.name, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Cause: err}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &ProviderError{Provider: p.name, StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error(), Cause: err}
		}
		return "", fmt.Errorf("%s request failed: %w", p.name, err)
	}
	return resp.Text, nil
}
