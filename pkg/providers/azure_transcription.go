package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/mudler/xlog"
)

const (
	azureSpeechScope = "https://cognitiveservices.azure.com/.default"

	// tokenRefreshBuffer is how long before expiry a cached Entra token is replaced.
	tokenRefreshBuffer = 5 * time.Minute
)

// AzureSpeechProvider implements TranscriptionProvider for the Azure Speech
// short-audio REST API, which accepts up to 60 seconds per request.
type AzureSpeechProvider struct {
	Region     string
	Key        string
	Language   string
	Endpoint   string // overrides the regional endpoint when set
	HTTPClient *http.Client

	cred       azcore.TokenCredential
	resourceID string

	mu          sync.Mutex
	cachedToken *azcore.AccessToken
}

// NewAzureSpeechProvider creates a provider authenticating with a subscription key.
func NewAzureSpeechProvider(region, key, language string) *AzureSpeechProvider {
	if language == "" {
		language = "en-US"
	}
	return &AzureSpeechProvider{
		Region:     region,
		Key:        key,
		Language:   language,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// WithTokenCredential switches the provider to Microsoft Entra authentication.
// resourceID is the ARM id of the Speech resource.
func (p *AzureSpeechProvider) WithTokenCredential(cred azcore.TokenCredential, resourceID string) *AzureSpeechProvider {
	p.cred = cred
	p.resourceID = resourceID
	return p
}

func (p *AzureSpeechProvider) Name() string {
	return "azure"
}

type azureRecognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

func (p *AzureSpeechProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	endpoint, err := p.endpoint()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, file)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json")
	if err := p.authorize(ctx, req); err != nil {
		return "", err
	}

	xlog.Debug("sending chunk to Azure Speech", "endpoint", endpoint, "file", audioPath)
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var azResp azureRecognitionResponse
	if err := json.NewDecoder(resp.Body).Decode(&azResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if azResp.RecognitionStatus != "Success" {
		return "", &ProviderError{Provider: p.Name(), Code: azResp.RecognitionStatus, Message: "no speech recognized"}
	}
	return azResp.DisplayText, nil
}

func (p *AzureSpeechProvider) endpoint() (string, error) {
	base := p.Endpoint
	if base == "" {
		if p.Region == "" {
			return "", fmt.Errorf("%w: azure region is not set", ErrMissingCredentials)
		}
		base = fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", p.Region)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid azure endpoint: %w", err)
	}
	q := u.Query()
	q.Set("language", p.Language)
	q.Set("format", "simple")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *AzureSpeechProvider) authorize(ctx context.Context, req *http.Request) error {
	if p.Key != "" {
		req.Header.Set("Ocp-Apim-Subscription-Key", p.Key)
		return nil
	}
	if p.cred == nil {
		return fmt.Errorf("%w: azure speech key or token credential required", ErrMissingCredentials)
	}
	token, err := p.token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get Azure token: %w", err)
	}
	// Entra tokens for Speech carry the resource id in the bearer value.
	req.Header.Set("Authorization", fmt.Sprintf("Bearer aad#%s#%s", p.resourceID, token.Token))
	return nil
}

func (p *AzureSpeechProvider) token(ctx context.Context) (*azcore.AccessToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cachedToken != nil && p.cachedToken.ExpiresOn.After(time.Now().Add(tokenRefreshBuffer)) {
		return p.cachedToken, nil
	}
	token, err := p.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{azureSpeechScope}})
	if err != nil {
		return nil, err
	}
	p.cachedToken = &token
	return &token, nil
}
