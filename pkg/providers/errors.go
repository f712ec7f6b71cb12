package providers

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider is returned when the configured provider name is not supported.
var ErrUnknownProvider = errors.New("unknown transcription provider")

// ErrMissingCredentials is returned when a provider is selected without the settings it needs.
var ErrMissingCredentials = errors.New("missing provider credentials")

// ProviderError is a failed call to a speech backend.
type ProviderError struct {
	Provider   string
	StatusCode int    // HTTP status, 0 when the request never completed
	Code       string // backend-specific status, e.g. Azure RecognitionStatus
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Code != "":
		return fmt.Sprintf("%s recognition failed [%s]: %s", e.Provider, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s transcription error: %s", e.Provider, e.Message)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
