package providers

import (
	"context"
)

// TranscriptionProvider defines the interface for audio-to-text transcription.
type TranscriptionProvider interface {
	// Name identifies the backend in logs.
	Name() string

	// Transcribe takes a local path to a 16 kHz mono WAV chunk and returns its transcription.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
