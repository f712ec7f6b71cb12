package providers

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mudler/xlog"
)

// WhisperCLITranscriptionProvider implements TranscriptionProvider using the local whisper CLI.
type WhisperCLITranscriptionProvider struct {
	Binary   string
	Model    string
	Language string
}

// NewWhisperCLITranscriptionProvider creates a new Whisper CLI transcription provider.
func NewWhisperCLITranscriptionProvider(model, language string) *WhisperCLITranscriptionProvider {
	if model == "" {
		model = "small"
	}
	return &WhisperCLITranscriptionProvider{
		Binary:   "whisper",
		Model:    model,
		Language: language,
	}
}

func (p *WhisperCLITranscriptionProvider) Name() string {
	return "whisper"
}

func (p *WhisperCLITranscriptionProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "whisper_out_*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir for whisper: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// whisper <audioPath> --model <model> --output_dir <tmpDir> --output_format txt
	args := []string{
		audioPath,
		"--model", p.Model,
		"--output_dir", tmpDir,
		"--output_format", "txt",
	}
	if p.Language != "" {
		args = append(args, "--language", whisperLanguage(p.Language))
	}

	xlog.Debug("running whisper CLI", "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, p.Binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Message: string(output), Cause: err}
	}

	// Whisper creates <audio_filename>.txt
	base := filepath.Base(audioPath)
	txtFile := filepath.Join(tmpDir, strings.TrimSuffix(base, filepath.Ext(base))+".txt")

	content, err := os.ReadFile(txtFile)
	if err != nil {
		return "", fmt.Errorf("failed to read whisper output file: %w", err)
	}
	return strings.TrimSpace(string(content)), nil
}

// whisperLanguage reduces a locale such as en-US to the bare language code whisper expects.
func whisperLanguage(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(lang)
}
