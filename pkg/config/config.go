package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mudler/xlog"
)

// ErrNotFound is returned by Load when no config file exists yet.
var ErrNotFound = errors.New("config not found. Please run 'vidscribe configure' first")

// AppConfig holds the user's permanent API keys and transcription preferences.
type AppConfig struct {
	Provider string `json:"provider"` // azure, openai, groq or whisper
	Language string `json:"language"` // BCP-47 locale, e.g. "en-US"

	AzureSpeechKey        string `json:"azure_speech_key"`
	AzureSpeechRegion     string `json:"azure_speech_region"`
	AzureSpeechResourceID string `json:"azure_speech_resource_id"` // Entra auth when no key is set

	OpenAIAPIKey  string `json:"openai_api_key"`
	OpenAIBaseURL string `json:"openai_base_url"`
	OpenAIModel   string `json:"openai_model"`

	GroqAPIKey string `json:"groq_api_key"`

	WhisperModel string `json:"whisper_model"`

	TelegramToken  string `json:"telegram_token"`
	TelegramChatID string `json:"telegram_chat_id"`

	Open          string `json:"open"`           // system, telegram or none
	OnChunkError  string `json:"on_chunk_error"` // skip, placeholder or abort
	SegmentLength string `json:"segment_length"` // Go duration, e.g. "60s"
	TmpDir        string `json:"tmp_dir"`
	FFmpegPath    string `json:"ffmpeg_path"`
}

// Defaults returns a config with every optional field filled in.
func Defaults() *AppConfig {
	return &AppConfig{
		Provider:      "azure",
		Language:      "en-US",
		Open:          "system",
		OnChunkError:  "skip",
		SegmentLength: "60s",
	}
}

// Dir returns ~/.vidscribe, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find home directory: %w", err)
	}
	dir := filepath.Join(home, ".vidscribe")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create vidscribe directory: %w", err)
	}
	return dir, nil
}

// DefaultPath returns the absolute path to ~/.vidscribe/config.json.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config at path, or the default path when empty. Fields the
// file leaves blank keep their default values.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// Save writes the config to path, or the default path when empty.
func (cfg *AppConfig) Save(path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// rw------- since it contains API keys
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config to disk: %w", err)
	}
	return nil
}

// LoadDotEnv loads environment variables from .env files in the working
// directory and in ~/.vidscribe. Existing variables are not overwritten.
func LoadDotEnv() {
	envFiles := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		envFiles = append(envFiles, filepath.Join(home, ".vidscribe", ".env"))
	}
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		xlog.Debug("env file found, loading environment variables from file", "envFile", envFile)
		if err := godotenv.Load(envFile); err != nil {
			xlog.Error("failed to load environment variables from file", "error", err, "envFile", envFile)
		}
	}
}

// envOverrides maps environment variables to the fields they replace.
var envOverrides = []struct {
	key   string
	field func(*AppConfig) *string
}{
	{"VIDSCRIBE_PROVIDER", func(c *AppConfig) *string { return &c.Provider }},
	{"VIDSCRIBE_LANGUAGE", func(c *AppConfig) *string { return &c.Language }},
	{"VIDSCRIBE_OPEN", func(c *AppConfig) *string { return &c.Open }},
	{"VIDSCRIBE_ON_CHUNK_ERROR", func(c *AppConfig) *string { return &c.OnChunkError }},
	{"VIDSCRIBE_SEGMENT_LENGTH", func(c *AppConfig) *string { return &c.SegmentLength }},
	{"VIDSCRIBE_TMP_DIR", func(c *AppConfig) *string { return &c.TmpDir }},
	{"VIDSCRIBE_FFMPEG", func(c *AppConfig) *string { return &c.FFmpegPath }},
	{"AZURE_SPEECH_KEY", func(c *AppConfig) *string { return &c.AzureSpeechKey }},
	{"AZURE_SPEECH_REGION", func(c *AppConfig) *string { return &c.AzureSpeechRegion }},
	{"AZURE_SPEECH_RESOURCE_ID", func(c *AppConfig) *string { return &c.AzureSpeechResourceID }},
	{"OPENAI_API_KEY", func(c *AppConfig) *string { return &c.OpenAIAPIKey }},
	{"OPENAI_BASE_URL", func(c *AppConfig) *string { return &c.OpenAIBaseURL }},
	{"OPENAI_MODEL", func(c *AppConfig) *string { return &c.OpenAIModel }},
	{"GROQ_API_KEY", func(c *AppConfig) *string { return &c.GroqAPIKey }},
	{"WHISPER_MODEL", func(c *AppConfig) *string { return &c.WhisperModel }},
	{"TELEGRAM_BOT_TOKEN", func(c *AppConfig) *string { return &c.TelegramToken }},
	{"TELEGRAM_CHAT_ID", func(c *AppConfig) *string { return &c.TelegramChatID }},
}

// ApplyEnv overrides fields with any matching environment variable that is set.
func (cfg *AppConfig) ApplyEnv() {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.field(cfg) = v
		}
	}
}

// Segment parses SegmentLength.
func (cfg *AppConfig) Segment() (time.Duration, error) {
	d, err := time.ParseDuration(cfg.SegmentLength)
	if err != nil {
		return 0, fmt.Errorf("invalid segment_length %q: %w", cfg.SegmentLength, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("segment_length must be positive, got %s", d)
	}
	return d, nil
}

func (cfg *AppConfig) fillDefaults() {
	d := Defaults()
	if cfg.Provider == "" {
		cfg.Provider = d.Provider
	}
	if cfg.Language == "" {
		cfg.Language = d.Language
	}
	if cfg.Open == "" {
		cfg.Open = d.Open
	}
	if cfg.OnChunkError == "" {
		cfg.OnChunkError = d.OnChunkError
	}
	if cfg.SegmentLength == "" {
		cfg.SegmentLength = d.SegmentLength
	}
}
