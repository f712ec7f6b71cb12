package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/manifoldco/promptui"

	"vidscribe/pkg/config"
	"vidscribe/pkg/providers"
)

type ConfigureCMD struct{}

func (c *ConfigureCMD) Run(ctx *Context) error {
	fmt.Println("🎙️ vidscribe configuration wizard")
	fmt.Println("---------------------------------")

	cfg, err := config.Load(ctx.Config)
	switch {
	case errors.Is(err, config.ErrNotFound):
		cfg = config.Defaults()
	case err != nil:
		return err
	}

	if cfg.Provider, err = promptSelect("Speech provider", []string{"azure", "openai", "groq", "whisper"}, cfg.Provider); err != nil {
		return err
	}

	switch cfg.Provider {
	case "azure":
		if cfg.AzureSpeechRegion, err = promptString("Azure Speech region (e.g. westeurope)", cfg.AzureSpeechRegion, required); err != nil {
			return err
		}
		if cfg.AzureSpeechKey, err = promptSecret("Azure Speech key (empty to use Entra ID)", cfg.AzureSpeechKey); err != nil {
			return err
		}
		if cfg.AzureSpeechKey == "" {
			if cfg.AzureSpeechResourceID, err = promptString("Azure Speech resource ID", cfg.AzureSpeechResourceID, required); err != nil {
				return err
			}
		}
	case "openai":
		if cfg.OpenAIAPIKey, err = promptSecret("OpenAI API key", cfg.OpenAIAPIKey); err != nil {
			return err
		}
		if cfg.OpenAIBaseURL, err = promptString("API base URL (empty for api.openai.com)", cfg.OpenAIBaseURL, nil); err != nil {
			return err
		}
		if cfg.OpenAIModel, err = promptString("Model", orDefault(cfg.OpenAIModel, "whisper-1"), nil); err != nil {
			return err
		}
	case "groq":
		if cfg.GroqAPIKey, err = promptSecret("Groq API key", cfg.GroqAPIKey); err != nil {
			return err
		}
	case "whisper":
		if cfg.WhisperModel, err = promptString("Whisper model", orDefault(cfg.WhisperModel, "small"), nil); err != nil {
			return err
		}
	}

	if cfg.Language, err = promptString("Recognition language", cfg.Language, required); err != nil {
		return err
	}

	if cfg.Open, err = promptSelect("Open the transcript with", []string{"system", "telegram", "none"}, cfg.Open); err != nil {
		return err
	}
	if cfg.Open == "telegram" {
		if cfg.TelegramToken, err = promptSecret("Telegram bot token", cfg.TelegramToken); err != nil {
			return err
		}
		if cfg.TelegramChatID, err = promptString("Telegram chat ID", cfg.TelegramChatID, validChatID); err != nil {
			return err
		}
	}

	if cfg.OnChunkError, err = promptSelect("When a chunk fails", []string{"skip", "placeholder", "abort"}, cfg.OnChunkError); err != nil {
		return err
	}
	if cfg.SegmentLength, err = promptString("Segment length", cfg.SegmentLength, validDuration); err != nil {
		return err
	}

	fmt.Println("\n🔍 Checking provider settings...")
	if _, err := providers.FromConfig(cfg); err != nil {
		fmt.Printf("❌ %v\n", err)
		return err
	}

	if err := cfg.Save(ctx.Config); err != nil {
		return err
	}
	fmt.Println("✅ Configuration saved successfully!")
	fmt.Println("You can now run 'vidscribe <file>' to transcribe a video.")
	return nil
}

func promptSelect(label string, items []string, current string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
	}
	for i, item := range items {
		if item == current {
			prompt.CursorPos = i
			break
		}
	}
	_, result, err := prompt.Run()
	return result, err
}

func promptString(label, current string, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  current,
		Validate: validate,
	}
	return prompt.Run()
}

// promptSecret keeps the current value when the input is left empty.
func promptSecret(label, current string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}
	result, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return orDefault(result, current), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func required(s string) error {
	if s == "" {
		return errors.New("a value is required")
	}
	return nil
}

func validChatID(s string) error {
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return errors.New("chat ID must be a number")
	}
	return nil
}

func validDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("use a duration such as 60s or 2m")
	}
	if d <= 0 {
		return errors.New("segment length must be positive")
	}
	return nil
}
