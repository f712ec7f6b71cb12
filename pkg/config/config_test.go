package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Defaults()
	cfg.AzureSpeechKey = "secret"
	cfg.AzureSpeechRegion = "westeurope"
	require.NoError(t, cfg.Save(path))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"provider":"groq","language":""}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "groq", cfg.Provider)
	assert.Equal(t, "en-US", cfg.Language)
	assert.Equal(t, "skip", cfg.OnChunkError)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("AZURE_SPEECH_KEY", "from-env")
	t.Setenv("VIDSCRIBE_PROVIDER", "openai")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	cfg := Defaults()
	cfg.TelegramChatID = "42"
	cfg.ApplyEnv()

	assert.Equal(t, "from-env", cfg.AzureSpeechKey)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "42", cfg.TelegramChatID, "empty variables do not clear values")
}

func TestSegment(t *testing.T) {
	cfg := Defaults()
	d, err := cfg.Segment()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	cfg.SegmentLength = "soon"
	_, err = cfg.Segment()
	assert.Error(t, err)

	cfg.SegmentLength = "-5s"
	_, err = cfg.Segment()
	assert.Error(t, err)
}
