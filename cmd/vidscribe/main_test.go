package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidscribe/pkg/config"
	"vidscribe/pkg/opener"
	"vidscribe/pkg/pipeline"
)

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	file := config.Defaults()
	file.Provider = "openai"
	file.Language = "de-DE"
	file.SegmentLength = "30s"
	require.NoError(t, file.Save(path))

	t.Setenv("VIDSCRIBE_LANGUAGE", "fr-FR")
	t.Setenv("VIDSCRIBE_SEGMENT_LENGTH", "45s")

	cfg, err := loadConfig(path, Overrides{SegmentLength: "90s"})
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "fr-FR", cfg.Language)
	assert.Equal(t, "90s", cfg.SegmentLength)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.json"), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, config.Defaults().OnChunkError, cfg.OnChunkError)
}

func TestNewOpener(t *testing.T) {
	cfg := config.Defaults()

	o, err := newOpener(cfg)
	require.NoError(t, err)
	assert.IsType(t, &opener.System{}, o)

	cfg.Open = "none"
	o, err = newOpener(cfg)
	require.NoError(t, err)
	assert.IsType(t, opener.None{}, o)

	cfg.Open = "telegram"
	_, err = newOpener(cfg)
	assert.Error(t, err)

	cfg.TelegramToken, cfg.TelegramChatID = "123:abc", "42"
	_, err = newOpener(cfg)
	assert.NoError(t, err)

	cfg.Open = "printer"
	_, err = newOpener(cfg)
	assert.Error(t, err)
}

func TestBuildPipeline_InvalidSettingsAreUsageErrors(t *testing.T) {
	cfg := config.Defaults()
	cfg.Provider = "whisper"
	cfg.Open = "none"

	_, err := buildPipeline(cfg, nil)
	require.NoError(t, err)

	bad := *cfg
	bad.OnChunkError = "retry"
	_, err = buildPipeline(&bad, nil)
	assert.Equal(t, pipeline.UsageError, pipeline.KindOf(err))

	bad = *cfg
	bad.SegmentLength = "-5s"
	_, err = buildPipeline(&bad, nil)
	assert.Equal(t, pipeline.UsageError, pipeline.KindOf(err))

	bad = *cfg
	bad.Provider = "azure"
	_, err = buildPipeline(&bad, nil)
	assert.Equal(t, pipeline.UsageError, pipeline.KindOf(err))
}

func TestRunError_CountsUnsavedTranscript(t *testing.T) {
	assert.NoError(t, runError(&pipeline.Result{}, nil))
	assert.NoError(t, runError(nil, nil))

	writeErr := &pipeline.Error{Kind: pipeline.WriteError, Err: errors.New("read-only file system")}
	assert.Equal(t, pipeline.WriteError, pipeline.KindOf(runError(&pipeline.Result{WriteErr: writeErr}, nil)))

	runErr := errors.New("decode failed")
	assert.Equal(t, runErr, runError(nil, runErr))
}
