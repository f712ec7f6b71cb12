package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mudler/xlog"
	"github.com/schollz/progressbar/v3"

	"vidscribe/pkg/channels/telegram"
	"vidscribe/pkg/config"
	"vidscribe/pkg/history"
	"vidscribe/pkg/media"
	"vidscribe/pkg/opener"
	"vidscribe/pkg/pipeline"
	"vidscribe/pkg/providers"
	"vidscribe/pkg/transcript"
)

// Overrides are per-run replacements for config file and environment values.
type Overrides struct {
	Provider      string `short:"p" help:"Speech backend: azure, openai, groq or whisper"`
	Language      string `short:"l" help:"Recognition language, e.g. en-US"`
	SegmentLength string `help:"Maximum chunk length as a duration, e.g. 60s"`
	OnChunkError  string `help:"What to do when a chunk fails: skip, placeholder or abort"`
	Open          string `help:"How to present the transcript: system, telegram or none"`
	TmpDir        string `help:"Directory for temporary chunk files"`
	FFmpeg        string `help:"Path to the ffmpeg binary"`
}

func (o Overrides) apply(cfg *config.AppConfig) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Provider, o.Provider)
	set(&cfg.Language, o.Language)
	set(&cfg.SegmentLength, o.SegmentLength)
	set(&cfg.OnChunkError, o.OnChunkError)
	set(&cfg.Open, o.Open)
	set(&cfg.TmpDir, o.TmpDir)
	set(&cfg.FFmpegPath, o.FFmpeg)
}

type TranscribeCMD struct {
	Input string `arg:"" help:"Video or audio file to transcribe"`

	Overrides   `embed:""`
	NoProgress  bool `help:"Do not show a progress bar"`
	StrictWrite bool `help:"Exit with an error when the transcript cannot be saved"`
}

func (t *TranscribeCMD) Run(ctx *Context) error {
	cfg, err := loadConfig(ctx.Config, t.Overrides)
	if err != nil {
		return err
	}

	var progress transcript.ProgressFunc
	if !t.NoProgress {
		progress = newProgress()
	}
	var extra []pipeline.Option
	if t.StrictWrite {
		extra = append(extra, pipeline.WithStrictWrite())
	}
	p, err := buildPipeline(cfg, progress, extra...)
	if err != nil {
		return err
	}

	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(sigctx, t.Input)
	recordRun(cfg, t.Input, res, err)
	if err != nil {
		return err
	}
	if res.WriteErr != nil {
		// Already logged by the pipeline; there is no file to print.
		return nil
	}
	if failed := res.Transcript.Failed(); len(failed) > 0 {
		xlog.Warn("some chunks could not be transcribed", "failed", len(failed), "total", len(res.Chunks))
	}
	fmt.Println(res.Output)
	return nil
}

// loadConfig resolves settings from the config file, then the environment,
// then command line flags.
func loadConfig(path string, o Overrides) (*config.AppConfig, error) {
	cfg, err := config.Load(path)
	switch {
	case errors.Is(err, config.ErrNotFound):
		xlog.Debug("no config file, using defaults and environment")
		cfg = config.Defaults()
	case err != nil:
		return nil, err
	}
	cfg.ApplyEnv()
	o.apply(cfg)
	return cfg, nil
}

func buildPipeline(cfg *config.AppConfig, progress transcript.ProgressFunc, extra ...pipeline.Option) (*pipeline.Pipeline, error) {
	provider, err := providers.FromConfig(cfg)
	if err != nil {
		return nil, &pipeline.Error{Kind: pipeline.UsageError, Err: err}
	}
	policy, err := transcript.ParseFailurePolicy(cfg.OnChunkError)
	if err != nil {
		return nil, &pipeline.Error{Kind: pipeline.UsageError, Err: err}
	}
	segment, err := cfg.Segment()
	if err != nil {
		return nil, &pipeline.Error{Kind: pipeline.UsageError, Err: err}
	}
	op, err := newOpener(cfg)
	if err != nil {
		return nil, &pipeline.Error{Kind: pipeline.UsageError, Err: err}
	}

	opts := []transcript.Option{transcript.WithPolicy(policy)}
	if progress != nil {
		opts = append(opts, transcript.WithProgress(progress))
	}
	xlog.Debug("pipeline configured", "provider", provider.Name(), "segment", segment, "on_chunk_error", policy, "open", cfg.Open)

	loader := media.NewLoader(media.WithTempDir(cfg.TmpDir), media.WithFFmpegPath(cfg.FFmpegPath))
	popts := append([]pipeline.Option{
		pipeline.WithLoader(loader),
		pipeline.WithOpener(op),
		pipeline.WithSegmentLength(segment),
		pipeline.WithTempDir(cfg.TmpDir),
	}, extra...)
	return pipeline.New(transcript.NewTranscriber(provider, opts...), popts...), nil
}

// recordRun appends the outcome of a run to ~/.vidscribe/HISTORY.md.
func recordRun(cfg *config.AppConfig, input string, res *pipeline.Result, runErr error) {
	dir, err := config.Dir()
	if err != nil {
		xlog.Debug("history disabled", "error", err)
		return
	}
	store, err := history.NewStore(dir)
	if err != nil {
		xlog.Debug("history disabled", "error", err)
		return
	}

	if abs, err := filepath.Abs(input); err == nil {
		input = abs
	}
	e := history.Entry{Input: input, Provider: cfg.Provider, Err: runError(res, runErr)}
	if res != nil {
		e.Output = res.Output
		e.Duration = res.Duration
		e.Chunks = len(res.Chunks)
		if res.Transcript != nil {
			e.Failed = len(res.Transcript.Failed())
		}
	}
	if err := store.Append(e); err != nil {
		xlog.Debug("could not record run", "error", err)
	}
}

// runError is the error a run ended with, counting a transcript that could
// not be saved.
func runError(res *pipeline.Result, err error) error {
	if err == nil && res != nil && res.WriteErr != nil {
		return res.WriteErr
	}
	return err
}

func newOpener(cfg *config.AppConfig) (opener.Opener, error) {
	switch cfg.Open {
	case "", "system":
		return opener.NewSystem(), nil
	case "none":
		return opener.None{}, nil
	case "telegram":
		return newTelegram(cfg)
	default:
		return nil, fmt.Errorf("unknown opener %q (want system, telegram or none)", cfg.Open)
	}
}

func newTelegram(cfg *config.AppConfig) (*telegram.Channel, error) {
	if cfg.TelegramToken == "" || cfg.TelegramChatID == "" {
		return nil, errors.New("telegram needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
	}
	return telegram.NewChannel(cfg.TelegramToken, cfg.TelegramChatID)
}

// newProgress draws a bar advancing once per chunk. A new bar starts with
// each run.
func newProgress() transcript.ProgressFunc {
	var bar *progressbar.ProgressBar
	return func(r transcript.ChunkResult, total int) {
		if bar == nil || bar.IsFinished() {
			bar = progressbar.NewOptions(
				total,
				progressbar.OptionSetDescription("transcribing"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		if err := bar.Add(1); err != nil {
			xlog.Debug("error while updating progress bar", "chunk", r.Chunk.String(), "error", err)
		}
	}
}
