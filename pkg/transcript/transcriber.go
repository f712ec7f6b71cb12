package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/mudler/xlog"

	"vidscribe/pkg/media"
	"vidscribe/pkg/providers"
)

// ProgressFunc is called after every chunk with its result and the chunk count.
type ProgressFunc func(r ChunkResult, total int)

// Transcriber sends chunks to a provider one at a time, in order.
type Transcriber struct {
	provider    providers.TranscriptionProvider
	policy      FailurePolicy
	calibration time.Duration
	progress    ProgressFunc
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithPolicy sets how failed chunks are handled.
func WithPolicy(p FailurePolicy) Option {
	return func(t *Transcriber) {
		t.policy = p
	}
}

// WithProgress registers a callback invoked after each chunk.
func WithProgress(fn ProgressFunc) Option {
	return func(t *Transcriber) {
		t.progress = fn
	}
}

// WithCalibration sets the window used to measure ambient noise.
func WithCalibration(d time.Duration) Option {
	return func(t *Transcriber) {
		t.calibration = d
	}
}

// NewTranscriber creates a Transcriber for provider.
func NewTranscriber(provider providers.TranscriptionProvider, opts ...Option) *Transcriber {
	t := &Transcriber{
		provider:    provider,
		calibration: DefaultCalibration,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Policy returns the configured failure policy.
func (t *Transcriber) Policy() FailurePolicy {
	return t.policy
}

// Run transcribes chunks in order. A failed chunk is recorded in its
// ChunkResult and the loop moves on, unless the policy is FailAbort. The
// returned Transcript holds every chunk processed so far, even on error.
func (t *Transcriber) Run(ctx context.Context, chunks []media.Chunk) (*Transcript, error) {
	tr := &Transcript{Results: make([]ChunkResult, 0, len(chunks))}
	xlog.Info("transcribing chunks", "provider", t.provider.Name(), "chunks", len(chunks))

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return tr, err
		}

		r := t.transcribe(ctx, c)
		tr.Results = append(tr.Results, r)
		if t.progress != nil {
			t.progress(r, len(chunks))
		}

		if !r.OK() {
			xlog.Error("error transcribing chunk", "chunk", c.String(), "file", c.Path, "error", r.Err)
			if t.policy == FailAbort {
				return tr, fmt.Errorf("%w: %s: %w", ErrChunkFailed, c, r.Err)
			}
			continue
		}
		xlog.Debug("chunk transcribed", "chunk", c.String(), "chars", len(r.Text))
	}

	xlog.Info("transcription complete", "ok", len(tr.Results)-len(tr.Failed()), "failed", len(tr.Failed()))
	return tr, nil
}

func (t *Transcriber) transcribe(ctx context.Context, c media.Chunk) ChunkResult {
	r := ChunkResult{Chunk: c}

	buf, err := media.ReadWAV(c.Path)
	if err != nil {
		r.Err = fmt.Errorf("failed to read chunk: %w", err)
		return r
	}
	r.AmbientDBFS = AmbientLevel(buf, t.calibration)
	xlog.Debug("calibrated ambient noise", "chunk", c.String(), "dbfs", fmt.Sprintf("%.1f", r.AmbientDBFS))

	text, err := t.provider.Transcribe(ctx, c.Path)
	if err != nil {
		r.Err = err
		return r
	}
	r.Text = text
	return r
}
