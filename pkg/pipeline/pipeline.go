package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/mudler/xlog"

	"vidscribe/pkg/media"
	"vidscribe/pkg/opener"
	"vidscribe/pkg/transcript"
)

// AudioLoader decodes a media file into normalized audio.
type AudioLoader interface {
	Load(ctx context.Context, m media.MediaFile) (*media.AudioBuffer, error)
}

// Result describes a completed run.
type Result struct {
	Input      string
	Output     string
	Duration   time.Duration // length of the decoded audio
	Chunks     []media.Chunk
	Transcript *transcript.Transcript

	// WriteErr is set when the transcript could not be saved. Run still
	// succeeds unless the pipeline was built WithStrictWrite.
	WriteErr error
}

// Pipeline turns one media file into a transcript file.
type Pipeline struct {
	loader        AudioLoader
	transcriber   *transcript.Transcriber
	opener        opener.Opener
	segmentLength time.Duration
	tmpDir        string
	strictWrite   bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLoader replaces the default ffmpeg loader.
func WithLoader(l AudioLoader) Option {
	return func(p *Pipeline) {
		p.loader = l
	}
}

// WithOpener sets how the finished transcript is presented.
func WithOpener(o opener.Opener) Option {
	return func(p *Pipeline) {
		p.opener = o
	}
}

// WithSegmentLength sets the maximum chunk duration.
func WithSegmentLength(d time.Duration) Option {
	return func(p *Pipeline) {
		p.segmentLength = d
	}
}

// WithTempDir sets where chunk files are written.
func WithTempDir(dir string) Option {
	return func(p *Pipeline) {
		p.tmpDir = dir
	}
}

// WithStrictWrite makes Run return the WriteError instead of only
// recording it on the Result.
func WithStrictWrite() Option {
	return func(p *Pipeline) {
		p.strictWrite = true
	}
}

// New creates a Pipeline around transcriber.
func New(transcriber *transcript.Transcriber, opts ...Option) *Pipeline {
	p := &Pipeline{
		transcriber:   transcriber,
		segmentLength: media.DefaultSegmentLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.loader == nil {
		p.loader = media.NewLoader(media.WithTempDir(p.tmpDir))
	}
	if p.opener == nil {
		p.opener = opener.None{}
	}
	return p
}

// Run validates input, decodes it, splits it into chunks, transcribes them
// in order, writes the transcript next to the input and opens it. Chunk
// files are removed on every path out of Run once they exist.
func (p *Pipeline) Run(ctx context.Context, input string) (*Result, error) {
	if input == "" {
		return nil, newError(UsageError, "", errors.New("no input file given"))
	}

	// ValidateInput
	m, err := media.Open(input)
	if err != nil {
		return nil, newError(InputNotFound, input, err)
	}
	xlog.Info("input file", "name", m.Name()+"."+m.Ext(), "path", m.Path)
	res := &Result{Input: input, Output: transcript.OutputPath(input)}

	// LoadAudio
	xlog.Info("extracting audio", "format", m.Ext())
	buf, err := p.loader.Load(ctx, m)
	if err != nil {
		return nil, newError(DecodeError, input, err)
	}
	res.Duration = buf.Duration()
	xlog.Info("audio ready", "duration", res.Duration)

	// Segment
	chunks, err := media.NewSegmenter(p.tmpDir, p.segmentLength).Split(buf)
	if err != nil {
		return nil, newError(DecodeError, input, err)
	}
	res.Chunks = chunks

	cleaned := false
	cleanup := func() {
		if cleaned {
			return
		}
		cleaned = true
		xlog.Info("cleaning up temp files", "count", len(chunks))
		if cerr := media.Cleanup(chunks); cerr != nil {
			xlog.Debug("failed to remove temp files", "error", newError(CleanupError, "", cerr))
		}
	}
	defer cleanup()

	// Transcribe
	tr, err := p.transcriber.Run(ctx, chunks)
	res.Transcript = tr
	if err != nil {
		return res, newError(TranscriptionError, input, err)
	}

	// Write
	if err := transcript.Write(res.Output, tr.Text(p.transcriber.Policy())); err != nil {
		res.WriteErr = newError(WriteError, res.Output, err)
		xlog.Error("error writing transcription file", "path", res.Output, "error", err)
		if p.strictWrite {
			return res, res.WriteErr
		}
		return res, nil
	}
	xlog.Info("transcription saved", "path", res.Output)

	// Cleanup
	cleanup()

	// OpenResult
	if err := p.opener.Open(ctx, res.Output); err != nil {
		xlog.Warn("could not open transcript", "path", res.Output, "error", err)
	}
	return res, nil
}
