package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidscribe/pkg/media"
	"vidscribe/pkg/opener"
	"vidscribe/pkg/transcript"
)

type fakeLoader struct {
	duration time.Duration
	err      error
}

func (f fakeLoader) Load(context.Context, media.MediaFile) (*media.AudioBuffer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &media.AudioBuffer{
		SampleRate: media.SampleRate,
		Channels:   media.Channels,
		BitDepth:   media.BitDepth,
		Samples:    make([]int, int(f.duration/time.Millisecond)*media.SampleRate/1000),
	}, nil
}

// partProvider returns the part name of each chunk and fails on the listed parts.
type partProvider struct {
	fail map[string]bool
}

func (partProvider) Name() string { return "parts" }

func (p partProvider) Transcribe(_ context.Context, audioPath string) (string, error) {
	base := filepath.Base(audioPath)
	part := strings.TrimSuffix(base[strings.LastIndex(base, "_")+1:], ".wav")
	if p.fail[part] {
		return "", errors.New("connection reset by peer")
	}
	return part, nil
}

type setup struct {
	input  string
	tmpDir string
	opened []string
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	dir := t.TempDir()
	s := &setup{input: filepath.Join(dir, "sample.wav"), tmpDir: filepath.Join(dir, "tmp")}
	require.NoError(t, os.Mkdir(s.tmpDir, 0o755))
	require.NoError(t, os.WriteFile(s.input, []byte("RIFF"), 0o644))
	return s
}

func (s *setup) pipeline(loader AudioLoader, tr *transcript.Transcriber) *Pipeline {
	return New(tr,
		WithLoader(loader),
		WithTempDir(s.tmpDir),
		WithSegmentLength(time.Second),
		WithOpener(opener.Func(func(_ context.Context, path string) error {
			s.opened = append(s.opened, path)
			return nil
		})),
	)
}

func assertNoChunkFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "chunk files must not survive the run")
}

func TestRun_Success(t *testing.T) {
	s := newSetup(t)
	p := s.pipeline(fakeLoader{duration: 2500 * time.Millisecond}, transcript.NewTranscriber(partProvider{}))

	res, err := p.Run(context.Background(), s.input)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 3)
	assert.Equal(t, 2500*time.Millisecond, res.Duration)

	want := filepath.Join(filepath.Dir(s.input), "sample_transcription.txt")
	assert.Equal(t, want, res.Output)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "part1 part2 part3 ", string(data))

	assert.Equal(t, []string{want}, s.opened)
	assertNoChunkFiles(t, s.tmpDir)
}

func TestRun_FailedMiddleChunkIsSkipped(t *testing.T) {
	s := newSetup(t)
	p := s.pipeline(fakeLoader{duration: 2500 * time.Millisecond},
		transcript.NewTranscriber(partProvider{fail: map[string]bool{"part2": true}}))

	res, err := p.Run(context.Background(), s.input)
	require.NoError(t, err)

	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.Equal(t, "part1 part3 ", string(data))

	failed := res.Transcript.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].Chunk.Index)
	assertNoChunkFiles(t, s.tmpDir)
}

func TestRun_MissingInput(t *testing.T) {
	s := newSetup(t)
	p := s.pipeline(fakeLoader{duration: time.Second}, transcript.NewTranscriber(partProvider{}))

	_, err := p.Run(context.Background(), filepath.Join(filepath.Dir(s.input), "nope.mp4"))
	assert.Equal(t, InputNotFound, KindOf(err))
	assert.ErrorIs(t, err, media.ErrFileNotFound)
	assertNoChunkFiles(t, s.tmpDir)
	assert.Empty(t, s.opened)
}

func TestRun_NoInput(t *testing.T) {
	s := newSetup(t)
	_, err := s.pipeline(fakeLoader{}, transcript.NewTranscriber(partProvider{})).Run(context.Background(), "")
	assert.Equal(t, UsageError, KindOf(err))
}

func TestRun_DecodeFailure(t *testing.T) {
	s := newSetup(t)
	p := s.pipeline(fakeLoader{err: media.ErrDecode}, transcript.NewTranscriber(partProvider{}))

	_, err := p.Run(context.Background(), s.input)
	assert.Equal(t, DecodeError, KindOf(err))
	assert.ErrorIs(t, err, media.ErrDecode)
	assertNoChunkFiles(t, s.tmpDir)
	assert.NoFileExists(t, transcript.OutputPath(s.input))
}

func TestRun_AbortCleansUp(t *testing.T) {
	s := newSetup(t)
	tr := transcript.NewTranscriber(partProvider{fail: map[string]bool{"part2": true}}, transcript.WithPolicy(transcript.FailAbort))

	res, err := s.pipeline(fakeLoader{duration: 2500 * time.Millisecond}, tr).Run(context.Background(), s.input)
	assert.Equal(t, TranscriptionError, KindOf(err))
	assert.ErrorIs(t, err, transcript.ErrChunkFailed)
	require.NotNil(t, res)
	assert.Len(t, res.Transcript.Results, 2)

	assertNoChunkFiles(t, s.tmpDir)
	assert.NoFileExists(t, res.Output)
}

func TestRun_WriteFailure(t *testing.T) {
	s := newSetup(t)
	// A directory in the way makes the transcript unwritable regardless of permissions.
	require.NoError(t, os.Mkdir(transcript.OutputPath(s.input), 0o755))

	res, err := s.pipeline(fakeLoader{duration: time.Second}, transcript.NewTranscriber(partProvider{})).Run(context.Background(), s.input)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, WriteError, KindOf(res.WriteErr))
	assert.Equal(t, "part1 ", res.Transcript.Text(transcript.FailSkip))
	assertNoChunkFiles(t, s.tmpDir)
	assert.Empty(t, s.opened)
}

func TestRun_StrictWriteFailure(t *testing.T) {
	s := newSetup(t)
	require.NoError(t, os.Mkdir(transcript.OutputPath(s.input), 0o755))

	p := New(transcript.NewTranscriber(partProvider{}),
		WithLoader(fakeLoader{duration: time.Second}),
		WithTempDir(s.tmpDir),
		WithStrictWrite(),
	)
	res, err := p.Run(context.Background(), s.input)
	assert.Equal(t, WriteError, KindOf(err))
	require.NotNil(t, res)
	assert.Equal(t, err, res.WriteErr)
	assertNoChunkFiles(t, s.tmpDir)
}

func TestRun_OpenerFailureIsNotFatal(t *testing.T) {
	s := newSetup(t)
	p := New(transcript.NewTranscriber(partProvider{}),
		WithLoader(fakeLoader{duration: time.Second}),
		WithTempDir(s.tmpDir),
		WithOpener(opener.Func(func(context.Context, string) error { return errors.New("no display") })),
	)

	_, err := p.Run(context.Background(), s.input)
	assert.NoError(t, err)
}

func TestError(t *testing.T) {
	err := newError(DecodeError, "in.mp4", media.ErrDecode)
	assert.Equal(t, "decode error: in.mp4: audio decode failed", err.Error())
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, "cleanup error", CleanupError.String())
}
