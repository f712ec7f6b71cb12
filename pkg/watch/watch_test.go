package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidscribe/pkg/transcript"
)

type recorder struct {
	calls []string
	fail  map[string]bool
}

func (r *recorder) run(_ context.Context, path string) error {
	r.calls = append(r.calls, filepath.Base(path))
	if r.fail[filepath.Base(path)] {
		return errors.New("decode error")
	}
	return transcript.Write(transcript.OutputPath(path), "text ")
}

type notices struct{ msgs []string }

func (n *notices) SendMessage(_ context.Context, content string) error {
	n.msgs = append(n.msgs, content)
	return nil
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestScan_TranscribesPendingMediaOnly(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.mp4")
	touch(t, dir, "a.mp3")
	touch(t, dir, "notes.txt")
	touch(t, dir, ".hidden.mp4")
	touch(t, dir, "done.mkv")
	require.NoError(t, transcript.Write(transcript.OutputPath(filepath.Join(dir, "done.mkv")), "old"))

	rec := &recorder{}
	s := NewService(dir, rec.run, WithSettle(0))

	got, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp3", "b.mp4"}, rec.calls)
	assert.Equal(t, []string{filepath.Join(dir, "a.mp3"), filepath.Join(dir, "b.mp4")}, got)

	// Everything now has a transcript.
	got, err = s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, rec.calls, 2)
}

func TestScan_FailedFileIsNotRetriedUntilModified(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "broken.avi")

	rec := &recorder{fail: map[string]bool{"broken.avi": true}}
	n := &notices{}
	s := NewService(dir, rec.run, WithSettle(0), WithNotifier(n))

	_, err := s.Scan(context.Background())
	require.NoError(t, err)
	_, err = s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"broken.avi"}, rec.calls)
	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "broken.avi")

	failures := s.Failures()
	require.Contains(t, failures, "broken.avi")
	assert.Equal(t, "decode error", failures["broken.avi"].Error)
	assert.FileExists(t, filepath.Join(dir, StateFile))

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	rec.fail = nil
	s.now = func() time.Time { return later.Add(time.Second) }

	_, err = s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"broken.avi", "broken.avi"}, rec.calls)
	assert.Empty(t, s.Failures())
}

func TestScan_StateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "broken.wav")

	rec := &recorder{fail: map[string]bool{"broken.wav": true}}
	_, err := NewService(dir, rec.run, WithSettle(0)).Scan(context.Background())
	require.NoError(t, err)

	restarted := NewService(dir, rec.run, WithSettle(0))
	_, err = restarted.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, rec.calls, 1)
}

func TestScan_NullStateFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "broken.mov")
	require.NoError(t, os.WriteFile(filepath.Join(dir, StateFile), []byte("null"), 0o644))

	rec := &recorder{fail: map[string]bool{"broken.mov": true}}
	s := NewService(dir, rec.run, WithSettle(0))

	require.NotPanics(t, func() {
		_, err := s.Scan(context.Background())
		require.NoError(t, err)
	})
	assert.Contains(t, s.Failures(), "broken.mov")
}

func TestScan_SkipsSettlingFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "recording.mp4")

	rec := &recorder{}
	s := NewService(dir, rec.run, WithSettle(time.Hour))

	got, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, rec.calls)
}

func TestScan_Canceled(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	_, err := NewService(dir, rec.run, WithSettle(0)).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.calls)
}

func TestScan_MissingDir(t *testing.T) {
	rec := &recorder{}
	_, err := NewService(filepath.Join(t.TempDir(), "nope"), rec.run).Scan(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStart_InvalidSchedule(t *testing.T) {
	rec := &recorder{}
	s := NewService(t.TempDir(), rec.run, WithSchedule("every now and then"))
	assert.Error(t, s.Start(context.Background()))
}

func TestStart_StopsWithContext(t *testing.T) {
	rec := &recorder{}
	s := NewService(t.TempDir(), rec.run, WithSchedule("@every 1h"))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	select {
	case <-s.Stop().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStart_EventsTriggerScan(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	s := NewService(dir, rec.run, WithSchedule("@every 1h"), WithSettle(0), WithEvents())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	path := touch(t, dir, "dropped.mp4")
	assert.Eventually(t, func() bool {
		_, err := os.Stat(transcript.OutputPath(path))
		return err == nil
	}, 10*time.Second, 50*time.Millisecond)
}
