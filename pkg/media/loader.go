package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
	"github.com/mudler/xlog"
)

// Loader decodes a media file into a normalized AudioBuffer.
type Loader struct {
	ffmpeg *FFmpeg
	tmpDir string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithRunner replaces the command runner used to invoke ffmpeg.
func WithRunner(r Runner) LoaderOption {
	return func(l *Loader) {
		l.ffmpeg.runner = r
	}
}

// WithFFmpegPath sets the ffmpeg binary.
func WithFFmpegPath(path string) LoaderOption {
	return func(l *Loader) {
		if path != "" {
			l.ffmpeg.Path = path
		}
	}
}

// WithTempDir sets where the intermediate normalized file is written.
func WithTempDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.tmpDir = dir
	}
}

// NewLoader creates a Loader backed by ffmpeg.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{ffmpeg: NewFFmpeg("", nil)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load decodes m and returns mono 16 kHz 16-bit audio. The input format is
// chosen from the file extension; files without one are sniffed.
func (l *Loader) Load(ctx context.Context, m MediaFile) (*AudioBuffer, error) {
	format := m.Ext()
	if format == "" {
		format = sniffFormat(m.Path)
	}

	if format == "wav" && isNormalizedWAV(m.Path) {
		xlog.Debug("input already normalized, skipping ffmpeg", "path", m.Path)
		buf, err := ReadWAV(m.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return buf, nil
	}

	dir, err := os.MkdirTemp(l.tmpDir, "vidscribe-decode-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create decode dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dst := filepath.Join(dir, m.Name()+"_16k.wav")
	xlog.Debug("normalizing audio", "src", m.Path, "format", format, "dst", dst)
	if err := l.ffmpeg.Normalize(ctx, m.Path, dst, Demuxer(format)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	buf, err := ReadWAV(dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if !buf.Normalized() {
		return nil, fmt.Errorf("%w: got %d Hz, %d channel(s), %d-bit", ErrDecode, buf.SampleRate, buf.Channels, buf.BitDepth)
	}
	return buf, nil
}

// sniffFormat identifies common audio containers from their header.
func sniffFormat(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	_, fileType, err := tag.Identify(f)
	if err != nil {
		return ""
	}
	switch fileType {
	case tag.MP3:
		return "mp3"
	case tag.FLAC:
		return "flac"
	case tag.OGG:
		return "ogg"
	case tag.M4A, tag.M4B, tag.M4P, tag.ALAC:
		return "m4a"
	default:
		return ""
	}
}
