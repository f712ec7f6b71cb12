package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
)

// Normalized audio format every chunk is written in.
const (
	SampleRate = 16000
	Channels   = 1
	BitDepth   = 16
)

var (
	// ErrFileNotFound is returned when the input path does not exist or is a directory.
	ErrFileNotFound = errors.New("file not found")

	// ErrDecode is returned when the input cannot be decoded or normalized.
	ErrDecode = errors.New("audio decode failed")
)

// MediaFile is the user-supplied input. It is validated once and never modified.
type MediaFile struct {
	Path string
}

// Open validates that path points at a regular file.
func Open(path string) (MediaFile, error) {
	m := MediaFile{Path: path}
	if !m.Exists() {
		return m, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return m, nil
}

// Exists reports whether the file is present and is not a directory.
func (m MediaFile) Exists() bool {
	fi, err := os.Stat(m.Path)
	if err != nil {
		return false
	}
	return !fi.IsDir()
}

// Ext returns the lower-cased extension without the leading dot.
func (m MediaFile) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(m.Path), "."))
}

// Name returns the file name without directory and extension.
func (m MediaFile) Name() string {
	base := filepath.Base(m.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// AudioBuffer is decoded PCM audio held in memory.
// Samples are interleaved when Channels > 1.
type AudioBuffer struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    []int
}

// Frames returns the number of sample frames.
func (b *AudioBuffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length of the buffer.
func (b *AudioBuffer) Duration() time.Duration {
	return framesToDuration(b.Frames(), b.SampleRate)
}

// Normalized reports whether the buffer is mono 16 kHz 16-bit.
func (b *AudioBuffer) Normalized() bool {
	return b.SampleRate == SampleRate && b.Channels == Channels && b.BitDepth == BitDepth
}

// Slice returns the frames in [start, end) sharing the underlying samples.
func (b *AudioBuffer) Slice(start, end int) *AudioBuffer {
	return &AudioBuffer{
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
		BitDepth:   b.BitDepth,
		Samples:    b.Samples[start*b.Channels : end*b.Channels],
	}
}

// IntBuffer converts to the go-audio representation used by the WAV encoder.
func (b *AudioBuffer) IntBuffer() *audio.IntBuffer {
	return &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: b.SampleRate, NumChannels: b.Channels},
		SourceBitDepth: b.BitDepth,
		Data:           b.Samples,
	}
}

func framesToDuration(frames, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(rate)
}

func durationToFrames(d time.Duration, rate int) int {
	return int(int64(d) * int64(rate) / int64(time.Second))
}
