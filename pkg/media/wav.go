package media

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ReadWAV decodes a PCM WAV file into an AudioBuffer.
func ReadWAV(path string) (*AudioBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid wav file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read pcm data: %w", err)
	}
	return &AudioBuffer{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Samples:    buf.Data,
	}, nil
}

// WriteWAV encodes buf as a PCM WAV file at path, replacing any existing file.
func WriteWAV(path string, buf *AudioBuffer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	// 1 = PCM
	enc := wav.NewEncoder(f, buf.SampleRate, buf.BitDepth, buf.Channels, 1)
	if err := enc.Write(buf.IntBuffer()); err != nil {
		return fmt.Errorf("failed to write pcm data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return nil
}

// isNormalizedWAV reports whether path is a valid WAV already in the
// normalized format, so the ffmpeg pass can be skipped.
func isNormalizedWAV(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return false
	}
	return d.BitDepth == BitDepth && d.NumChans == Channels && d.SampleRate == SampleRate
}
