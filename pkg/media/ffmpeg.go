package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// demuxers maps file extensions to the ffmpeg input format that reads them.
// Extensions not listed here are left for ffmpeg to probe.
var demuxers = map[string]string{
	"mp4":  "mp4",
	"m4a":  "mp4",
	"m4b":  "mp4",
	"mov":  "mov",
	"3gp":  "3gp",
	"mkv":  "matroska",
	"webm": "webm",
	"avi":  "avi",
	"flv":  "flv",
	"wmv":  "asf",
	"wma":  "asf",
	"ts":   "mpegts",
	"mp3":  "mp3",
	"wav":  "wav",
	"flac": "flac",
	"ogg":  "ogg",
	"oga":  "ogg",
	"opus": "ogg",
	"aac":  "aac",
}

// Demuxer returns the ffmpeg input format for a file extension, or "" when
// ffmpeg should detect it.
func Demuxer(ext string) string {
	return demuxers[ext]
}

// Supported reports whether ext names a container vidscribe knows how to read.
func Supported(ext string) bool {
	_, ok := demuxers[ext]
	return ok
}

// FFmpeg converts arbitrary media into normalized WAV.
type FFmpeg struct {
	Path   string
	runner Runner
}

// NewFFmpeg returns an FFmpeg using the binary at path ("ffmpeg" when empty).
func NewFFmpeg(path string, runner Runner) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &FFmpeg{Path: path, runner: runner}
}

// Normalize writes src to dst as mono 16 kHz 16-bit PCM WAV.
// format forces the input demuxer when non-empty.
func (f *FFmpeg) Normalize(ctx context.Context, src, dst, format string) error {
	args := []string{"-y", "-nostdin", "-loglevel", "error"}
	if format != "" {
		args = append(args, "-f", format)
	}
	args = append(args,
		"-i", src,
		"-vn",
		"-ac", strconv.Itoa(Channels),
		"-ar", strconv.Itoa(SampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		dst,
	)
	out, err := f.runner.Run(ctx, f.Path, args...)
	if err != nil {
		return fmt.Errorf("ffmpeg: %w out: %s", err, out)
	}
	return nil
}
