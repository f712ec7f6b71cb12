package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
)

// DefaultSegmentLength is the longest chunk sent to a provider in one call.
const DefaultSegmentLength = 60 * time.Second

// Chunk is a slice of the normalized audio persisted to a temporary file.
// The caller owns the file and must pass it to Cleanup.
type Chunk struct {
	Path  string
	Index int // zero-based, ascending in time
	Start time.Duration
	End   time.Duration
}

// Duration returns the length of the chunk.
func (c Chunk) Duration() time.Duration {
	return c.End - c.Start
}

func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d [%s-%s)", c.Index+1, c.Start, c.End)
}

// Segmenter splits an AudioBuffer into fixed-length chunk files.
type Segmenter struct {
	Length time.Duration
	Dir    string
	Prefix string
}

// NewSegmenter returns a Segmenter writing into dir (the system temp dir when
// empty). Every Segmenter gets its own file prefix so concurrent runs never
// share chunk files.
func NewSegmenter(dir string, length time.Duration) *Segmenter {
	if dir == "" {
		dir = os.TempDir()
	}
	if length <= 0 {
		length = DefaultSegmentLength
	}
	return &Segmenter{
		Length: length,
		Dir:    dir,
		Prefix: "vidscribe_" + uuid.NewString(),
	}
}

// Split writes buf as consecutive chunks no longer than s.Length and returns
// them in time order. The last chunk is truncated, never padded. On error any
// chunk already written is removed.
func (s *Segmenter) Split(buf *AudioBuffer) ([]Chunk, error) {
	per := durationToFrames(s.Length, buf.SampleRate)
	if per <= 0 {
		return nil, fmt.Errorf("segment length %s is shorter than one frame", s.Length)
	}

	spans := plan(buf.Frames(), per)
	if len(spans) > 1 {
		xlog.Info("audio longer than segment length, splitting", "duration", buf.Duration(), "segments", len(spans))
	}

	chunks := make([]Chunk, 0, len(spans))
	for i, sp := range spans {
		c := Chunk{
			Path:  filepath.Join(s.Dir, fmt.Sprintf("%s_part%d.wav", s.Prefix, i+1)),
			Index: i,
			Start: framesToDuration(sp.start, buf.SampleRate),
			End:   framesToDuration(sp.end, buf.SampleRate),
		}
		if err := WriteWAV(c.Path, buf.Slice(sp.start, sp.end)); err != nil {
			chunks = append(chunks, c)
			return nil, errors.Join(fmt.Errorf("failed to write %s: %w", c, err), Cleanup(chunks))
		}
		xlog.Debug("created chunk", "path", c.Path, "start", c.Start, "end", c.End)
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// span is a half-open frame range.
type span struct {
	start, end int
}

// plan partitions [0, frames) into ceil(frames/per) spans of at most per
// frames. A buffer no longer than per yields exactly one span.
func plan(frames, per int) []span {
	if frames <= per {
		return []span{{0, frames}}
	}
	n := (frames + per - 1) / per
	spans := make([]span, n)
	for i := range spans {
		spans[i] = span{start: i * per, end: min((i+1)*per, frames)}
	}
	return spans
}
