package transcript

import (
	"errors"
	"fmt"
	"strings"

	"vidscribe/pkg/media"
)

// Delimiter follows every segment when the transcript is assembled.
const Delimiter = " "

// ErrChunkFailed is returned under FailAbort when a chunk cannot be transcribed.
var ErrChunkFailed = errors.New("chunk transcription failed")

// FailurePolicy decides what a failed chunk contributes to the transcript.
type FailurePolicy int

const (
	// FailSkip omits the failed chunk's text.
	FailSkip FailurePolicy = iota
	// FailPlaceholder inserts a marker naming the missing chunk.
	FailPlaceholder
	// FailAbort stops transcription at the first failed chunk.
	FailAbort
)

// ParseFailurePolicy accepts "skip", "placeholder" or "abort".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return FailSkip, nil
	case "placeholder":
		return FailPlaceholder, nil
	case "abort":
		return FailAbort, nil
	default:
		return FailSkip, fmt.Errorf("unknown chunk failure policy %q (want skip, placeholder or abort)", s)
	}
}

func (p FailurePolicy) String() string {
	switch p {
	case FailPlaceholder:
		return "placeholder"
	case FailAbort:
		return "abort"
	default:
		return "skip"
	}
}

// ChunkResult is the outcome of transcribing one chunk.
type ChunkResult struct {
	Chunk media.Chunk
	Text  string
	Err   error

	// AmbientDBFS is the RMS level of the chunk's first second, in dBFS.
	AmbientDBFS float64
}

// OK reports whether the chunk was transcribed.
func (r ChunkResult) OK() bool {
	return r.Err == nil
}

// Transcript holds one result per processed chunk in chunk order.
type Transcript struct {
	Results []ChunkResult
}

// Segments returns the text contributed by each chunk under policy.
func (t *Transcript) Segments(policy FailurePolicy) []string {
	segs := make([]string, 0, len(t.Results))
	for _, r := range t.Results {
		switch {
		case r.OK():
			segs = append(segs, r.Text)
		case policy == FailPlaceholder:
			segs = append(segs, fmt.Sprintf("[chunk %d untranscribed]", r.Chunk.Index+1))
		}
	}
	return segs
}

// Text concatenates the segments, each followed by Delimiter.
func (t *Transcript) Text(policy FailurePolicy) string {
	var b strings.Builder
	for _, s := range t.Segments(policy) {
		b.WriteString(s)
		b.WriteString(Delimiter)
	}
	return b.String()
}

// Failed returns the results of chunks that could not be transcribed.
func (t *Transcript) Failed() []ChunkResult {
	var failed []ChunkResult
	for _, r := range t.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}
