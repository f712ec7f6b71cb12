package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind int

const (
	// UsageError: missing or invalid arguments.
	UsageError Kind = iota + 1
	// InputNotFound: the input path does not exist.
	InputNotFound
	// DecodeError: the input could not be decoded or segmented.
	DecodeError
	// TranscriptionError: a chunk failed under the abort policy, or the run was canceled.
	TranscriptionError
	// WriteError: the transcript could not be written.
	WriteError
	// CleanupError: temporary files could not be removed. Never fatal.
	CleanupError
)

func (k Kind) String() string {
	switch k {
	case UsageError:
		return "usage error"
	case InputNotFound:
		return "input not found"
	case DecodeError:
		return "decode error"
	case TranscriptionError:
		return "transcription error"
	case WriteError:
		return "write error"
	case CleanupError:
		return "cleanup error"
	default:
		return "unknown error"
	}
}

// Error is returned by Pipeline.Run for every fatal failure.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 if err is not a pipeline error.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return 0
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
