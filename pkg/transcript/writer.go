package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Suffix is appended to the input's base name to form the transcript file name.
const Suffix = "_transcription.txt"

// OutputPath returns the transcript path for input: same directory, base
// name without extension, plus Suffix. Leading dots are part of the name,
// so ".mp4" keeps its whole base name.
func OutputPath(input string) string {
	base := filepath.Base(input)
	name := base
	if trimmed := strings.TrimLeft(base, "."); trimmed != "" {
		dots := base[:len(base)-len(trimmed)]
		name = dots + strings.TrimSuffix(trimmed, filepath.Ext(trimmed))
	}
	return filepath.Join(filepath.Dir(input), name+Suffix)
}

// Write stores text at path as UTF-8, replacing any existing file.
func Write(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}
