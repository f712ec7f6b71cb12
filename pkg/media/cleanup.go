package media

import (
	"errors"
	"io/fs"
	"os"
)

// Cleanup deletes the chunk files. Files that no longer exist are skipped,
// so calling it twice is safe. Other failures are joined and returned.
func Cleanup(chunks []Chunk) error {
	return RemoveFiles(Paths(chunks)...)
}

// RemoveFiles deletes each path that exists.
func RemoveFiles(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Paths returns the file path of each chunk in order.
func Paths(chunks []Chunk) []string {
	paths := make([]string, len(chunks))
	for i, c := range chunks {
		paths[i] = c.Path
	}
	return paths
}
