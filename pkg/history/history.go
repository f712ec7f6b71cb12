package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry describes one transcription run.
type Entry struct {
	Time     time.Time
	Input    string
	Output   string
	Provider string
	Duration time.Duration // decoded audio length
	Chunks   int
	Failed   int
	Err      error
}

func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Time.Format("2006-01-02 15:04:05"), e.Input)
	if e.Provider != "" {
		fmt.Fprintf(&b, " via %s", e.Provider)
	}
	if e.Duration > 0 {
		fmt.Fprintf(&b, " (%s, %d chunks", e.Duration.Round(time.Second), e.Chunks)
		if e.Failed > 0 {
			fmt.Fprintf(&b, ", %d failed", e.Failed)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		// One line per run; tool output in errors often spans several.
		fmt.Fprintf(&b, ": FAILED: %s", strings.Join(strings.Fields(e.Err.Error()), " "))
	} else if e.Output != "" {
		fmt.Fprintf(&b, " -> %s", e.Output)
	}
	return b.String()
}

// Store is an append-only, human readable log of past runs.
type Store struct {
	historyFile string
}

// NewStore keeps the log in dir/HISTORY.md, creating dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	return &Store{historyFile: filepath.Join(dir, "HISTORY.md")}, nil
}

// Append adds e to the log. A zero Time is replaced by the current time.
func (s *Store) Append(e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	f, err := os.OpenFile(s.historyFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString("- " + e.String() + "\n")
	return err
}

// Tail returns the last n lines of the log, or all of it when n <= 0.
func (s *Store) Tail(n int) ([]string, error) {
	data, err := os.ReadFile(s.historyFile)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
