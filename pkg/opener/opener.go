// Package opener presents a finished transcript to the user.
package opener

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Opener shows the file at path to the user, e.g. in a viewer or a chat.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// Func adapts a function to Opener.
type Func func(ctx context.Context, path string) error

func (f Func) Open(ctx context.Context, path string) error {
	return f(ctx, path)
}

// None does nothing.
type None struct{}

func (None) Open(context.Context, string) error { return nil }

// System opens files with the desktop's default application.
type System struct {
	GOOS  string
	start func(ctx context.Context, name string, args ...string) error
}

// NewSystem returns an opener for the running platform.
func NewSystem() *System {
	return &System{GOOS: runtime.GOOS, start: startDetached}
}

func (s *System) Open(ctx context.Context, path string) error {
	name, args := s.Command(path)
	if err := s.start(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to open %s with %s: %w", path, name, err)
	}
	return nil
}

// Command returns the program and arguments used to open path.
func (s *System) Command(path string) (string, []string) {
	switch s.GOOS {
	case "windows":
		// the empty argument is the window title expected by start
		return "cmd", []string{"/c", "start", "", path}
	case "darwin":
		return "open", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

func startDetached(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
