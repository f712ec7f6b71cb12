package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mudler/xlog"
	"github.com/robfig/cron/v3"

	"vidscribe/pkg/media"
	"vidscribe/pkg/transcript"
)

const (
	// StateFile is kept inside the watched directory.
	StateFile = ".vidscribe-watch.json"
	// DefaultSchedule is used when no schedule is given.
	DefaultSchedule = "@every 1m"
	// DefaultSettle is how long a file must be left untouched before it is picked up.
	DefaultSettle = 10 * time.Second

	// eventDelay is added to the settle time before a change triggers a scan.
	eventDelay = 500 * time.Millisecond
)

// RunFunc transcribes a single media file.
type RunFunc func(ctx context.Context, path string) error

// Notifier receives a short notice when a file fails.
type Notifier interface {
	SendMessage(ctx context.Context, content string) error
}

// Failure records a file that could not be transcribed.
type Failure struct {
	ModTime time.Time `json:"mod_time"`
	Error   string    `json:"error"`
}

// Service scans a directory on a cron schedule and transcribes new media.
type Service struct {
	mu         sync.Mutex
	dir        string
	schedule   string
	settle     time.Duration
	events     bool
	run        RunFunc
	notifier   Notifier
	failures   map[string]*Failure
	loaded     sync.Once
	stateFile  string
	cronRunner *cron.Cron
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSchedule sets the robfig cron expression, e.g. "@every 30s" or "*/5 * * * *".
func WithSchedule(expr string) Option {
	return func(s *Service) {
		if expr != "" {
			s.schedule = expr
		}
	}
}

// WithSettle sets how long a file must be unmodified before it is processed.
func WithSettle(d time.Duration) Option {
	return func(s *Service) {
		s.settle = d
	}
}

// WithEvents also scans shortly after a media file in the directory is
// created or written, instead of only on the schedule.
func WithEvents() Option {
	return func(s *Service) {
		s.events = true
	}
}

// WithNotifier reports failures to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// NewService creates a Service for dir backed by dir/.vidscribe-watch.json.
func NewService(dir string, run RunFunc, opts ...Option) *Service {
	s := &Service{
		dir:       dir,
		schedule:  DefaultSchedule,
		settle:    DefaultSettle,
		run:       run,
		failures:  make(map[string]*Failure),
		stateFile: filepath.Join(dir, StateFile),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cronRunner = cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{})))
	return s
}

// Start begins the scheduler. The scheduler stops when ctx is canceled;
// use Stop to wait for a running scan.
func (s *Service) Start(ctx context.Context) error {
	id, err := s.cronRunner.AddFunc(s.schedule, func() {
		if _, err := s.Scan(ctx); err != nil {
			xlog.Error("watch scan failed", "dir", s.dir, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}

	if s.events {
		// WrappedJob carries SkipIfStillRunning, so event scans never overlap scheduled ones.
		if err := s.watchEvents(ctx, s.cronRunner.Entry(id).WrappedJob); err != nil {
			return err
		}
	}

	s.cronRunner.Start()
	xlog.Info("watching directory", "dir", s.dir, "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.cronRunner.Stop()
	}()
	return nil
}

func (s *Service) watchEvents(ctx context.Context, job cron.Job) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("unable to watch %s: %w", s.dir, err)
	}

	debounce := time.AfterFunc(time.Hour, job.Run)
	debounce.Stop()

	go func() {
		defer watcher.Close()
		defer debounce.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write | fsnotify.Create) {
					continue
				}
				name := filepath.Base(event.Name)
				ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
				if strings.HasPrefix(name, ".") || !media.Supported(ext) {
					continue
				}
				xlog.Debug("media file changed", "path", event.Name)
				debounce.Reset(s.settle + eventDelay)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				xlog.Warn("file watcher error", "dir", s.dir, "error", err)
			}
		}
	}()
	return nil
}

// Stop halts the scheduler. The returned context is done once any running
// scan has finished.
func (s *Service) Stop() context.Context {
	return s.cronRunner.Stop()
}

// Scan processes every pending media file in the directory once, in name
// order, and returns the paths that were transcribed.
func (s *Service) Scan(ctx context.Context) ([]string, error) {
	s.loaded.Do(s.restore)

	pending, err := s.pending()
	if err != nil {
		return nil, err
	}

	var done []string
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		xlog.Info("transcribing new file", "path", p.path)
		if err := s.run(ctx, p.path); err != nil {
			if ctx.Err() != nil {
				return done, ctx.Err()
			}
			s.recordFailure(ctx, p, err)
			continue
		}
		s.clearFailure(p.name)
		done = append(done, p.path)
	}
	return done, nil
}

// Failures returns a copy of the recorded failures keyed by file name.
func (s *Service) Failures() map[string]Failure {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Failure, len(s.failures))
	for name, f := range s.failures {
		out[name] = *f
	}
	return out
}

type candidate struct {
	name    string
	path    string
	modTime time.Time
}

func (s *Service) pending() ([]candidate, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
		if !media.Supported(ext) {
			continue
		}
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(transcript.OutputPath(path)); err == nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if s.now().Sub(info.ModTime()) < s.settle {
			xlog.Debug("file still settling", "path", path)
			continue
		}
		if f, ok := s.failures[name]; ok && f.ModTime.Equal(info.ModTime()) {
			continue
		}
		out = append(out, candidate{name: name, path: path, modTime: info.ModTime()})
	}
	return out, nil
}

func (s *Service) recordFailure(ctx context.Context, c candidate, err error) {
	xlog.Error("transcription failed", "path", c.path, "error", err)

	s.mu.Lock()
	s.failures[c.name] = &Failure{ModTime: c.modTime, Error: err.Error()}
	serr := s.save()
	s.mu.Unlock()
	if serr != nil {
		xlog.Warn("could not save watch state", "path", s.stateFile, "error", serr)
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("⚠️ Transcription of %s failed: %v", c.name, err)
		if nerr := s.notifier.SendMessage(ctx, msg); nerr != nil {
			xlog.Warn("could not send failure notice", "error", nerr)
		}
	}
}

func (s *Service) clearFailure(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.failures[name]; !ok {
		return
	}
	delete(s.failures, name)
	if err := s.save(); err != nil {
		xlog.Warn("could not save watch state", "path", s.stateFile, "error", err)
	}
}

func (s *Service) restore() {
	if err := s.load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		xlog.Warn("could not read watch state, starting fresh", "path", s.stateFile, "error", err)
	}
}

// load reads the state file from disk.
func (s *Service) load() error {
	data, err := os.ReadFile(s.stateFile)
	if err != nil {
		return err
	}

	failures := make(map[string]*Failure)
	if err := json.Unmarshal(data, &failures); err != nil {
		return err
	}
	// A "null" document decodes to a nil map.
	if failures == nil {
		failures = make(map[string]*Failure)
	}

	s.mu.Lock()
	s.failures = failures
	s.mu.Unlock()
	return nil
}

// save writes the failures to the state file (must hold mu).
func (s *Service) save() error {
	data, err := json.MarshalIndent(s.failures, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.stateFile, data, 0o644)
}

// cronLogger routes robfig/cron messages to xlog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	xlog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	xlog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
