// Package watcher re-runs organize on a folder when new files land in it.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tidy/internal/config"
)

// Config contains watcher settings.
type Config struct {
	Debounce        time.Duration // quiet period per file before it counts
	StableThreshold time.Duration // size and mtime must hold this long
	IgnorePatterns  []string
}

// FromConfig converts the [watch] section of the config file.
func FromConfig(c config.WatchConfig) Config {
	return Config{
		Debounce:        time.Duration(c.DebounceSeconds) * time.Second,
		StableThreshold: time.Duration(c.StableThresholdMs) * time.Millisecond,
		IgnorePatterns:  c.IgnorePatterns,
	}
}

// RunFunc organizes the watched folder and returns how many files it moved.
type RunFunc func(ctx context.Context) (moved int, err error)

// Summary contains stats from the watch session.
type Summary struct {
	Runs           int
	FilesOrganized int
	FilesIgnored   int
	Failures       int
	Duration       time.Duration
}

// Watcher monitors one folder's top level. Each new regular file is
// debounced and checked for stability, then a full organize run is
// requested. Requests that arrive while a run is in progress collapse
// into one follow-up run.
type Watcher struct {
	cfg       Config
	run       RunFunc
	filter    *Filter
	stability *StabilityChecker
	debouncer *Debouncer
	logger    *slog.Logger

	folder    string
	fsWatcher *fsnotify.Watcher
	trigger   chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startTime time.Time

	mu      sync.Mutex
	summary Summary
}

// New creates a Watcher. A nil logger discards.
func New(cfg Config, run RunFunc, logger *slog.Logger) (*Watcher, error) {
	filter, err := NewFilter(cfg.IgnorePatterns)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &Watcher{
		cfg:       cfg,
		run:       run,
		filter:    filter,
		stability: NewStabilityChecker(cfg.StableThreshold),
		logger:    logger,
		trigger:   make(chan struct{}, 1),
	}
	return w, nil
}

// Start begins watching folder. It returns once the watch is registered;
// call Stop to end the session.
func (w *Watcher) Start(ctx context.Context, folder string) error {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(abs); err != nil {
		fsw.Close()
		return fmt.Errorf("watching %s: %w", abs, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.folder = abs
	w.fsWatcher = fsw
	w.cancel = cancel
	w.startTime = time.Now()
	w.debouncer = NewDebouncer(w.cfg.Debounce, func(path string) { w.settle(ctx, path) })

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.runLoop(ctx)

	w.logger.Info("watching", "folder", abs, "debounce", w.cfg.Debounce, "ignore", w.filter.Patterns())
	return nil
}

// Stop shuts the watcher down, waits for an in-flight run to finish, and
// returns the session summary.
func (w *Watcher) Stop() *Summary {
	if w.cancel != nil {
		w.cancel()
	}
	if w.debouncer != nil {
		w.debouncer.Stop()
	}
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.summary
	s.Duration = time.Since(w.startTime)
	return &s
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// Renames out of the folder and removals are our own moves.
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.handleEvent(ev.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "folder", w.folder, "error", err)
		}
	}
}

func (w *Watcher) handleEvent(path string) {
	if filepath.Dir(path) != w.folder {
		return
	}
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		// Gone already, or a category directory the organizer just made.
		return
	}
	if w.filter.Ignored(path) {
		w.mu.Lock()
		w.summary.FilesIgnored++
		w.mu.Unlock()
		w.logger.Debug("ignored", "file", path)
		return
	}
	w.debouncer.Add(path)
}

// settle runs on the debouncer's goroutine once path has gone quiet.
func (w *Watcher) settle(ctx context.Context, path string) {
	err := w.stability.Wait(ctx, path)
	switch {
	case err == nil:
		w.requestRun()
	case errors.Is(err, ErrFileGone), errors.Is(err, context.Canceled):
	default:
		w.logger.Warn("file not stable, will retry on next change", "file", path, "error", err)
	}
}

func (w *Watcher) requestRun() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) runLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
		}
		moved, err := w.run(ctx)

		w.mu.Lock()
		w.summary.Runs++
		w.summary.FilesOrganized += moved
		if err != nil {
			w.summary.Failures++
		}
		w.mu.Unlock()

		if err != nil {
			w.logger.Error("organize run failed", "folder", w.folder, "error", err)
		} else {
			w.logger.Info("organize run finished", "folder", w.folder, "moved", moved)
		}
	}
}
