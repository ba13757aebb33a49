// Package partwatch discovers dump part files as they appear in a
// directory, for conversions that run while parts are still being
// downloaded or decompressed.
//
// A filesystem watcher triggers a debounced directory sweep, and a poll
// ticker backstops filesystems without notification support. Every sweep
// reports unseen files matching the pattern in name order, so discovery
// order is stable for files that already exist when the sweep runs.
package partwatch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Config holds the watcher's tunables.
type Config struct {
	// Dir is the directory to watch.
	Dir string

	// Pattern is the file name pattern (filepath.Match syntax) a part must
	// match. Default: "*.xml".
	Pattern string

	// PollInterval is the sweep interval when no events arrive.
	// Default: 30 seconds.
	PollInterval time.Duration

	// Debounce is the delay between a filesystem event and the sweep it
	// triggers, giving the writer time to finish the file.
	// Default: 500 milliseconds.
	Debounce time.Duration
}

// Watcher reports new part files in a directory.
type Watcher struct {
	dir      string
	pattern  string
	poll     time.Duration
	debounce time.Duration
	log      zerolog.Logger
	seen     map[string]bool
}

// New creates a watcher with the given configuration, applying defaults for
// zero values.
func New(cfg Config, log zerolog.Logger) *Watcher {
	if cfg.Pattern == "" {
		cfg.Pattern = "*.xml"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	return &Watcher{
		dir:      cfg.Dir,
		pattern:  cfg.Pattern,
		poll:     cfg.PollInterval,
		debounce: cfg.Debounce,
		log:      log,
		seen:     make(map[string]bool),
	}
}

// MarkSeen records paths that must not be reported again, typically the
// parts already converted before the watcher starts.
func (w *Watcher) MarkSeen(paths ...string) {
	for _, p := range paths {
		w.seen[p] = true
	}
}

// Run watches until the context ends, calling handle once for every new
// matching part. It returns the context's error on cancellation, a sweep
// error, or the first error handle returns.
func (w *Watcher) Run(ctx context.Context, handle func(path string) error) error {
	// Catch up on parts that arrived before the watcher.
	if err := w.sweep(handle); err != nil {
		return err
	}

	var events chan fsnotify.Event
	var errs chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Warn().Err(err).Msg("filesystem watcher unavailable, falling back to polling")
	} else {
		defer watcher.Close()
		if err := watcher.Add(w.dir); err != nil {
			w.log.Warn().Err(err).Str("dir", w.dir).Msg("cannot watch parts directory, falling back to polling")
		} else {
			events, errs = watcher.Events, watcher.Errors
		}
	}

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if match, _ := filepath.Match(w.pattern, filepath.Base(ev.Name)); !match {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.debounce)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.log.Warn().Err(err).Msg("part watcher error")

		case <-debounce.C:
			if err := w.sweep(handle); err != nil {
				return err
			}

		case <-ticker.C:
			if err := w.sweep(handle); err != nil {
				return err
			}
		}
	}
}

// sweep reports all unseen matching files in name order.
func (w *Watcher) sweep(handle func(path string) error) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match, err := filepath.Match(w.pattern, e.Name())
		if err != nil {
			return err
		}
		path := filepath.Join(w.dir, e.Name())
		if !match || w.seen[path] {
			continue
		}
		w.log.Info().Str("part", path).Msg("new part discovered")
		if err := handle(path); err != nil {
			return err
		}
		w.seen[path] = true
	}
	return nil
}
