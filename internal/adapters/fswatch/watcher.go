// Package fswatch implements the change monitor on top of fsnotify.
//
// A single fsnotify watcher is shared by every stream. Directories are registered once
// and reference-counted; raw events are fanned out to the streams whose target covers
// them, and each stream debounces its own write signals.
package fswatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"

	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/logging"
	"github.com/example/stalker/internal/ports/secondary"
)

// DefaultDebounce is the window used when Options.Debounce is not set.
const DefaultDebounce = 5 * time.Second

var errWatcherClosed = errors.New("watcher is closed")

// Options controls watcher behavior.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher implements secondary.ChangeWatcher.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	mutex   sync.Mutex
	streams map[*stream]struct{}
	dirRefs map[string]int
	closed  bool
	done    chan struct{}
}

// New creates a Watcher and starts its event loop.
func New(opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	w := &Watcher{
		fs:       fsw,
		debounce: debounce,
		logger:   logger.With("component", "watcher"),
		streams:  make(map[*stream]struct{}),
		dirRefs:  make(map[string]int),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Watch establishes a monitor for target, which may start with "~". A missing or
// unreadable target fails with WatchSetupFailure. The stream is closed when ctx is done.
func (w *Watcher) Watch(ctx context.Context, target string, recursive bool) (secondary.ChangeStream, error) {
	expanded, err := homedir.Expand(target)
	if err != nil {
		return nil, outcome.New(outcome.KindWatchSetupFailure, "watch", target, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, outcome.New(outcome.KindWatchSetupFailure, "watch", target, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, outcome.New(outcome.KindWatchSetupFailure, "watch", target, err)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, outcome.New(outcome.KindWatchSetupFailure, "watch", target, err)
	}
	f.Close()

	s := newStream(w, target, abs, info.IsDir(), recursive)

	dirs := []string{filepath.Dir(abs)}
	if info.IsDir() {
		dirs = []string{abs}
		if recursive {
			dirs = append(dirs, collectSubdirs(abs)...)
		}
	}

	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return nil, outcome.New(outcome.KindWatchSetupFailure, "watch", target, errWatcherClosed)
	}
	w.streams[s] = struct{}{}
	w.mutex.Unlock()

	for i, dir := range dirs {
		if err := w.acquire(dir); err != nil {
			// sub-directories may vanish between the walk and the add
			if i > 0 {
				w.logger.Debug("skipping sub-directory", "path", dir, "error", err)
				continue
			}
			s.Close()
			return nil, outcome.New(outcome.KindWatchSetupFailure, "watch", target, err)
		}
		s.addDir(dir)
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	w.logger.Debug("watch added", "target", target, "dirs", len(dirs), "recursive", recursive && info.IsDir())
	return s, nil
}

// Close shuts down the watcher and every open stream.
func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return nil
	}
	w.closed = true
	streams := make([]*stream, 0, len(w.streams))
	for s := range w.streams {
		streams = append(streams, s)
	}
	w.mutex.Unlock()

	close(w.done)
	for _, s := range streams {
		s.Close()
	}
	return w.fs.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				w.loseAll(errors.New("event channel closed"))
				return
			}
			w.dispatch(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				w.loseAll(errors.New("error channel closed"))
				return
			}
			// overflow and similar errors do not end the watch
			w.logger.Warn("fsnotify error", "error", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) dispatch(event fsnotify.Event) {
	streams := w.snapshot()

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			for _, s := range streams {
				if s.recursive && s.isDir && s.covers(event.Name) {
					w.follow(s, event.Name)
				}
			}
		}
	}

	for _, s := range streams {
		s.handle(event)
	}
}

// follow registers a directory created under a recursive stream, plus anything that
// was created inside it before the watch was in place.
func (w *Watcher) follow(s *stream, dir string) {
	for _, path := range append([]string{dir}, collectSubdirs(dir)...) {
		if err := w.acquire(path); err != nil {
			w.logger.Debug("cannot follow new directory", "path", path, "error", err)
			continue
		}
		s.addDir(path)
	}
}

func (w *Watcher) snapshot() []*stream {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	streams := make([]*stream, 0, len(w.streams))
	for s := range w.streams {
		streams = append(streams, s)
	}
	return streams
}

func (w *Watcher) loseAll(err error) {
	w.mutex.Lock()
	closed := w.closed
	w.mutex.Unlock()
	if closed {
		return
	}
	for _, s := range w.snapshot() {
		s.lose(outcome.New(outcome.KindWatchLost, "watch", s.target, err))
	}
}

// acquire adds dir to fsnotify on first use and counts further users.
func (w *Watcher) acquire(dir string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return errWatcherClosed
	}
	if w.dirRefs[dir] > 0 {
		w.dirRefs[dir]++
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.dirRefs[dir] = 1
	return nil
}

func (w *Watcher) detach(s *stream, dirs []string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	delete(w.streams, s)
	if w.closed {
		return
	}
	for _, dir := range dirs {
		count := w.dirRefs[dir]
		if count > 1 {
			w.dirRefs[dir] = count - 1
			continue
		}
		delete(w.dirRefs, dir)
		if err := w.fs.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			w.logger.Debug("watch remove failed", "path", dir, "error", err)
		}
	}
}

func collectSubdirs(root string) []string {
	var dirs []string
	filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() || path == root {
			return nil
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs
}

// Ensure Watcher implements the interface
var _ secondary.ChangeWatcher = (*Watcher)(nil)
