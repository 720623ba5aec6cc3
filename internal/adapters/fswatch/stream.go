package fswatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/ports/secondary"
)

var errStreamClosed = errors.New("stream closed")

// stream is the per-target event stream handed to one watch unit.
type stream struct {
	watcher   *Watcher
	target    string // as given by the caller
	abs       string // cleaned absolute form used for matching
	root      string // directory whose own watch the stream depends on
	isDir     bool
	recursive bool

	mutex     sync.Mutex
	dirs      []string // directories registered on behalf of this stream
	debouncer *debouncer
	queue     []secondary.ChangeEvent
	err       error
	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newStream(w *Watcher, target, abs string, isDir, recursive bool) *stream {
	root := abs
	if !isDir {
		root = filepath.Dir(abs)
	}
	return &stream{
		watcher:   w,
		target:    target,
		abs:       abs,
		root:      root,
		isDir:     isDir,
		recursive: recursive,
		debouncer: newDebouncer(w.debounce),
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Next blocks until an event is flushed, the monitor is lost, or ctx is done.
// Queued events are delivered before a loss is reported.
func (s *stream) Next(ctx context.Context) (secondary.ChangeEvent, error) {
	for {
		s.mutex.Lock()
		if len(s.queue) > 0 {
			event := s.queue[0]
			s.queue = s.queue[1:]
			s.mutex.Unlock()
			return event, nil
		}
		if s.err != nil {
			err := s.err
			s.mutex.Unlock()
			return secondary.ChangeEvent{}, err
		}
		s.mutex.Unlock()

		select {
		case <-s.notify:
		case <-ctx.Done():
			return secondary.ChangeEvent{}, ctx.Err()
		case <-s.done:
			if err := ctx.Err(); err != nil {
				return secondary.ChangeEvent{}, err
			}
			return secondary.ChangeEvent{}, errStreamClosed
		}
	}
}

// Close detaches the stream from the watcher and drops anything pending.
func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		s.mutex.Lock()
		s.debouncer.stop()
		s.queue = nil
		dirs := s.dirs
		s.dirs = nil
		s.mutex.Unlock()

		close(s.done)
		s.watcher.detach(s, dirs)
	})
	return nil
}

// covers reports whether a raw signal for path belongs to this stream.
func (s *stream) covers(path string) bool {
	if path == s.abs {
		return true
	}
	return s.recursive && s.isDir && strings.HasPrefix(path, s.abs+string(filepath.Separator))
}

// handle matches one raw event. Removing or recreating a file target is not
// actionable: the parent directory stays watched and later writes to the same path
// still count. Only losing the watched directory itself ends the stream.
func (s *stream) handle(event fsnotify.Event) {
	if event.Name == s.root && (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
		s.lose(outcome.New(outcome.KindWatchLost, "watch", s.target, fmt.Errorf("%s was removed or renamed", s.root)))
		return
	}
	if !event.Has(fsnotify.Write) || !s.covers(event.Name) {
		return
	}

	s.mutex.Lock()
	if s.err != nil || s.isClosed() {
		s.mutex.Unlock()
		return
	}
	coalesced := s.debouncer.schedule(event.Name, s.flush)
	s.mutex.Unlock()

	s.watcher.logger.Debug("write signal", "target", s.target, "path", event.Name, "coalesced", coalesced)
}

func (s *stream) flush(gen uint64) {
	s.mutex.Lock()
	path, count, ok := s.debouncer.pop(gen)
	if !ok || s.isClosed() {
		s.mutex.Unlock()
		return
	}
	if path == s.abs {
		path = s.target
	}
	event := secondary.ChangeEvent{
		ID:        uuid.NewString(),
		Target:    s.target,
		Path:      path,
		Coalesced: count,
		At:        time.Now(),
	}
	s.queue = append(s.queue, event)
	s.mutex.Unlock()

	s.wake()
	s.watcher.logger.Debug("change event flushed", "id", event.ID, "target", s.target, "path", path, "signals", count)
}

// lose ends the stream with err once the queue is drained.
func (s *stream) lose(err error) {
	s.mutex.Lock()
	if s.err != nil {
		s.mutex.Unlock()
		return
	}
	s.err = err
	s.debouncer.stop()
	s.mutex.Unlock()

	s.wake()
	s.watcher.logger.Warn("watch lost", "target", s.target, "error", err)
}

func (s *stream) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *stream) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *stream) addDir(dir string) {
	s.mutex.Lock()
	s.dirs = append(s.dirs, dir)
	s.mutex.Unlock()
}

// Ensure stream implements the interface
var _ secondary.ChangeStream = (*stream)(nil)
