package fswatch

import "time"

// debouncer folds raw signals into one pending event per stream. Every schedule call
// restarts the window; a flush fires only for the latest generation, so a timer that
// fired while a newer signal was being scheduled is ignored.
// It is not safe for concurrent use; the owning stream guards it.
type debouncer struct {
	duration time.Duration
	timer    *time.Timer
	path     string
	count    int
	gen      uint64
}

func newDebouncer(duration time.Duration) *debouncer {
	return &debouncer{duration: duration}
}

// schedule records a signal for path and (re)starts the window. It reports whether
// the signal was folded into an already pending event.
func (d *debouncer) schedule(path string, flush func(gen uint64)) bool {
	coalesced := d.count > 0
	d.path = path
	d.count++
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.duration, func() {
		flush(gen)
	})
	return coalesced
}

// pop returns the pending event if gen is still the latest generation.
func (d *debouncer) pop(gen uint64) (string, int, bool) {
	if d.count == 0 || gen != d.gen {
		return "", 0, false
	}
	path, count := d.path, d.count
	d.path = ""
	d.count = 0
	d.timer = nil
	return path, count, true
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.count = 0
	d.path = ""
}
