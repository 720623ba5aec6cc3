package secondary

import (
	"context"
	"time"
)

// ChangeEvent is one debounced, actionable change of a watch target.
type ChangeEvent struct {
	ID        string
	Target    string    // the watch target the event belongs to
	Path      string    // the node that was written; equals Target unless watched recursively
	Coalesced int       // raw write signals folded into this event
	At        time.Time // when the debounce window closed
}

// ChangeWatcher defines the secondary port for establishing change monitors.
type ChangeWatcher interface {
	// Watch starts monitoring target. It fails immediately when the target is missing
	// or unreadable. With recursive set, a directory target also covers everything
	// beneath it.
	Watch(ctx context.Context, target string, recursive bool) (ChangeStream, error)

	// Close releases every monitor.
	Close() error
}

// ChangeStream is the event stream of one watch target.
type ChangeStream interface {
	// Next blocks until the next event, ctx cancellation, or loss of the monitor.
	Next(ctx context.Context) (ChangeEvent, error)

	// Close stops the stream. Pending events are discarded.
	Close() error
}
