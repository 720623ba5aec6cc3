package secondary

import "github.com/example/stalker/internal/core/outcome"

// Reporter receives every user-facing result. Implementations must be safe for
// concurrent use: watch units report from their own goroutines.
type Reporter interface {
	Report(o outcome.Outcome)
}
