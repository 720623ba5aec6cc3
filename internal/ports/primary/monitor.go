package primary

import "context"

// MonitorService defines the primary port for the watch-and-execute loop.
type MonitorService interface {
	// Run monitors every target of the instance and runs the action list on each
	// change. It blocks until ctx is cancelled.
	Run(ctx context.Context, req MonitorRequest) error
}

// MonitorRequest configures one monitor run.
type MonitorRequest struct {
	InstanceDir string
	Recursive   bool
}
