package primary

import (
	"context"
	"iter"
)

// StalkerService defines the primary port for managing a stalker instance.
type StalkerService interface {
	// Init creates the instance directory. Existing lists are left untouched.
	Init(ctx context.Context, instanceDir string) error

	// AddPaths appends paths to the stalk list, creating it if absent.
	AddPaths(ctx context.Context, req AddEntriesRequest) (*AddEntriesResponse, error)

	// AddActions appends command templates to the action list, creating it if absent.
	AddActions(ctx context.Context, req AddEntriesRequest) (*AddEntriesResponse, error)

	// RemovePaths drops every stalk list line equal to one of the given paths.
	RemovePaths(ctx context.Context, req RemoveEntriesRequest) (*RemoveEntriesResponse, error)

	// RemoveActions drops every action list line equal to one of the given templates.
	RemoveActions(ctx context.Context, req RemoveEntriesRequest) (*RemoveEntriesResponse, error)

	// ListPaths yields the stalk list in file order.
	ListPaths(instanceDir string) iter.Seq2[string, error]

	// ListActions yields the action list in file order.
	ListActions(instanceDir string) iter.Seq2[string, error]

	// Targets resolves the concrete watch targets a monitor run would use.
	Targets(ctx context.Context, req TargetsRequest) (*TargetsResponse, error)
}

// AddEntriesRequest contains the entries to append.
type AddEntriesRequest struct {
	InstanceDir string
	Entries     []string
}

// AddEntriesResponse lists which entries were written.
type AddEntriesResponse struct {
	Added  []string
	Failed []EntryFailure
}

// EntryFailure pairs a rejected entry with the reason.
type EntryFailure struct {
	Entry string
	Err   error
}

// RemoveEntriesRequest contains the values to filter out.
type RemoveEntriesRequest struct {
	InstanceDir string
	Entries     []string
}

// RemoveEntriesResponse lists the values that matched at least one line.
type RemoveEntriesResponse struct {
	Removed []string
}

// TargetsRequest selects how stalked paths are turned into watch targets.
type TargetsRequest struct {
	InstanceDir string
	Recursive   bool // one recursive target per entry instead of one per node
}

// TargetsResponse contains the resolved targets.
type TargetsResponse struct {
	Targets []string
	Errors  []error // per-entry or per-node problems, already reported
}
