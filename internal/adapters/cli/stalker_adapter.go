// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing and empty-state hints,
// but delegate business logic to services and per-entry output to the reporter.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/example/stalker/internal/ports/primary"
	"github.com/example/stalker/internal/ports/secondary"
)

// ParseList maps a command-line list selector to a list.
func ParseList(s string) (secondary.ListName, error) {
	switch s {
	case "path", "paths":
		return secondary.StalkList, nil
	case "action", "actions":
		return secondary.ActionList, nil
	default:
		return "", fmt.Errorf("unknown list %q (expected path or action)", s)
	}
}

// StalkerAdapter is a thin adapter that translates CLI operations to StalkerService calls.
// It depends only on the StalkerService interface, enabling easy testing with mocks.
type StalkerAdapter struct {
	service primary.StalkerService
	out     io.Writer
}

// NewStalkerAdapter creates a new StalkerAdapter with the given service.
func NewStalkerAdapter(service primary.StalkerService, out io.Writer) *StalkerAdapter {
	return &StalkerAdapter{
		service: service,
		out:     out,
	}
}

// Init creates the instance directory.
func (a *StalkerAdapter) Init(ctx context.Context, dir string) error {
	return a.service.Init(ctx, dir)
}

// Add appends entries to the selected list. It fails when any entry was rejected.
func (a *StalkerAdapter) Add(ctx context.Context, list secondary.ListName, dir string, entries []string) error {
	req := primary.AddEntriesRequest{InstanceDir: dir, Entries: entries}

	var resp *primary.AddEntriesResponse
	var err error
	if list == secondary.ActionList {
		resp, err = a.service.AddActions(ctx, req)
	} else {
		resp, err = a.service.AddPaths(ctx, req)
	}
	if err != nil {
		return err
	}
	if len(resp.Failed) > 0 {
		return fmt.Errorf("%d of %d entries could not be added to %s", len(resp.Failed), len(entries), list.Label())
	}
	return nil
}

// Remove drops matching entries from the selected list.
func (a *StalkerAdapter) Remove(ctx context.Context, list secondary.ListName, dir string, entries []string) error {
	req := primary.RemoveEntriesRequest{InstanceDir: dir, Entries: entries}

	var resp *primary.RemoveEntriesResponse
	var err error
	if list == secondary.ActionList {
		resp, err = a.service.RemoveActions(ctx, req)
	} else {
		resp, err = a.service.RemovePaths(ctx, req)
	}
	if err != nil {
		return err
	}
	if len(resp.Removed) == 0 {
		fmt.Fprintf(a.out, "No matching entries in %s.\n", list.Label())
	}
	return nil
}

// List prints the selected list. Entries are printed by the reporter as they are read.
func (a *StalkerAdapter) List(ctx context.Context, list secondary.ListName, dir string) error {
	seq := a.service.ListPaths(dir)
	if list == secondary.ActionList {
		seq = a.service.ListActions(dir)
	}

	count := 0
	var errs []error
	for _, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		count++
	}

	if count == 0 && len(errs) == 0 {
		fmt.Fprintf(a.out, "%s is empty.\n", list.Label())
		fmt.Fprintln(a.out)
		if list == secondary.ActionList {
			fmt.Fprintln(a.out, "Add an action:")
			fmt.Fprintln(a.out, "  stalker add action 'echo {path} changed'")
		} else {
			fmt.Fprintln(a.out, "Start stalking a path:")
			fmt.Fprintln(a.out, "  stalker add path ~/notes")
		}
	}
	return errors.Join(errs...)
}

// Targets prints the concrete watch targets a run would use.
func (a *StalkerAdapter) Targets(ctx context.Context, dir string, recursive bool) error {
	resp, err := a.service.Targets(ctx, primary.TargetsRequest{InstanceDir: dir, Recursive: recursive})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d watch target(s)\n", len(resp.Targets))
	return nil
}
