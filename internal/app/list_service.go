package app

import (
	"context"
	"fmt"
	"iter"

	"github.com/example/stalker/internal/core/entry"
	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/ports/primary"
	"github.com/example/stalker/internal/ports/secondary"
)

// StalkerServiceImpl implements the StalkerService interface.
type StalkerServiceImpl struct {
	store    secondary.ListStore
	reporter secondary.Reporter
	targets  *targetResolver
}

// NewStalkerService creates a new StalkerService with injected dependencies.
func NewStalkerService(store secondary.ListStore, expander secondary.PathExpander, reporter secondary.Reporter) *StalkerServiceImpl {
	return &StalkerServiceImpl{
		store:    store,
		reporter: reporter,
		targets:  &targetResolver{store: store, expander: expander, reporter: reporter},
	}
}

// Init creates the instance directory.
func (s *StalkerServiceImpl) Init(ctx context.Context, instanceDir string) error {
	if err := s.store.CreateInstanceDir(ctx, instanceDir); err != nil {
		s.reporter.Report(outcome.Failure("init", instanceDir, "creating stalker instance", err))
		return err
	}
	s.reporter.Report(outcome.Success("init", instanceDir, fmt.Sprintf("created stalker instance at %s", instanceDir)))
	return nil
}

// AddPaths appends paths to the stalk list.
func (s *StalkerServiceImpl) AddPaths(ctx context.Context, req primary.AddEntriesRequest) (*primary.AddEntriesResponse, error) {
	return s.add(ctx, secondary.StalkList, req)
}

// AddActions appends command templates to the action list.
func (s *StalkerServiceImpl) AddActions(ctx context.Context, req primary.AddEntriesRequest) (*primary.AddEntriesResponse, error) {
	return s.add(ctx, secondary.ActionList, req)
}

func (s *StalkerServiceImpl) add(ctx context.Context, list secondary.ListName, req primary.AddEntriesRequest) (*primary.AddEntriesResponse, error) {
	label := list.Label()

	exists, err := s.store.ListExists(ctx, req.InstanceDir, list)
	if err != nil {
		s.reporter.Report(outcome.Failure("add", req.InstanceDir, "opening "+label, err))
		return nil, err
	}
	if !exists {
		if err := s.store.CreateList(ctx, req.InstanceDir, list); err != nil {
			s.reporter.Report(outcome.Failure("add", req.InstanceDir, "creating "+label, err))
			return nil, err
		}
		s.reporter.Report(outcome.Success("add", label, "created "+label))
	}

	resp := &primary.AddEntriesResponse{}
	for _, e := range req.Entries {
		if err := entry.Validate(e); err != nil {
			err = outcome.New(outcome.KindInvalidEntry, "add", e, err)
			s.reporter.Report(outcome.Failure("add", e, fmt.Sprintf("adding %q to %s", e, label), err))
			resp.Failed = append(resp.Failed, primary.EntryFailure{Entry: e, Err: err})
			continue
		}
		if err := s.store.Append(ctx, req.InstanceDir, list, e); err != nil {
			s.reporter.Report(outcome.Failure("add", e, fmt.Sprintf("adding %s to %s", e, label), err))
			resp.Failed = append(resp.Failed, primary.EntryFailure{Entry: e, Err: err})
			continue
		}
		s.reporter.Report(outcome.Success("add", e, fmt.Sprintf("added %s to %s", e, label)))
		resp.Added = append(resp.Added, e)
	}
	return resp, nil
}

// RemovePaths drops matching stalk list lines.
func (s *StalkerServiceImpl) RemovePaths(ctx context.Context, req primary.RemoveEntriesRequest) (*primary.RemoveEntriesResponse, error) {
	return s.remove(ctx, secondary.StalkList, req)
}

// RemoveActions drops matching action list lines.
func (s *StalkerServiceImpl) RemoveActions(ctx context.Context, req primary.RemoveEntriesRequest) (*primary.RemoveEntriesResponse, error) {
	return s.remove(ctx, secondary.ActionList, req)
}

func (s *StalkerServiceImpl) remove(ctx context.Context, list secondary.ListName, req primary.RemoveEntriesRequest) (*primary.RemoveEntriesResponse, error) {
	label := list.Label()

	removed, err := s.store.RemoveMatching(ctx, req.InstanceDir, list, req.Entries)
	if err != nil {
		s.reporter.Report(outcome.Failure("remove", req.InstanceDir, "deleting from "+label, err))
		return nil, err
	}
	for _, e := range removed {
		s.reporter.Report(outcome.Success("remove", e, fmt.Sprintf("removed %s from %s", e, label)))
	}
	return &primary.RemoveEntriesResponse{Removed: removed}, nil
}

// ListPaths yields the stalk list, reporting each entry as it is consumed.
func (s *StalkerServiceImpl) ListPaths(instanceDir string) iter.Seq2[string, error] {
	return s.list(instanceDir, secondary.StalkList)
}

// ListActions yields the action list, reporting each entry as it is consumed.
func (s *StalkerServiceImpl) ListActions(instanceDir string) iter.Seq2[string, error] {
	return s.list(instanceDir, secondary.ActionList)
}

func (s *StalkerServiceImpl) list(instanceDir string, list secondary.ListName) iter.Seq2[string, error] {
	label := list.Label()
	return func(yield func(string, error) bool) {
		for e, err := range s.store.All(instanceDir, list) {
			if err != nil {
				s.reporter.Report(outcome.Failure("list", instanceDir, "reading "+label, err))
			} else {
				s.reporter.Report(outcome.Success("list", e, e))
			}
			if !yield(e, err) {
				return
			}
		}
	}
}

// Targets resolves the concrete watch targets without watching them.
func (s *StalkerServiceImpl) Targets(ctx context.Context, req primary.TargetsRequest) (*primary.TargetsResponse, error) {
	if err := s.targets.requireInstance(ctx, "targets", req.InstanceDir); err != nil {
		return nil, err
	}
	targets, problems, err := s.targets.resolve(ctx, "targets", req.InstanceDir, req.Recursive)
	if err != nil {
		return &primary.TargetsResponse{Errors: problems}, err
	}
	for _, t := range targets {
		s.reporter.Report(outcome.Success("targets", t, t))
	}
	return &primary.TargetsResponse{Targets: targets, Errors: problems}, nil
}

// Ensure StalkerServiceImpl implements the interface
var _ primary.StalkerService = (*StalkerServiceImpl)(nil)
