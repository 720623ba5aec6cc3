package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/example/stalker/internal/core/action"
	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/logging"
	"github.com/example/stalker/internal/ports/primary"
	"github.com/example/stalker/internal/ports/secondary"
)

var (
	errNoUnitStarted = errors.New("no watch target could be monitored")
	errAllUnitsLost  = errors.New("every watch target was lost")
	errNoActions     = errors.New("no actions to run on change")
)

// MonitorServiceImpl implements the MonitorService interface.
type MonitorServiceImpl struct {
	store    secondary.ListStore
	watcher  secondary.ChangeWatcher
	executor *Executor
	reporter secondary.Reporter
	logger   *slog.Logger
	targets  *targetResolver
}

// NewMonitorService creates a new MonitorService with injected dependencies.
func NewMonitorService(
	store secondary.ListStore,
	expander secondary.PathExpander,
	watcher secondary.ChangeWatcher,
	executor *Executor,
	reporter secondary.Reporter,
	logger *slog.Logger,
) *MonitorServiceImpl {
	if logger == nil {
		logger = logging.Discard()
	}
	return &MonitorServiceImpl{
		store:    store,
		watcher:  watcher,
		executor: executor,
		reporter: reporter,
		logger:   logger.With("component", "monitor"),
		targets:  &targetResolver{store: store, expander: expander, reporter: reporter},
	}
}

// Run loads both lists once, starts one watch unit per target and blocks until ctx is
// cancelled. It fails early only when the instance or its stalk list is unusable, or
// when no target could be watched.
func (s *MonitorServiceImpl) Run(ctx context.Context, req primary.MonitorRequest) error {
	if err := s.targets.requireInstance(ctx, "run", req.InstanceDir); err != nil {
		return err
	}

	actions := s.loadActions(req.InstanceDir)

	targets, _, err := s.targets.resolve(ctx, "run", req.InstanceDir, req.Recursive)
	if err != nil {
		return err
	}

	var g errgroup.Group
	var started, lost atomic.Int32
	for _, target := range targets {
		stream, err := s.watcher.Watch(ctx, target, req.Recursive)
		if err != nil {
			s.reporter.Report(outcome.Failure("watch", target, fmt.Sprintf("watching %s", target), err))
			continue
		}
		started.Add(1)
		s.reporter.Report(outcome.Success("watch", target, fmt.Sprintf("stalking %s", target)))

		g.Go(func() error {
			if s.runUnit(ctx, target, stream, actions) {
				lost.Add(1)
			}
			return nil
		})
	}

	if started.Load() == 0 {
		err := outcome.New(outcome.KindWatchSetupFailure, "run", req.InstanceDir, errNoUnitStarted)
		s.reporter.Report(outcome.Failure("run", req.InstanceDir, "starting monitor", err))
		return err
	}
	s.logger.Info("monitoring", "targets", started.Load(), "actions", len(actions))

	_ = g.Wait()

	if ctx.Err() == nil && lost.Load() == started.Load() {
		return outcome.New(outcome.KindWatchLost, "run", req.InstanceDir, errAllUnitsLost)
	}
	return nil
}

// loadActions snapshots the action list. A missing or empty list is reported but does
// not stop monitoring; changes are then reported with nothing to run.
func (s *MonitorServiceImpl) loadActions(dir string) []string {
	var actions []string
	for a, err := range s.store.All(dir, secondary.ActionList) {
		if err != nil {
			if outcome.KindOf(err) == outcome.KindInstanceNotFound {
				break
			}
			s.reporter.Report(outcome.Failure("run", dir, "reading actionlist", err))
			continue
		}
		if !action.HasPlaceholder(a) {
			s.logger.Info("action does not reference the changed path", "action", a)
		}
		actions = append(actions, a)
	}
	if len(actions) == 0 {
		err := outcome.New(outcome.KindListEmpty, "run", dir, errNoActions)
		s.reporter.Report(outcome.Failure("run", dir, "loading actionlist", err))
	}
	return actions
}

// runUnit consumes one stream until ctx is done or the watch is lost. It reports
// whether the unit ended because its watch was lost.
func (s *MonitorServiceImpl) runUnit(ctx context.Context, target string, stream secondary.ChangeStream, actions []string) bool {
	defer stream.Close()

	for {
		event, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			s.reporter.Report(outcome.Failure("watch", target, fmt.Sprintf("stalking %s", target), err))
			return true
		}

		s.reporter.Report(outcome.Success("change", event.Path, fmt.Sprintf("changed: %s", event.Path)))
		batch := s.executor.RunBatch(ctx, event, actions)
		s.logger.Debug("batch finished", "event", event.ID, "path", event.Path,
			"signals", event.Coalesced, "actions", len(batch.Results), "failed", batch.Failed())

		if ctx.Err() != nil {
			return false
		}
	}
}

// Ensure MonitorServiceImpl implements the interface
var _ primary.MonitorService = (*MonitorServiceImpl)(nil)
