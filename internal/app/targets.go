package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/ports/secondary"
)

var errNoTargets = errors.New("stalklist resolves to no watch targets")

// targetResolver turns the stalk list into concrete watch targets. It is shared by the
// targets dry run and the monitor so both see the same set.
type targetResolver struct {
	store    secondary.ListStore
	expander secondary.PathExpander
	reporter secondary.Reporter
}

// resolve returns the targets in list order. Per-entry and per-node problems are
// reported, collected and skipped. A missing stalk list or an empty result is returned
// as an error. Callers check the instance first.
func (r *targetResolver) resolve(ctx context.Context, op, dir string, recursive bool) ([]string, []error, error) {
	var targets []string
	var problems []error
	for entry, err := range r.store.All(dir, secondary.StalkList) {
		if err != nil {
			if outcome.KindOf(err) == outcome.KindInstanceNotFound {
				r.reporter.Report(outcome.Failure(op, dir, "opening stalklist", err))
				return nil, problems, err
			}
			r.reporter.Report(outcome.Failure(op, dir, "reading stalklist", err))
			problems = append(problems, err)
			continue
		}

		if recursive {
			targets = append(targets, entry)
			continue
		}
		for node, err := range r.expander.Expand(ctx, entry) {
			if err != nil {
				r.reporter.Report(outcome.Failure(op, entry, fmt.Sprintf("expanding %s", entry), err))
				problems = append(problems, err)
				continue
			}
			targets = append(targets, node)
		}
		if ctx.Err() != nil {
			return nil, problems, ctx.Err()
		}
	}

	if len(targets) == 0 {
		err := outcome.New(outcome.KindListEmpty, op, dir, errNoTargets)
		r.reporter.Report(outcome.Failure(op, dir, "resolving watch targets", err))
		return nil, problems, err
	}
	return targets, problems, nil
}

func (r *targetResolver) requireInstance(ctx context.Context, op, dir string) error {
	exists, err := r.store.InstanceExists(ctx, dir)
	if err != nil {
		r.reporter.Report(outcome.Failure(op, dir, "opening stalker instance", err))
		return err
	}
	if !exists {
		err := outcome.New(outcome.KindInstanceNotFound, op, dir, errors.New("stalker instance does not exist"))
		r.reporter.Report(outcome.Failure(op, dir, "opening stalker instance", err))
		return err
	}
	return nil
}
