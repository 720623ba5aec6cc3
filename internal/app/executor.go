package app

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/example/stalker/internal/core/action"
	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/ports/secondary"
)

var errOutputNotUTF8 = errors.New("command output is not valid UTF-8")

// ActionResult is the result of one action of a batch.
type ActionResult struct {
	Template string
	Command  string // empty when substitution failed
	Output   *secondary.CommandOutput
	Err      error
}

// BatchResult holds one result per action, in list order.
type BatchResult struct {
	EventID string
	Path    string
	Results []ActionResult
}

// Failed counts the actions that did not succeed.
func (b BatchResult) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Executor runs the action list for one change event.
type Executor struct {
	runner   secondary.CommandRunner
	reporter secondary.Reporter
}

// NewExecutor creates a new Executor with injected dependencies.
func NewExecutor(runner secondary.CommandRunner, reporter secondary.Reporter) *Executor {
	return &Executor{runner: runner, reporter: reporter}
}

// RunBatch runs every action in order, one at a time. Each result is reported before
// the next action starts; a failing action never stops the batch. Actions not yet
// started when ctx is cancelled are skipped.
func (e *Executor) RunBatch(ctx context.Context, event secondary.ChangeEvent, actions []string) BatchResult {
	batch := BatchResult{EventID: event.ID, Path: event.Path, Results: make([]ActionResult, 0, len(actions))}
	for _, tmpl := range actions {
		if ctx.Err() != nil {
			break
		}
		batch.Results = append(batch.Results, e.run(ctx, event.Path, tmpl))
	}
	return batch
}

func (e *Executor) run(ctx context.Context, path, tmpl string) ActionResult {
	result := ActionResult{Template: tmpl}

	command, err := action.Substitute(tmpl, path)
	if err != nil {
		result.Err = outcome.New(outcome.KindSubstitutionFailure, "execute", tmpl, err)
		e.reporter.Report(outcome.Failure("execute", tmpl, fmt.Sprintf("substituting %s", path), result.Err))
		return result
	}
	result.Command = command

	out, err := e.runner.Run(ctx, command)
	result.Output = out
	if err == nil && out != nil && !utf8.Valid(out.Stdout) {
		err = errOutputNotUTF8
	}
	if err != nil {
		result.Err = outcome.New(outcome.KindExecutionFailure, "execute", command, err)
		e.reporter.Report(withOutput(outcome.Failure("execute", command, fmt.Sprintf("running %s", command), result.Err), out))
		return result
	}

	e.reporter.Report(withOutput(outcome.Success("execute", command, fmt.Sprintf("ran %s", command)), out))
	return result
}

// withOutput attaches whatever captured output is valid text, whatever the exit status.
func withOutput(o outcome.Outcome, out *secondary.CommandOutput) outcome.Outcome {
	if out == nil {
		return o
	}
	if utf8.Valid(out.Stdout) {
		o.Output = string(out.Stdout)
	}
	if utf8.Valid(out.Stderr) {
		o.Stderr = string(out.Stderr)
	}
	return o
}
