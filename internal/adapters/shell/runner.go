// Package shell runs action command lines through the system shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/mattn/go-shellwords"

	"github.com/example/stalker/internal/ports/secondary"
)

// DefaultShell returns the shell prefix used when none is configured.
func DefaultShell() string {
	if runtime.GOOS == "windows" {
		return "cmd /C"
	}
	return "sh -c"
}

// Runner implements secondary.CommandRunner.
type Runner struct {
	prefix []string
}

// NewRunner creates a Runner that prepends shell to every command line. An empty
// shell selects DefaultShell.
func NewRunner(shell string) (*Runner, error) {
	if shell == "" {
		shell = DefaultShell()
	}
	prefix, err := shellwords.Parse(shell)
	if err != nil {
		return nil, fmt.Errorf("parse shell %q: %w", shell, err)
	}
	if len(prefix) == 0 {
		return nil, errors.New("shell must contain at least one argument")
	}
	return &Runner{prefix: prefix}, nil
}

// Prefix returns the parsed shell invocation.
func (r *Runner) Prefix() []string {
	return append([]string(nil), r.prefix...)
}

// Run executes command and waits for it. Output is captured even when the command
// fails; ExitCode is -1 when the process could not be started or was killed.
func (r *Runner) Run(ctx context.Context, command string) (*secondary.CommandOutput, error) {
	args := append(r.Prefix(), command)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := &secondary.CommandOutput{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, fmt.Errorf("command exited with status %d", out.ExitCode)
		}
		return out, fmt.Errorf("failed to start %s: %w", args[0], err)
	}
	return out, nil
}

// Ensure Runner implements the interface
var _ secondary.CommandRunner = (*Runner)(nil)
