package secondary

import "context"

// CommandOutput is what a finished shell command produced.
type CommandOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandRunner defines the secondary port for running one shell command line.
type CommandRunner interface {
	// Run executes command through the shell and waits for it. A non-zero exit is
	// reported through CommandOutput.ExitCode together with a non-nil error.
	Run(ctx context.Context, command string) (*CommandOutput, error)
}
