package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/ports/secondary"
)

// ConsoleReporter renders outcomes for a terminal: successes in green, failures in
// red on the error stream, listed entries in blue and command output as-is. Each
// Report is written under one lock so output blocks of concurrent units never
// interleave.
type ConsoleReporter struct {
	mutex   sync.Mutex
	out     io.Writer
	errOut  io.Writer
	success *color.Color
	failure *color.Color
	listed  *color.Color
}

// NewConsoleReporter creates a ConsoleReporter. When noColor is false, color still
// follows fatih/color's terminal detection.
func NewConsoleReporter(out, errOut io.Writer, noColor bool) *ConsoleReporter {
	r := &ConsoleReporter{
		out:     out,
		errOut:  errOut,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		listed:  color.New(color.FgBlue),
	}
	if noColor {
		for _, c := range []*color.Color{r.success, r.failure, r.listed} {
			c.DisableColor()
		}
	}
	return r
}

// Report writes one outcome.
func (r *ConsoleReporter) Report(o outcome.Outcome) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !o.OK() {
		r.failure.Fprintf(r.errOut, "Error %s: %s\n", o.Message, cause(o))
		writeBlock(r.out, o.Output)
		writeBlock(r.errOut, o.Stderr)
		return
	}

	switch o.Op {
	case "list", "targets":
		r.listed.Fprintln(r.out, o.Message)
	default:
		r.success.Fprintln(r.out, o.Message)
	}
	writeBlock(r.out, o.Output)
	writeBlock(r.errOut, o.Stderr)
}

// cause returns the innermost useful description of a failure.
func cause(o outcome.Outcome) string {
	var tagged *outcome.Error
	if errors.As(o.Err, &tagged) {
		if tagged.Err != nil {
			return tagged.Err.Error()
		}
		return strings.ReplaceAll(string(tagged.Kind), "_", " ")
	}
	if o.Err != nil {
		return o.Err.Error()
	}
	return strings.ReplaceAll(string(o.Kind), "_", " ")
}

func writeBlock(w io.Writer, text string) {
	if text == "" {
		return
	}
	fmt.Fprint(w, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(w)
	}
}

// Ensure ConsoleReporter implements the interface
var _ secondary.Reporter = (*ConsoleReporter)(nil)
