// Package logging builds the diagnostic logger. User-facing results go through the
// reporter; this logger carries watcher and run diagnostics to stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Supported formats.
const (
	FormatText   = "text"
	FormatLogfmt = "logfmt"
	FormatJSON   = "json"
)

// New returns a slog.Logger backed by a charmbracelet handler writing to w.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	var formatter log.Formatter
	switch strings.ToLower(format) {
	case "", FormatText:
		formatter = log.TextFormatter
	case FormatLogfmt:
		formatter = log.LogfmtFormatter
	case FormatJSON:
		formatter = log.JSONFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q (expected text, logfmt or json)", format)
	}

	lvl := log.WarnLevel
	if level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "stalker",
		Formatter:       formatter,
		Level:           lvl,
	})
	return slog.New(handler), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
