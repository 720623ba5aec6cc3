// Package entry contains the pure rules for list entries: what may be stored in a
// line-oriented list and how filtered removal rewrites one.
package entry

import (
	"errors"
	"strings"
)

var (
	errEmpty   = errors.New("entry is empty")
	errNewline = errors.New("entry contains a line break")
)

// Validate reports whether s can be stored as a single list record.
func Validate(s string) error {
	if strings.TrimSpace(s) == "" {
		return errEmpty
	}
	if strings.ContainsAny(s, "\r\n") {
		return errNewline
	}
	return nil
}

// Line is one raw record of a list file. Valid is false when the bytes are not UTF-8;
// such lines are kept verbatim but never match a removal target.
type Line struct {
	Raw   []byte
	EOL   string // terminator as read: "\n", "\r\n", or "" for an unterminated last line
	Valid bool
}

// Bytes returns the record with its original terminator.
func (l Line) Bytes() []byte {
	return append(append([]byte(nil), l.Raw...), l.EOL...)
}

// Text returns the line as a string.
func (l Line) Text() string {
	return string(l.Raw)
}

// RemovalResult is the outcome of filtering a list.
type RemovalResult struct {
	Kept    []Line
	Removed []string // targets that matched at least once, in argument order
	Dropped int      // number of lines dropped
}

// RemoveMatching drops every valid line equal to any of targets. Survivors keep their
// relative order. Each matched target is listed once in Removed.
func RemoveMatching(lines []Line, targets []string) RemovalResult {
	want := make(map[string]bool, len(targets))
	for _, t := range targets {
		want[t] = true
	}

	matched := make(map[string]bool)
	result := RemovalResult{Kept: make([]Line, 0, len(lines))}
	for _, line := range lines {
		if line.Valid && want[line.Text()] {
			matched[line.Text()] = true
			result.Dropped++
			continue
		}
		result.Kept = append(result.Kept, line)
	}

	seen := make(map[string]bool)
	for _, t := range targets {
		if matched[t] && !seen[t] {
			result.Removed = append(result.Removed, t)
			seen[t] = true
		}
	}
	return result
}
