// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives the filesystem, the
// change monitor, the shell, and the console.
package secondary

import (
	"context"
	"iter"
)

// ListName identifies one of the two persisted lists of a stalker instance.
type ListName string

const (
	// StalkList holds the paths to monitor, one per line.
	StalkList ListName = "stalklist.txt"
	// ActionList holds the command templates to run on change, one per line.
	ActionList ListName = "actionlist.txt"
)

// Label returns the short human name of the list ("stalklist", "actionlist").
func (n ListName) Label() string {
	switch n {
	case StalkList:
		return "stalklist"
	case ActionList:
		return "actionlist"
	default:
		return string(n)
	}
}

// ListStore defines the secondary port for the line-oriented list files.
type ListStore interface {
	// CreateInstanceDir creates the instance directory and its parents. Idempotent.
	CreateInstanceDir(ctx context.Context, dir string) error

	// InstanceExists reports whether dir exists and is a directory.
	InstanceExists(ctx context.Context, dir string) (bool, error)

	// CreateList creates an empty list file, truncating an existing one.
	CreateList(ctx context.Context, dir string, list ListName) error

	// ListExists reports whether the list file exists.
	ListExists(ctx context.Context, dir string, list ListName) (bool, error)

	// Append writes entry as a new last line. The list must exist.
	Append(ctx context.Context, dir string, list ListName, entry string) error

	// All returns the entries in file order. The sequence re-reads the file each time
	// it is ranged over. Per-line problems are yielded as errors without stopping.
	All(dir string, list ListName) iter.Seq2[string, error]

	// RemoveMatching drops every entry equal to one of targets and rewrites the file.
	// It returns the targets that matched at least once.
	RemoveMatching(ctx context.Context, dir string, list ListName, targets []string) ([]string, error)
}

// PathExpander defines the secondary port that turns a stalked path into the concrete
// filesystem nodes it covers.
type PathExpander interface {
	// Expand yields root and every descendant in walk order. Unreadable nodes are
	// yielded as errors and the walk continues.
	Expand(ctx context.Context, root string) iter.Seq2[string, error]
}
