package filesystem

import (
	"context"
	"io/fs"
	"iter"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/ports/secondary"
)

// Expander implements secondary.PathExpander with a lexical directory walk.
type Expander struct{}

// NewExpander creates a new path expander.
func NewExpander() *Expander {
	return &Expander{}
}

// Expand yields root itself and every node beneath it. A leading "~" is expanded to
// the user's home directory. Symlinks are yielded but not followed.
func (e *Expander) Expand(ctx context.Context, root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		expanded, err := homedir.Expand(root)
		if err != nil {
			yield("", outcome.New(outcome.KindIOFailure, "expand", root, err))
			return
		}

		filepath.WalkDir(expanded, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return filepath.SkipAll
			}
			if err != nil {
				// A directory that cannot be read is reported a second time after
				// it was yielded; returning nil moves on to its siblings.
				if !yield("", outcome.New(outcome.KindIOFailure, "expand", path, err)) {
					return filepath.SkipAll
				}
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Ensure Expander implements the interface
var _ secondary.PathExpander = (*Expander)(nil)
