// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/example/stalker/internal/core/entry"
	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/ports/secondary"
)

// ListStore implements secondary.ListStore over plain newline-delimited files.
type ListStore struct{}

// NewListStore creates a new filesystem list store.
func NewListStore() *ListStore {
	return &ListStore{}
}

// CreateInstanceDir creates a directory with all parent directories.
func (s *ListStore) CreateInstanceDir(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return outcome.New(outcome.KindIOFailure, "init", dir, err)
	}
	return nil
}

// InstanceExists checks if the instance directory exists.
func (s *ListStore) InstanceExists(ctx context.Context, dir string) (bool, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, outcome.New(outcome.KindIOFailure, "stat", dir, err)
	}
	return info.IsDir(), nil
}

// CreateList creates (or truncates) an empty list file.
func (s *ListStore) CreateList(ctx context.Context, dir string, list secondary.ListName) error {
	ok, err := s.InstanceExists(ctx, dir)
	if err != nil {
		return err
	}
	if !ok {
		return outcome.New(outcome.KindInstanceNotFound, "create", dir, errors.New("instance directory not found"))
	}

	path := filepath.Join(dir, string(list))
	f, err := os.Create(path)
	if err != nil {
		return outcome.New(outcome.KindIOFailure, "create", path, err)
	}
	if err := f.Close(); err != nil {
		return outcome.New(outcome.KindIOFailure, "create", path, err)
	}
	return nil
}

// ListExists checks if the list file exists.
func (s *ListStore) ListExists(ctx context.Context, dir string, list secondary.ListName) (bool, error) {
	path := filepath.Join(dir, string(list))
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, outcome.New(outcome.KindIOFailure, "stat", path, err)
	}
	return true, nil
}

// Append writes entry followed by a newline at the end of the list, terminating an
// unterminated last line first.
func (s *ListStore) Append(ctx context.Context, dir string, list secondary.ListName, value string) error {
	path := filepath.Join(dir, string(list))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_RDWR, 0)
	if os.IsNotExist(err) {
		return outcome.New(outcome.KindInstanceNotFound, "append", path, fmt.Errorf("%s not found", list.Label()))
	}
	if err != nil {
		return outcome.New(outcome.KindIOFailure, "append", path, err)
	}

	terminated, err := endsWithNewline(f)
	if err != nil {
		f.Close()
		return outcome.New(outcome.KindIOFailure, "append", path, err)
	}
	if !terminated {
		value = "\n" + value
	}
	if _, err := io.WriteString(f, value+"\n"); err != nil {
		f.Close()
		return outcome.New(outcome.KindIOFailure, "append", path, err)
	}
	if err := f.Close(); err != nil {
		return outcome.New(outcome.KindIOFailure, "append", path, err)
	}
	return nil
}

// All yields list entries in file order. A missing file yields a single
// InstanceNotFound error.
func (s *ListStore) All(dir string, list secondary.ListName) iter.Seq2[string, error] {
	path := filepath.Join(dir, string(list))
	return func(yield func(string, error) bool) {
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			yield("", outcome.New(outcome.KindInstanceNotFound, "read", path, fmt.Errorf("%s not found", list.Label())))
			return
		}
		if err != nil {
			yield("", outcome.New(outcome.KindIOFailure, "read", path, err))
			return
		}
		defer f.Close()

		for line, err := range readLines(f) {
			if err != nil {
				yield("", outcome.New(outcome.KindIOFailure, "read", path, err))
				return
			}
			if !line.Valid {
				if !yield("", outcome.New(outcome.KindIOFailure, "read", path, fmt.Errorf("line %d is not valid UTF-8", line.number))) {
					return
				}
				continue
			}
			if !yield(line.Text(), nil) {
				return
			}
		}
	}
}

// RemoveMatching drops every entry equal to one of targets and atomically rewrites
// the list. Nothing is written when the list is missing, empty, or nothing matched.
func (s *ListStore) RemoveMatching(ctx context.Context, dir string, list secondary.ListName, targets []string) ([]string, error) {
	path := filepath.Join(dir, string(list))
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, outcome.New(outcome.KindInstanceNotFound, "remove", path, fmt.Errorf("cannot find %s", list))
	}
	if err != nil {
		return nil, outcome.New(outcome.KindIOFailure, "remove", path, err)
	}

	var current []entry.Line
	for line, err := range readLines(f) {
		if err != nil {
			f.Close()
			return nil, outcome.New(outcome.KindIOFailure, "remove", path, err)
		}
		current = append(current, line.Line)
	}
	f.Close()

	if len(current) == 0 {
		return nil, outcome.New(outcome.KindListEmpty, "remove", path, fmt.Errorf("%s is empty", list))
	}

	result := entry.RemoveMatching(current, targets)
	if result.Dropped == 0 {
		return nil, nil
	}
	if err := rewrite(path, result.Kept); err != nil {
		return nil, outcome.New(outcome.KindIOFailure, "remove", path, err)
	}
	return result.Removed, nil
}

func endsWithNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return true, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] == '\n', nil
}

type numberedLine struct {
	entry.Line
	number int
}

// readLines yields raw lines with their terminator split off into EOL, so a rewrite
// reproduces CRLF and unterminated last lines byte for byte.
func readLines(r io.Reader) iter.Seq2[numberedLine, error] {
	return func(yield func(numberedLine, error) bool) {
		br := bufio.NewReader(r)
		n := 0
		for {
			raw, err := br.ReadBytes('\n')
			if len(raw) > 0 {
				n++
				eol := ""
				switch {
				case bytes.HasSuffix(raw, []byte("\r\n")):
					eol = "\r\n"
				case bytes.HasSuffix(raw, []byte("\n")):
					eol = "\n"
				}
				raw = raw[:len(raw)-len(eol)]
				line := numberedLine{
					Line:   entry.Line{Raw: raw, EOL: eol, Valid: utf8.Valid(raw)},
					number: n,
				}
				if !yield(line, nil) {
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(numberedLine{}, err)
				return
			}
		}
	}
}

// rewrite replaces path with lines by writing a sibling temp file and renaming it.
func rewrite(path string, lines []entry.Line) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		w.Write(line.Bytes())
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Ensure ListStore implements the interface
var _ secondary.ListStore = (*ListStore)(nil)
