// Package action holds the pure template logic for action entries.
//
// Substitution is plain text replacement: the changed path is inserted verbatim and the
// resulting string is handed to a shell. Quoting is the template author's job; stalker
// executes user-supplied shell text with user-supplied paths, unmodified.
package action

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Placeholder is the token replaced with the changed path.
const Placeholder = "{path}"

var errPathNotText = errors.New("path is not valid UTF-8")

// Substitute replaces every occurrence of Placeholder in template with path.
func Substitute(template, path string) (string, error) {
	if !utf8.ValidString(path) {
		return "", errPathNotText
	}
	return strings.ReplaceAll(template, Placeholder, path), nil
}

// HasPlaceholder reports whether template references the changed path.
func HasPlaceholder(template string) bool {
	return strings.Contains(template, Placeholder)
}
