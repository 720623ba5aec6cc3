// Package outcome defines the result vocabulary shared by every stalker operation.
// An Outcome is pure data: the application layer produces them, a Reporter presents them.
package outcome

import (
	"errors"
	"fmt"
)

// Kind classifies the result of an operation.
type Kind string

const (
	KindOK                  Kind = "ok"
	KindInstanceNotFound    Kind = "instance_not_found"
	KindListEmpty           Kind = "list_empty"
	KindIOFailure           Kind = "io_failure"
	KindWatchSetupFailure   Kind = "watch_setup_failure"
	KindWatchLost           Kind = "watch_lost"
	KindSubstitutionFailure Kind = "substitution_failure"
	KindExecutionFailure    Kind = "execution_failure"
	KindInvalidEntry        Kind = "invalid_entry"
)

// Error is an error tagged with a Kind and the entry it concerns.
type Error struct {
	Kind    Kind
	Op      string // e.g. "append", "watch", "run"
	Subject string // offending path, entry or command
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Subject != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Subject)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, outcome.ErrListEmpty) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Subject == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInstanceNotFound    = &Error{Kind: KindInstanceNotFound}
	ErrListEmpty           = &Error{Kind: KindListEmpty}
	ErrIOFailure           = &Error{Kind: KindIOFailure}
	ErrWatchSetupFailure   = &Error{Kind: KindWatchSetupFailure}
	ErrWatchLost           = &Error{Kind: KindWatchLost}
	ErrSubstitutionFailure = &Error{Kind: KindSubstitutionFailure}
	ErrExecutionFailure    = &Error{Kind: KindExecutionFailure}
	ErrInvalidEntry        = &Error{Kind: KindInvalidEntry}
)

// New builds a tagged error.
func New(kind Kind, op, subject string, err error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}

// KindOf returns the Kind carried by err, KindOK for nil, and KindIOFailure for
// untagged errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindIOFailure
}

// Outcome is one reportable result.
type Outcome struct {
	Kind    Kind
	Op      string
	Subject string
	Message string
	Output  string // captured stdout, if any
	Stderr  string // captured stderr, if any
	Err     error
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Kind == KindOK
}

// Success builds a successful outcome.
func Success(op, subject, message string) Outcome {
	return Outcome{Kind: KindOK, Op: op, Subject: subject, Message: message}
}

// Failure builds an outcome from an error, taking Kind and Subject from it when tagged.
func Failure(op, subject, message string, err error) Outcome {
	o := Outcome{Kind: KindOf(err), Op: op, Subject: subject, Message: message, Err: err}
	var tagged *Error
	if errors.As(err, &tagged) && o.Subject == "" {
		o.Subject = tagged.Subject
	}
	return o
}
