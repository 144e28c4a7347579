// Package apperr provides the error taxonomy shared by the pipeline, the services
// and the transport adapters. It has no internal dependencies so the functional
// core can use it.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for policy decisions (skip, reject, abort) and for
// mapping to transport status codes.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindStage        Kind = "stage_failure"
	KindInternal     Kind = "internal"
)

// Error wraps an underlying error with a kind, an optional operation name and a
// human-readable message.
type Error struct {
	Kind    Kind
	Op      string // stage or operation, e.g. "factor", "alert.snooze"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Op != "":
		return e.Op + ": " + e.Message
	case e.Message != "":
		return e.Message
	case e.Err != nil && e.Op != "":
		return e.Op + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to err. A nil err returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Stage marks err as a failure of the named pipeline stage. Stage failures abort
// the whole run.
func Stage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindStage, Op: stage, Err: err}
}

// Validation is shorthand for a validation failure with a formatted message.
func Validation(format string, args ...any) *Error {
	return Newf(KindValidation, format, args...)
}

// NotFound is shorthand for a not-found failure with a formatted message.
func NotFound(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindInternal when err carries no kind. A nil err has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// StageOf returns the stage name of the first stage failure in err's chain.
func StageOf(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Kind == KindStage {
			return e.Op
		}
		err = e.Err
	}
	return ""
}
