package playercount

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a dataset-level failure.
type Kind string

const (
	KindMissingInput   Kind = "MissingInputError"
	KindMalformedInput Kind = "MalformedInputError"
	KindInvalidCount   Kind = "InvalidCountError"
	KindOutputWrite    Kind = "OutputWriteError"
	KindInternal       Kind = "InternalError"
	KindActivity       Kind = "ActivityError"
	KindCanceled       Kind = "CanceledError"

	// Row-level reasons that never abort a dataset.
	KindNullCount        Kind = "NullCount"
	KindInvalidTimestamp Kind = "InvalidTimestamp"
	KindDuplicateDate    Kind = "DuplicateDate"
)

// Sentinels for errors.Is.
var (
	ErrMissingInput   = errors.New("missing input")
	ErrMalformedInput = errors.New("malformed input")
	ErrInvalidCount   = errors.New("invalid player count")
	ErrOutputWrite    = errors.New("output write failed")
)

// Error is returned by every pipeline stage.
type Error struct {
	Kind    Kind
	Dataset string
	Path    string
	Line    int
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Dataset != "" {
		msg += " [" + e.Dataset + "]"
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's Kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindMissingInput:
		return target == ErrMissingInput
	case KindMalformedInput:
		return target == ErrMalformedInput
	case KindInvalidCount:
		return target == ErrInvalidCount
	case KindOutputWrite:
		return target == ErrOutputWrite
	}
	return false
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// KindOf returns the Kind carried by err, or KindInternal when err does not
// come from this package.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindInternal
}
