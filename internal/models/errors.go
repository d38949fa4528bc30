package models

import (
	"context"
	"errors"
)

// Error kinds shared by every pipeline component.
var (
	ErrAcquisition        = errors.New("acquisition failed")
	ErrTranscription      = errors.New("transcription failed")
	ErrSynthesis          = errors.New("synthesis failed")
	ErrMalformedOutput    = errors.New("malformed completion output")
	ErrFormat             = errors.New("invalid subtitle timing")
	ErrPersistence        = errors.New("persistence failed")
	ErrCancelled          = errors.New("run cancelled")
	ErrServiceUnavailable = errors.New("completion service unavailable")
	ErrLocked             = errors.New("run already in progress")
)

// Error tags a cause with one of the kinds above and a short machine-readable reason.
type Error struct {
	Kind   error
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds an *Error. err may be nil.
func NewError(kind error, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// Reason returns the reason of the outermost *Error in err's chain.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// Cancelled converts a context error into ErrCancelled; other errors pass through.
func Cancelled(err error) error {
	if errors.Is(err, context.Canceled) {
		return NewError(ErrCancelled, "cancelled", err)
	}
	return err
}
