// Package apperr defines the application-layer error kinds shared by every service.
package apperr

import (
	"context"
	"errors"
)

// Kind classifies a failure. A Kind is itself an error so errors.Is(err, apperr.NotFound) works
// on any wrapped *Error.
type Kind string

const (
	NotFound          Kind = "NOT_FOUND"
	DuplicateEmail    Kind = "DUPLICATE_EMAIL"
	NotAuthorized     Kind = "NOT_AUTHORIZED"
	BadCredentials    Kind = "BAD_CREDENTIALS"
	InvalidInput      Kind = "INVALID_INPUT"
	IOError           Kind = "IO_ERROR"
	ImageDecodeError  Kind = "IMAGE_DECODE_ERROR"
	EmptyItinerary    Kind = "EMPTY_ITINERARY"
	Corrupt           Kind = "CORRUPT"
	UnknownUser       Kind = "UNKNOWN_USER"
	Timeout           Kind = "TIMEOUT"
	DanglingReference Kind = "DANGLING_REFERENCE"
)

func (k Kind) Error() string { return string(k) }

// Error is an application-layer error that can be mapped to a transport response.
// Message is safe to show to clients; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a Kind target against e.Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Invalid builds an InvalidInput error naming the offending field.
func Invalid(field, problem string) *Error {
	return &Error{Kind: InvalidInput, Message: "invalid " + field, Details: map[string]any{field: problem}}
}

// KindOf returns the kind of the first *Error in err's chain. Context deadline errors map to
// Timeout; anything else unclassified is an IOError.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	return IOError
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
