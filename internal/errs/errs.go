// Package errs provides the typed errors shared by the version manager,
// session manager and transport adapter.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error categories.
type Kind string

const (
	KindSessionNotFound  Kind = "SESSION_NOT_FOUND"
	KindSessionInactive  Kind = "SESSION_INACTIVE"
	KindStorageFault     Kind = "STORAGE_FAULT"
	KindIntegrityFault   Kind = "INTEGRITY_FAULT"
	KindGeneratorFault   Kind = "GENERATOR_FAULT"
	KindContextAdvisory  Kind = "CONTEXT_ADVISORY_FAULT"
)

// Error is a typed error with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a typed error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a typed error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err, or "" if err is not a typed error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
