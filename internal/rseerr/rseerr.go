// Package rseerr defines the error taxonomy shared across the crawler and
// search service. Rather than a closed set of Go error types, a single
// Error struct carries a Kind tag so that callers can classify failures
// without type-switching over a long list of concrete types.
package rseerr

import (
	"errors"
	"fmt"
)

// Kind enumerates the surface-level error categories a caller may want to
// branch on. These mirror the taxonomy named in the system specification,
// not Go's own error wrapping mechanics.
type Kind string

const (
	Internal          Kind = "internal"
	IO                Kind = "io"
	Network           Kind = "network"
	InvalidURL        Kind = "invalid_url"
	InvalidBoundaries Kind = "invalid_boundaries"
	Database          Kind = "database"
	ParseNumber       Kind = "parse_number"
	Query             Kind = "query"
	Queue             Kind = "queue"
	Selector          Kind = "selector"
	ReadWrite         Kind = "read_write"
)

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
