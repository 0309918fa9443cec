package store

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies store failures by how the caller should react.
type Kind string

const (
	// KindUnknown is any failure a backend could not classify. Treated as fatal.
	KindUnknown Kind = "UNKNOWN"

	// KindTransient failures (timeouts, leader elections, throttling,
	// lock contention) may succeed when retried.
	KindTransient Kind = "TRANSIENT"

	// KindUnreachable means the store could not be contacted at all.
	KindUnreachable Kind = "UNREACHABLE"

	// KindPermissionDenied means the credentials do not allow the operation.
	KindPermissionDenied Kind = "PERMISSION_DENIED"

	// KindNotFound means the addressed path does not exist.
	KindNotFound Kind = "NOT_FOUND"

	// KindConflict means a leaf value occupies a path that must be a directory.
	KindConflict Kind = "CONFLICT"
)

// Error is the error type returned by store clients.
type Error struct {
	// Op is the client operation, "create" or "list".
	Op string

	// Path is the store path the operation addressed.
	Path string

	// Kind classifies the failure.
	Kind Kind

	// Err is the backend error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Op names used in Error.Op.
const (
	OpCreate = "create"
	OpList   = "list"
)

// NewError builds an *Error.
func NewError(op, path string, kind Kind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// KindOf returns the Kind of err.
//
// Context deadline errors that were not classified by a backend count as
// transient, so a per-request timeout is retried. Cancellation is not.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindUnknown
}

// IsTransient reports whether err may succeed on retry.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}

// IsNotFound reports whether err means the path does not exist.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
