// Package apperr provides error classification for the gamesync SDK.
// Every failure crossing a package boundary is tagged with a Kind so
// callers and retry policies can branch on recoverability instead of
// string-matching messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for retry and presentation decisions.
type Kind int

const (
	// KindNetwork marks transient transport failures; callers may retry.
	KindNetwork Kind = iota

	// KindUnauthenticated marks operations that require an acting
	// identity none was supplied for. Never retried automatically.
	KindUnauthenticated

	// KindForbidden marks an authorization failure, e.g. editing a
	// review authored by someone else.
	KindForbidden

	// KindNotFound marks an absent entity or document.
	KindNotFound

	// KindConflict marks an optimistic-concurrency check failure on a
	// read-modify-write; retried internally a bounded number of times
	// before surfacing.
	KindConflict

	// KindInvalid marks a malformed argument caught before any I/O.
	KindInvalid
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error wraps an underlying error with its kind and the operation that
// produced it.
type Error struct {
	Kind Kind
	Op   string // e.g. "catalog.SearchGames", "reviews.Edit"
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: [%s] %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *Error) Unwrap() error { return e.Err }

// E constructs an *Error. Op names the failing operation.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf constructs an *Error from a format string.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind from err, or KindNetwork if err carries no
// classification. Unknown failures are treated as transient so a
// conservative caller retries rather than drops work.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindNetwork
}

// Is reports whether err is classified with kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// Retryable reports whether err may succeed on retry. Only transient
// transport failures and optimistic-concurrency conflicts qualify.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindConflict:
		return true
	default:
		return false
	}
}
