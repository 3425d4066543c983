package gamesync

import (
	"errors"

	"github.com/gameinfo/gamesync/internal/apperr"
)

// ErrStaleSession is returned by LoadNextPage when the session was
// superseded by a newer StartSearch while its fetch was in flight. The
// fetched page has been discarded; nothing was appended.
var ErrStaleSession = errors.New("gamesync: search session superseded")

// Predicates over classified errors so consumers only import this
// package.

// IsUnauthenticated reports whether err means no acting identity was
// available for an operation that requires one.
func IsUnauthenticated(err error) bool { return apperr.Is(err, apperr.KindUnauthenticated) }

// IsForbidden reports whether err is an authorization failure.
func IsForbidden(err error) bool { return apperr.Is(err, apperr.KindForbidden) }

// IsNotFound reports whether err means an absent entity or document.
func IsNotFound(err error) bool { return apperr.Is(err, apperr.KindNotFound) }

// IsConflict reports whether err is an optimistic-concurrency failure
// that survived the internal retry budget.
func IsConflict(err error) bool { return apperr.Is(err, apperr.KindConflict) }

// IsRetryable reports whether the operation may succeed if retried.
func IsRetryable(err error) bool { return apperr.Retryable(err) }

func errUnauthenticated(op string) error {
	return apperr.Errorf(apperr.KindUnauthenticated, op, "no acting identity")
}
