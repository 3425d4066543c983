package apperr

import "fmt"

// FromStatus maps an HTTP status code from the catalog provider to an
// error kind:
//   - 401 → Unauthenticated, 403 → Forbidden, 404 → NotFound
//   - 408/429 and all 5xx → Network (retryable)
//   - remaining 4xx → Invalid
func FromStatus(op string, status int) *Error {
	return &Error{Kind: kindForStatus(status), Op: op, Err: fmt.Errorf("status %d", status)}
}

func kindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindUnauthenticated
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status == 408 || status == 429:
		return KindNetwork
	case status >= 500:
		return KindNetwork
	case status >= 400:
		return KindInvalid
	default:
		// Unexpected codes are treated as transient.
		return KindNetwork
	}
}

// Network wraps a transport-level failure (DNS, dial, timeout) that
// never produced an HTTP status.
func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}
