package fetch

import (
	"errors"
	"fmt"
)

// #region errors

// ErrNotFound means the analysis service has no profile for the subject.
var ErrNotFound = errors.New("profile not found")

// TransportError is a network-level or server-side failure. The controller
// treats it as one spent attempt and retries on the next scheduled tick.
type TransportError struct {
	Op  string // "get", "decode status", ...
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedError means the service answered but the payload did not parse
// into the snapshot shape. Retried like a transport failure, but kept
// distinguishable for logs and the observation trail.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed snapshot: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// #endregion errors

// #region classify

// Kind collapses a fetch error into a short label for logs and history rows.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		var mal *MalformedError
		if errors.As(err, &mal) {
			return "malformed"
		}
		return "transport"
	}
}

// #endregion classify
