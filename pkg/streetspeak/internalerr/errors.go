package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrQuotaExceeded signals that the video platform rejected further
	// requests for quota or rate-limit reasons. Callers fall back to
	// cached data when they see it.
	ErrQuotaExceeded = errors.New("platform quota exceeded")

	// ErrUnavailable means no fresh data could be fetched and no cached
	// fallback exists. It is the only failure surfaced to external callers.
	ErrUnavailable = errors.New("no fresh or cached data available")
)
