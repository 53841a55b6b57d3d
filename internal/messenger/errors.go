package messenger

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnauthorized means the session is missing, expired or revoked.
	ErrUnauthorized = errors.New("messenger: session unauthorized")
	// ErrPeerNotFound means a channel name did not resolve.
	ErrPeerNotFound = errors.New("messenger: peer not found")
)

// RateLimitError is returned when the platform throttles a request.
//
// RetryAfter is the platform's hint (0 when absent). The relay loop applies
// its own fixed cooldown and only logs the hint.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// RateLimited wraps err as a rate-limit signal.
func RateLimited(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	if after < 0 {
		after = 0
	}
	return &RateLimitError{Err: err, RetryAfter: after}
}

// IsRateLimited reports whether err is (or wraps) a RateLimitError.
func IsRateLimited(err error) bool {
	var e *RateLimitError
	return errors.As(err, &e)
}

// RetryAfter returns the platform's retry hint carried by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var e *RateLimitError
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.RetryAfter, true
}

// IsUnauthorized reports whether err means the session is not usable.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// Class returns a short, stable label for err, used in logs and the audit
// trail.
func Class(err error) string {
	switch {
	case err == nil:
		return ""
	case IsRateLimited(err):
		return "rate_limited"
	case IsUnauthorized(err):
		return "unauthorized"
	case errors.Is(err, ErrPeerNotFound):
		return "peer_not_found"
	default:
		return "error"
	}
}
