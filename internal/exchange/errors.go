// Package exchange holds the error types shared by market data clients.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// FetchError is returned when candles could not be fetched or decoded.
// A poll that sees a FetchError is skipped without touching signal state.
type FetchError struct {
	Op         string // "request", "status", "decode", "validate"
	StatusCode int    // set for Op == "status"
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether a later attempt may succeed: timeouts,
// transport failures, rate limiting and server errors.
func (e *FetchError) Retryable() bool {
	switch e.Op {
	case "request":
		return !errors.Is(e.Err, context.Canceled)
	case "status":
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	default:
		return false
	}
}

// Timeout reports whether the fetch ran out of time.
func (e *FetchError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// IsRetryable reports whether err is a retryable FetchError.
func IsRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable()
}
