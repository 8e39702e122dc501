// Package ratelimit bounds how many contact submissions one client may
// make per fixed window.
package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultLimit is the number of submissions allowed per window.
	DefaultLimit = 5
	// DefaultWindow is the length of a rate window.
	DefaultWindow = 15 * time.Minute
	// UnknownClient is the key used when no client address header is present.
	UnknownClient = "unknown"
)

// ErrBackend wraps failures of an external limiter store.
var ErrBackend = errors.New("rate limit backend unavailable")

// Decision is the result of one Allow call.
type Decision struct {
	Limited bool
	// Count is the number of requests recorded in the current window,
	// including this one unless Limited.
	Count int
	// RetryAfter is how long until the window resets. Only set when Limited.
	RetryAfter time.Duration
}

// Limiter decides whether a client may proceed.
//
// A record is created on the first request for a key. When more than the
// window has elapsed since the record's window start, the count resets to
// one. Otherwise a request at the limit is refused without incrementing,
// and any other request increments the count.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// ClientKey derives the rate-limit identity for r: the first entry of
// X-Forwarded-For, then X-Real-IP, then UnknownClient.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return UnknownClient
}
