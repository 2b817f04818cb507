package fetch

import (
	"context"
	"net/http"
	"time"
)

// Policy decides retry behavior for a single call. The chamber XML paths
// pass NoRetry so a failed roll degrades to per-item handling; the JSON
// gateway path uses the configured policy.
type Policy struct {
	// MaxAttempts is the total attempt ceiling, including the first try.
	MaxAttempts int
	// Backoff is the base delay; waits grow linearly with the attempt
	// number, matching the gateway's documented politeness expectations.
	Backoff time.Duration
	// RetryableStatus lists the HTTP codes worth retrying. Authentication
	// failures are never retryable regardless of this set.
	RetryableStatus map[int]bool
}

// DefaultPolicy retries rate limits and server errors.
func DefaultPolicy(maxRetries int, backoff time.Duration) Policy {
	return Policy{
		MaxAttempts: maxRetries,
		Backoff:     backoff,
		RetryableStatus: map[int]bool{
			http.StatusTooManyRequests:     true,
			http.StatusInternalServerError: true,
			http.StatusBadGateway:          true,
			http.StatusServiceUnavailable:  true,
			http.StatusGatewayTimeout:      true,
		},
	}
}

// NoRetry performs exactly one attempt.
func NoRetry() Policy {
	return Policy{MaxAttempts: 1}
}

// Retryable reports whether a response status warrants another attempt.
func (p Policy) Retryable(status int) bool {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return false
	}
	return p.RetryableStatus[status]
}

// Delay returns the wait before the given (1-based) attempt's retry.
func (p Policy) Delay(attempt int) time.Duration {
	return p.Backoff * time.Duration(attempt)
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Pause blocks for delay or until the context finishes, whichever comes
// first. Used for retry backoff and for probe pacing.
func Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
