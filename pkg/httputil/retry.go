package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MaxDelay caps a single wait between attempts, including waits requested by
// the server through Retry-After.
const MaxDelay = 10 * time.Second

// RetryableError marks a failure as transient so that [Retry] tries again.
type RetryableError struct {
	Err error

	// After is the wait the server asked for; zero means use the backoff delay.
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry calls fn until it succeeds, returns a non-retryable error, or has
// been called attempts times (at least once). Between attempts it waits for
// delay, doubling it each time, or for the server's Retry-After hint when that
// is longer. No wait exceeds [MaxDelay]. Cancelling ctx during a wait returns
// ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)

	for i := 1; ; i++ {
		err := fn()
		var re *RetryableError
		if err == nil || !errors.As(err, &re) || i >= attempts {
			return err
		}

		timer := time.NewTimer(min(max(delay, re.After), MaxDelay))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// RetryAfter parses a Retry-After header value, given either in seconds or as
// an HTTP date relative to now. Missing, malformed or past values yield zero.
func RetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		return max(at.Sub(now), 0)
	}
	return 0
}
