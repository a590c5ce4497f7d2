// Package httputil provides HTTP utilities for package registry clients.
//
// # Retry
//
// [Retry] wraps requests with automatic retry for transient failures.
// Only errors wrapped in [RetryableError] are retried; network failures and
// 5xx responses are wrapped by the registry client, 404s are not:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return client.Get(ctx, url, &v)
//	})
//
// The delay doubles after each failed attempt. A 429 or 503 that carries a
// Retry-After header sets [RetryableError.After], and the next wait honors
// it up to [MaxDelay]. Existence probes during a
// scan use a single attempt so that one slow registry cannot stretch the
// scan beyond its per-call timeout.
package httputil
