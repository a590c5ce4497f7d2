// Package integrations provides the HTTP plumbing for package registry APIs.
//
// # Overview
//
// findreq talks to exactly one registry, the Python Package Index, through
// the [pypi] subpackage. This package holds the parts that are not specific
// to PyPI: a [Client] with default headers, bounded timeouts, retry with
// backoff for transient failures, and response caching through [cache.Cache].
//
// # Client Pattern
//
//	backend, _ := cache.NewFileCache(dir)
//	client := pypi.NewClient(backend, cache.TTLHTTP, "")
//	ok, err := client.Exists(ctx, "requests")
//
// # Errors
//
// A 404 maps to [ErrNotFound]. Connection failures, 429 and 5xx responses map
// to [ErrNetwork] wrapped in [httputil.RetryableError] so that [Client.Cached]
// and [Client.Probe] retry them. Other statuses map to [ErrNetwork] without
// retry.
//
// [pypi]: github.com/matzehuels/findreq/pkg/integrations/pypi
// [cache.Cache]: github.com/matzehuels/findreq/pkg/cache.Cache
// [httputil.RetryableError]: github.com/matzehuels/findreq/pkg/httputil.RetryableError
package integrations
