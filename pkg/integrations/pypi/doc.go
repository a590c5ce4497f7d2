// Package pypi provides an HTTP client for the Python Package Index API.
//
// # Overview
//
// findreq uses PyPI as an existence oracle: when an import name cannot be
// mapped to a distribution through the alias table or installed metadata,
// spelling variants of the name are probed against
// https://pypi.org/pypi/<name>/json until one answers 200.
//
// # Usage
//
//	client := pypi.NewClient(backend, cache.TTLHTTP, "",
//	    integrations.WithTimeout(2*time.Second),
//	    integrations.WithRetry(1, 0),
//	)
//
//	ok, err := client.Exists(ctx, "python-dotenv")
//	info, err := client.FetchPackage(ctx, "requests", false)
//
// # Exists vs FetchPackage
//
// [Client.Exists] sends the name exactly as given and is never cached; the
// resolver keeps its own cache of answers. [Client.FetchPackage] normalizes
// the name per PEP 503 and caches the decoded [PackageInfo] for the client's
// TTL. Pass refresh=true to bypass the cache.
package pypi
