// Package pkg provides the core libraries for findreq, which works out the
// pip requirements of a Python project from its import statements.
//
// # Overview
//
// findreq walks a project tree, extracts every top-level imported module,
// sorts each name into built_in, local or third_party, and maps the third
// party names to the distributions that provide them on PyPI. The pkg
// directory is organized into three areas:
//
//  1. Pipeline - [imports], [classify], [resolve], [scan], [report]
//  2. Project metadata - [manifest]
//  3. Infrastructure - [cache], [integrations], [httputil], [errors],
//     [observability], [buildinfo]
//
// # Architecture
//
// The data flow of a single scan:
//
//	Project root
//	     ↓
//	[scan] walk (exclusions, size limit, enry language detection)
//	     ↓
//	[imports] tree-sitter extraction (one goroutine per file)
//	     ↓
//	[classify] built_in / local / third_party
//	     ↓
//	[resolve] cache → alias → installed metadata → PyPI probe → fallback
//	     ↓
//	[report] text, JSON or YAML plus a pip install command
//
// # Quick Start
//
//	s := scan.New(scan.Options{
//	    Prober: pypi.NewClient(backend, cache.TTLHTTP, ""),
//	}, logger)
//	result, err := s.Scan(ctx, ".")
//	if err != nil {
//	    return err
//	}
//	return report.Write(os.Stdout, "text", result, report.TextOptions{})
//
// A nil Prober keeps the scan offline: names that no alias or installed
// distribution explains fall back to their own spelling.
//
// # Main Packages
//
// [imports] - Python import extraction backed by tree-sitter. Files with
// syntax errors, invalid UTF-8 or excess size contribute nothing.
//
// [classify] - Rule-based classification against the interpreter's builtin
// and stdlib module lists, the project's own top-level modules and its
// declared distribution name.
//
// [resolve] - Import name to distribution resolution with a per-project
// resolution cache. Concurrent lookups of one name share a single probe.
//
// [scan] - Orchestration over one root, used by the CLI and the HTTP API.
//
// [report] - Rendering of scan results.
//
// [manifest] - Readers for requirements.txt, pyproject.toml, poetry.lock and
// Pipfile, used to mark packages as declared and to find the project name.
//
// # Infrastructure
//
// [cache] - Key/value backends (file, Redis, null) for HTTP responses and
// shared resolution stores.
//
// [integrations] - Registry HTTP client with retries and cached responses.
// The [pypi] subpackage implements existence probes and metadata lookups.
//
// [errors] - Coded errors and input validation shared by the CLI and API.
//
// [observability] - Hooks for scan, resolve and HTTP events, implemented by
// the Prometheus metrics in internal/metrics.
//
// # Testing
//
//	go test ./...                        # All tests
//	go test -tags integration ./pkg/...  # Include live PyPI tests
//
// [imports]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/imports
// [classify]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/classify
// [resolve]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/resolve
// [scan]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/scan
// [report]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/report
// [manifest]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/manifest
// [cache]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/cache
// [integrations]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/integrations
// [pypi]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/integrations/pypi
// [httputil]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/findreq/pkg/buildinfo
package pkg
