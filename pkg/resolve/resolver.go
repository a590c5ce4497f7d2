// Package resolve maps third-party import names to installable PyPI
// distribution names.
//
// Sources are consulted in order and the first answer wins:
//
//  1. the resolution cache from earlier runs
//  2. the alias table (cv2 -> opencv-python, PIL -> pillow, ...)
//  3. metadata of distributions installed in the project's environment
//  4. PyPI, probing spelling variants of the name
//  5. the name itself
//
// Every answer is stored in the cache, so a later request for the same name
// costs no lookups at all.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/findreq/pkg/observability"
)

// Source identifies which step produced a [Resolution].
type Source string

const (
	SourceCache    Source = "cache"
	SourceAlias    Source = "alias"
	SourceMetadata Source = "metadata"
	SourceRegistry Source = "registry"
	SourceFallback Source = "fallback"
)

// DefaultTimeout bounds a single registry probe.
const DefaultTimeout = 2 * time.Second

// Resolution is the install identifier chosen for one import name.
type Resolution struct {
	Module  string `json:"module"`
	Package string `json:"package"`
	Source  Source `json:"source"`
	Reason  string `json:"reason,omitempty"`
}

// Prober answers whether the registry has a project with exactly this name.
type Prober interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// MetadataLookup finds the installed distribution providing a module.
type MetadataLookup interface {
	Lookup(module string) (string, bool)
}

// Options configures a [Resolver].
type Options struct {
	// Aliases overrides the alias table; nil selects [DefaultAliases].
	Aliases Aliases

	// Metadata is consulted after the alias table; nil skips the step.
	Metadata MetadataLookup

	// Prober is the registry oracle; nil means offline.
	Prober Prober

	// Timeout bounds each probe; zero selects [DefaultTimeout].
	Timeout time.Duration

	// Cache holds earlier answers; nil starts empty.
	Cache *Cache

	Logger *log.Logger
}

// Resolver resolves import names. It is safe for concurrent use; concurrent
// requests for the same name share one lookup.
type Resolver struct {
	aliases  Aliases
	metadata MetadataLookup
	prober   Prober
	timeout  time.Duration
	cache    *Cache
	logger   *log.Logger
	group    singleflight.Group
}

// New returns a resolver configured by opts.
func New(opts Options) *Resolver {
	r := &Resolver{
		aliases:  opts.Aliases,
		metadata: opts.Metadata,
		prober:   opts.Prober,
		timeout:  opts.Timeout,
		cache:    opts.Cache,
		logger:   opts.Logger,
	}
	if r.aliases == nil {
		r.aliases = NewAliases(nil)
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.cache == nil {
		r.cache = NewCache(nil)
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// Cache returns the resolver's cache.
func (r *Resolver) Cache() *Cache { return r.cache }

// Offline reports whether registry probing is disabled.
func (r *Resolver) Offline() bool { return r.prober == nil }

// Resolve returns the install identifier for name. It never fails: when every
// lookup misses, the name itself is returned with [SourceFallback]. If ctx is
// cancelled mid-lookup the fallback is returned and not cached. Fallbacks
// reached offline or after a registry failure are cached for this resolver
// only and left out of [Cache.Snapshot].
func (r *Resolver) Resolve(ctx context.Context, name string) Resolution {
	start := time.Now()
	res := r.resolve(ctx, name)
	observability.Scan().OnResolved(ctx, string(res.Source), time.Since(start))
	return res
}

func (r *Resolver) resolve(ctx context.Context, name string) Resolution {
	if pkg, ok := r.cache.Get(name); ok {
		return Resolution{Module: name, Package: pkg, Source: SourceCache}
	}

	v, _, _ := r.group.Do(name, func() (any, error) {
		if pkg, ok := r.cache.Get(name); ok {
			return Resolution{Module: name, Package: pkg, Source: SourceCache}, nil
		}
		res := r.lookup(ctx, name)
		switch {
		case ctx.Err() != nil:
			// not cached
		case res.Source == SourceFallback && (res.Reason != "" || r.Offline()):
			// The registry was not asked or could not answer; a later run
			// with a working network should try again.
			r.cache.SetTransient(name, res.Package)
		default:
			r.cache.Set(name, res.Package)
		}
		return res, nil
	})
	return v.(Resolution)
}

func (r *Resolver) lookup(ctx context.Context, name string) Resolution {
	res := Resolution{Module: name}

	if pkg, ok := r.aliases.Lookup(name); ok {
		res.Package, res.Source = pkg, SourceAlias
		return res
	}

	if r.metadata != nil {
		if pkg, ok := r.metadata.Lookup(name); ok {
			res.Package, res.Source = pkg, SourceMetadata
			return res
		}
	}

	if r.prober != nil {
		pkg, err := r.probe(ctx, name)
		if pkg != "" {
			res.Package, res.Source = pkg, SourceRegistry
			return res
		}
		if err != nil {
			res.Reason = err.Error()
		}
	}

	res.Package, res.Source = name, SourceFallback
	return res
}

// probe tries each spelling variant and returns the first the registry knows.
// Network failures count as "not found"; the last one is returned so the
// caller can record why the registry did not help.
func (r *Resolver) probe(ctx context.Context, name string) (string, error) {
	var lastErr error
	for _, candidate := range Variants(name) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pctx, cancel := context.WithTimeout(ctx, r.timeout)
		ok, err := r.prober.Exists(pctx, candidate)
		cancel()
		if err != nil {
			r.logger.Debug("registry probe failed", "module", name, "candidate", candidate, "err", err)
			lastErr = fmt.Errorf("registry probe %s: %w", candidate, err)
			continue
		}
		if ok {
			return candidate, nil
		}
	}
	return "", lastErr
}

// ResolveAll resolves names with up to workers concurrent lookups and returns
// the results keyed by name. workers < 2 resolves sequentially.
func (r *Resolver) ResolveAll(ctx context.Context, names []string, workers int) map[string]Resolution {
	out := make(map[string]Resolution, len(names))
	if workers < 2 {
		for _, n := range names {
			out[n] = r.Resolve(ctx, n)
		}
		return out
	}

	results := make([]Resolution, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, n := range names {
		g.Go(func() error {
			results[i] = r.Resolve(gctx, n)
			return nil
		})
	}
	_ = g.Wait()

	for i, n := range names {
		out[n] = results[i]
	}
	return out
}

// Variants returns the registry spellings tried for name, in order: as
// written, lower-cased, underscores replaced by hyphens, and both. Duplicates
// are dropped.
func Variants(name string) []string {
	lower := strings.ToLower(name)
	candidates := []string{
		name,
		lower,
		strings.ReplaceAll(name, "_", "-"),
		strings.ReplaceAll(lower, "_", "-"),
	}
	out := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
