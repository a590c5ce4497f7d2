// Package scan runs the findreq pipeline over one project:
// walk → extract imports → classify → resolve → result.
//
// A [Scanner] holds configuration only and can scan many roots, possibly
// concurrently, as the HTTP API does.
package scan

import (
	"context"
	"runtime"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/findreq/pkg/classify"
	"github.com/matzehuels/findreq/pkg/imports"
	"github.com/matzehuels/findreq/pkg/observability"
	"github.com/matzehuels/findreq/pkg/resolve"
)

// StoreFactory returns the resolution store for a project root.
// Returning nil disables persistence for that scan.
type StoreFactory func(root string) resolve.Store

// Options configures a [Scanner].
type Options struct {
	Exclude     []string
	ExcludeDirs []string
	SourceRoots []string

	// Workers bounds concurrent file parsing; zero selects runtime.NumCPU().
	Workers int

	// ResolveWorkers bounds concurrent resolutions; below 2 is sequential.
	ResolveWorkers int

	// MaxFileSize skips larger files; zero selects imports.DefaultMaxFileSize.
	MaxFileSize int64

	Env classify.EnvOptions

	Aliases resolve.Aliases
	Prober  resolve.Prober // nil for offline
	Timeout time.Duration

	// Store persists resolutions; nil disables the resolution cache.
	Store StoreFactory

	// Refresh ignores stored resolutions but still saves new ones.
	Refresh bool
}

// Scanner runs scans. It is safe for concurrent use.
type Scanner struct {
	opts      Options
	extractor *imports.Extractor
	Logger    *log.Logger
}

// New returns a scanner. A nil logger selects log.Default().
func New(opts Options, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Scanner{
		opts:      opts,
		extractor: imports.NewExtractor(opts.MaxFileSize),
		Logger:    logger,
	}
}

// Scan analyzes the project at root.
//
// Only an invalid root and context cancellation are errors. Unparsable files,
// failed lookups and an unusable resolution cache are logged and recorded on
// the result.
func (s *Scanner) Scan(ctx context.Context, root string) (result *Result, err error) {
	start := time.Now()
	hooks := observability.Scan()

	root, err = absRoot(root)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := s.Logger.With("scan", id[:8])
	hooks.OnScanStart(ctx, root)
	defer func() {
		files, names := 0, 0
		if result != nil {
			files, names = result.Stats.Files, result.Stats.Names
		}
		hooks.OnScanComplete(ctx, root, files, names, time.Since(start), err)
	}()

	files, err := Walk(root, WalkOptions{Exclude: s.opts.Exclude, ExcludeDirs: s.opts.ExcludeDirs, Logger: logger})
	if err != nil {
		return nil, err
	}
	logger.Debug("found sources", "root", root, "files", len(files))

	proj := s.openProject(root, logger)
	declared := proj.declared

	parsed, err := s.extractAll(ctx, files)
	if err != nil {
		return nil, err
	}

	names := unionNames(parsed)
	result = &Result{
		ID:            id,
		Root:          root,
		BuiltIn:       []string{},
		Local:         []string{},
		ThirdParty:    make(map[string]string),
		Declared:      make(map[string]bool),
		ManifestFiles: declared.Files,
		ProjectName:   declared.ProjectName,
		Files:         parsed,
	}
	result.Stats.Files = len(files)
	result.Stats.Names = len(names)
	for _, f := range parsed {
		hooks.OnFileParsed(ctx, f.OK())
		if f.OK() {
			result.Stats.Parsed++
			continue
		}
		result.Stats.Failed++
		result.Failures = append(result.Failures, FileFailure{Path: f.Path, Error: f.Err.Error()})
		logger.Debug("skip file", "file", f.Path, "err", f.Err)
	}

	var thirdParty []string
	result.Classifications = proj.classifier.ClassifyAll(names)
	for _, c := range result.Classifications {
		hooks.OnClassified(ctx, string(c.Category), c.Rule)
		switch c.Category {
		case classify.BuiltIn:
			result.BuiltIn = append(result.BuiltIn, c.Name)
		case classify.Local:
			result.Local = append(result.Local, c.Name)
		default:
			thirdParty = append(thirdParty, c.Name)
		}
	}

	resolver := proj.resolver(ctx)
	result.Stats.Online = !resolver.Offline()

	resolved := resolver.ResolveAll(ctx, thirdParty, s.opts.ResolveWorkers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, name := range thirdParty {
		res := resolved[name]
		result.ThirdParty[name] = res.Package
		result.Resolutions = append(result.Resolutions, res)
		if res.Source == resolve.SourceCache {
			result.Stats.CacheHits++
		}
		if declared.Has(res.Package) {
			result.Declared[res.Package] = true
		}
	}
	if result.Resolutions == nil {
		result.Resolutions = []resolve.Resolution{}
	}

	proj.saveCache(ctx, resolver.Cache())

	result.Stats.Duration = time.Since(start)
	logger.Info("scan complete",
		"files", result.Stats.Files,
		"failed", result.Stats.Failed,
		"built_in", len(result.BuiltIn),
		"local", len(result.Local),
		"third_party", len(result.ThirdParty),
		"duration", result.Stats.Duration)
	return result, nil
}

func (s *Scanner) extractAll(ctx context.Context, files []string) ([]imports.FileImports, error) {
	out := make([]imports.FileImports, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.extractor.Extract(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// unionNames merges per-file names into one sorted set.
func unionNames(files []imports.FileImports) []string {
	set := make(map[string]struct{})
	for _, f := range files {
		for _, n := range f.Names {
			set[n] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
