package scan

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/findreq/pkg/classify"
	ferrors "github.com/matzehuels/findreq/pkg/errors"
	"github.com/matzehuels/findreq/pkg/manifest"
	"github.com/matzehuels/findreq/pkg/resolve"
)

// project holds the per-root collaborators shared by Scan, Classify and
// Resolve.
type project struct {
	opts       *Options
	declared   *manifest.Declared
	env        classify.Environment
	classifier *classify.Classifier
	store      resolve.Store
	logger     *log.Logger
}

func absRoot(root string) (string, error) {
	if err := ferrors.ValidatePath(root); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", ferrors.Wrap(ferrors.ErrCodeInvalidPath, err, "resolve %s", root)
	}
	return abs, nil
}

// checkNames rejects anything that is not a top-level import name.
func checkNames(names []string) error {
	for _, n := range names {
		if err := ferrors.ValidateModuleName(n); err != nil {
			return err
		}
	}
	return nil
}

func checkDir(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidPath, err, "project root %s", root)
	}
	if !info.IsDir() {
		return ferrors.New(ferrors.ErrCodeInvalidPath, "project root %s is not a directory", root)
	}
	return nil
}

// openProject reads manifests and discovers the interpreter layout of an
// absolute root. Manifest problems are logged, never fatal.
func (s *Scanner) openProject(root string, logger *log.Logger) *project {
	declared, err := manifest.Discover(root, logger)
	if err != nil {
		logger.Warn("read manifests", "err", err)
		declared = &manifest.Declared{Packages: map[string]bool{}}
	}

	env := classify.DiscoverEnvironment(root, s.opts.Env)
	logger.Debug("python environment", "site_packages", env.SitePackages, "stdlib", env.Stdlib)

	var localNames []string
	if declared.ProjectName != "" {
		localNames = append(localNames, declared.ProjectName)
	}

	var store resolve.Store
	if s.opts.Store != nil {
		store = s.opts.Store(root)
	}

	return &project{
		opts:     &s.opts,
		declared: declared,
		env:      env,
		classifier: classify.New(classify.Options{
			Root:        root,
			SourceRoots: s.opts.SourceRoots,
			Env:         env,
			LocalNames:  localNames,
			Logger:      logger,
		}),
		store:  store,
		logger: logger,
	}
}

// resolver builds a resolver primed from the project's store.
func (p *project) resolver(ctx context.Context) *resolve.Resolver {
	return resolve.New(resolve.Options{
		Aliases:  p.opts.Aliases,
		Metadata: resolve.NewMetadataIndex(p.env.SitePackages, p.logger),
		Prober:   p.opts.Prober,
		Timeout:  p.opts.Timeout,
		Cache:    p.loadCache(ctx),
		Logger:   p.logger,
	})
}

func (p *project) loadCache(ctx context.Context) *resolve.Cache {
	if p.store == nil || p.opts.Refresh {
		return resolve.NewCache(nil)
	}
	entries, err := p.store.Load(ctx)
	if err != nil {
		p.logger.Warn("ignoring resolution cache", "location", p.store.Location(), "err", err)
	}
	p.logger.Debug("loaded resolution cache", "location", p.store.Location(), "entries", len(entries))
	return resolve.NewCache(entries)
}

func (p *project) saveCache(ctx context.Context, c *resolve.Cache) {
	if p.store == nil || !c.Dirty() {
		return
	}
	if err := p.store.Save(ctx, c.Snapshot()); err != nil {
		p.logger.Warn("could not save resolution cache", "location", p.store.Location(), "err", err)
		return
	}
	c.MarkClean()
	p.logger.Debug("saved resolution cache", "location", p.store.Location(), "entries", c.Len())
}

// Classify classifies names as if they were imported by the project at root.
func (s *Scanner) Classify(root string, names []string) ([]classify.Result, error) {
	if err := checkNames(names); err != nil {
		return nil, err
	}
	root, err := absRoot(root)
	if err != nil {
		return nil, err
	}
	if err := checkDir(root); err != nil {
		return nil, err
	}
	return s.openProject(root, s.Logger).classifier.ClassifyAll(names), nil
}

// Resolve maps names to install identifiers using the project's environment
// and resolution cache. Results follow the order of names.
func (s *Scanner) Resolve(ctx context.Context, root string, names []string) ([]resolve.Resolution, error) {
	if err := checkNames(names); err != nil {
		return nil, err
	}
	root, err := absRoot(root)
	if err != nil {
		return nil, err
	}
	if err := checkDir(root); err != nil {
		return nil, err
	}

	proj := s.openProject(root, s.Logger)
	resolver := proj.resolver(ctx)
	resolved := resolver.ResolveAll(ctx, names, s.opts.ResolveWorkers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	proj.saveCache(ctx, resolver.Cache())

	out := make([]resolve.Resolution, 0, len(names))
	for _, n := range names {
		out = append(out, resolved[n])
	}
	return out, nil
}
