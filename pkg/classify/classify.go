// Package classify decides whether a top-level import name refers to a
// built-in module, a module of the scanned project, or a third-party package.
//
// Rules are applied in a fixed order and the first match wins:
//
//  1. builtin: compiled into the interpreter
//  2. stdlib: part of the standard library (bundled manifest, then any
//     configured stdlib directory)
//  3. local: a module or package directly below the project root or one of
//     its source roots, or the project's own distribution
//  4. installed: present in a discovered site-packages directory
//  5. default: found nowhere, assumed to be third-party
//
// A filesystem lookup that fails for a reason other than "does not exist"
// classifies the name as local and records the error, so an unreadable
// project never produces a spurious install suggestion.
package classify

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Category is the classification outcome of an import name.
type Category string

const (
	BuiltIn    Category = "built_in"
	Local      Category = "local"
	ThirdParty Category = "third_party"
)

// Rule names, reported in [Result.Rule].
const (
	RuleBuiltin     = "builtin"
	RuleStdlib      = "stdlib"
	RuleStdlibPath  = "stdlib-path"
	RuleLocal       = "local"
	RuleLookupError = "lookup-error"
	RuleInstalled   = "installed"
	RuleDefault     = "default"
)

// Result is the classification of one name.
type Result struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Rule     string   `json:"rule"`
	Reason   string   `json:"reason,omitempty"`
}

// Options configures a [Classifier].
type Options struct {
	// Root is the project root directory.
	Root string

	// SourceRoots are additional directories, relative to Root, whose direct
	// children are project modules (e.g. "src").
	SourceRoots []string

	// Env lists interpreter directories.
	Env Environment

	// LocalNames are distribution names that belong to the project itself.
	// They are matched against import names after PEP 503 folding.
	LocalNames []string

	Logger *log.Logger
}

// Classifier applies the rule chain. It is safe for concurrent use.
type Classifier struct {
	roots      []string
	env        Environment
	localNames set
	logger     *log.Logger
}

// New returns a classifier for the project described by opts.
func New(opts Options) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	roots := []string{opts.Root}
	for _, sr := range opts.SourceRoots {
		if sr == "" || sr == "." {
			continue
		}
		if !filepath.IsAbs(sr) {
			sr = filepath.Join(opts.Root, sr)
		}
		roots = append(roots, sr)
	}

	local := make(set, len(opts.LocalNames))
	for _, n := range opts.LocalNames {
		local[foldName(n)] = struct{}{}
	}

	return &Classifier{
		roots:      roots,
		env:        opts.Env,
		localNames: local,
		logger:     logger,
	}
}

// Classify returns the category of name. It never fails; lookup errors are
// carried in [Result.Reason].
func (c *Classifier) Classify(name string) Result {
	res := Result{Name: name}

	switch {
	case builtinModules.has(name):
		return res.with(BuiltIn, RuleBuiltin)
	case stdlibModules.has(name):
		return res.with(BuiltIn, RuleStdlib)
	}

	for _, dir := range c.env.Stdlib {
		ok, err := findModule(dir, name, true)
		if err != nil {
			return c.lookupFailed(res, dir, err)
		}
		if ok {
			return res.with(BuiltIn, RuleStdlibPath)
		}
	}

	if c.localNames.has(foldName(name)) {
		return res.with(Local, RuleLocal)
	}
	for _, dir := range c.roots {
		ok, err := findModule(dir, name, false)
		if err != nil {
			return c.lookupFailed(res, dir, err)
		}
		if ok {
			return res.with(Local, RuleLocal)
		}
	}

	for _, dir := range c.env.SitePackages {
		ok, err := findModule(dir, name, true)
		if err != nil {
			return c.lookupFailed(res, dir, err)
		}
		if ok {
			return res.with(ThirdParty, RuleInstalled)
		}
	}

	return res.with(ThirdParty, RuleDefault)
}

// ClassifyAll classifies every name, preserving order.
func (c *Classifier) ClassifyAll(names []string) []Result {
	out := make([]Result, len(names))
	for i, n := range names {
		out[i] = c.Classify(n)
	}
	return out
}

func (c *Classifier) lookupFailed(res Result, dir string, err error) Result {
	c.logger.Warn("module lookup failed, treating as local", "module", res.Name, "dir", dir, "err", err)
	res = res.with(Local, RuleLookupError)
	res.Reason = fmt.Sprintf("lookup in %s: %v", dir, err)
	return res
}

func (r Result) with(cat Category, rule string) Result {
	r.Category = cat
	r.Rule = rule
	return r
}

// foldName maps distribution and import spellings onto one key:
// "My-Project", "my.project" and "my_project" all fold to "my_project".
func foldName(name string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToLower(strings.TrimSpace(name)))
}
