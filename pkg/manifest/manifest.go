// Package manifest reads the dependencies a Python project already declares.
//
// Supported files, looked up directly in the project root:
//
//   - requirements*.txt
//   - pyproject.toml ([project] dependencies and optional-dependencies,
//     [tool.poetry] dependencies and groups)
//   - poetry.lock
//   - Pipfile
//
// Package names are normalized per PEP 503 so they compare equal to install
// names suggested by the resolver. The project's own distribution name, when
// pyproject.toml has one, is reported separately so that a project importing
// itself is not told to install itself.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/findreq/pkg/integrations"
)

// Parser reads one kind of manifest file.
type Parser interface {
	// Type returns the manifest kind, e.g. "requirements.txt".
	Type() string

	// Supports reports whether the parser handles a file with this base name.
	Supports(name string) bool

	// Parse reads the manifest at path.
	Parse(path string) (*Result, error)
}

// Result is the content of one manifest file.
type Result struct {
	Type        string   // manifest kind
	Packages    []string // normalized declared distribution names
	ProjectName string   // the project's own distribution name, if declared
}

// Parsers returns every supported parser.
func Parsers() []Parser {
	return []Parser{
		&Requirements{},
		&Pyproject{},
		&PoetryLock{},
		&Pipfile{},
	}
}

// Declared aggregates every manifest found in a project.
type Declared struct {
	Files       []string        `json:"files,omitempty"`
	Packages    map[string]bool `json:"-"`
	ProjectName string          `json:"project_name,omitempty"`
}

// Has reports whether pkg is declared, comparing PEP 503 normalized names.
func (d *Declared) Has(pkg string) bool {
	if d == nil {
		return false
	}
	return d.Packages[integrations.NormalizePkgName(pkg)]
}

// Names returns the declared packages, sorted.
func (d *Declared) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.Packages))
	for n := range d.Packages {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Discover parses every supported manifest directly inside root. Unparsable
// manifests are logged and skipped; only an unreadable root is an error.
func Discover(root string, logger *log.Logger) (*Declared, error) {
	if logger == nil {
		logger = log.Default()
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read project root: %w", err)
	}

	d := &Declared{Packages: make(map[string]bool)}
	parsers := Parsers()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, p := range parsers {
			if !p.Supports(e.Name()) {
				continue
			}
			path := filepath.Join(root, e.Name())
			res, err := p.Parse(path)
			if err != nil {
				logger.Warn("skip manifest", "file", path, "type", p.Type(), "err", err)
				break
			}
			d.Files = append(d.Files, e.Name())
			for _, pkg := range res.Packages {
				d.Packages[pkg] = true
			}
			if d.ProjectName == "" && res.ProjectName != "" {
				d.ProjectName = res.ProjectName
			}
			logger.Debug("read manifest", "file", path, "packages", len(res.Packages))
			break
		}
	}
	return d, nil
}

func normalize(name string) string {
	return integrations.NormalizePkgName(name)
}

// dedupe normalizes names and drops empties and repeats, keeping order.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = normalize(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
