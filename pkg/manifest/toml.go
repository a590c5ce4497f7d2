package manifest

import (
	"maps"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
)

// Pyproject parses pyproject.toml in both PEP 621 and Poetry layouts.
type Pyproject struct{}

func (p *Pyproject) Type() string              { return "pyproject.toml" }
func (p *Pyproject) Supports(name string) bool { return name == "pyproject.toml" }

type pyprojectFile struct {
	Project struct {
		Name                 string              `toml:"name"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name            string                    `toml:"name"`
			Dependencies    map[string]any            `toml:"dependencies"`
			DevDependencies map[string]any            `toml:"dev-dependencies"`
			Group           map[string]poetryDepGroup `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

type poetryDepGroup struct {
	Dependencies map[string]any `toml:"dependencies"`
}

func (p *Pyproject) Parse(path string) (*Result, error) {
	var doc pyprojectFile
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}

	var names []string
	for _, spec := range doc.Project.Dependencies {
		names = append(names, requirementName(spec))
	}
	for _, extra := range slices.Sorted(maps.Keys(doc.Project.OptionalDependencies)) {
		for _, spec := range doc.Project.OptionalDependencies[extra] {
			names = append(names, requirementName(spec))
		}
	}
	names = append(names, poetryNames(doc.Tool.Poetry.Dependencies)...)
	names = append(names, poetryNames(doc.Tool.Poetry.DevDependencies)...)
	for _, group := range slices.Sorted(maps.Keys(doc.Tool.Poetry.Group)) {
		names = append(names, poetryNames(doc.Tool.Poetry.Group[group].Dependencies)...)
	}

	project := doc.Tool.Poetry.Name
	if project == "" {
		project = doc.Project.Name
	}
	return &Result{Type: p.Type(), Packages: dedupe(names), ProjectName: project}, nil
}

func poetryNames(deps map[string]any) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		if name != "python" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// PoetryLock parses poetry.lock, which lists the full locked closure.
type PoetryLock struct{}

func (p *PoetryLock) Type() string              { return "poetry.lock" }
func (p *PoetryLock) Supports(name string) bool { return name == "poetry.lock" }

type lockFile struct {
	Packages []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

func (p *PoetryLock) Parse(path string) (*Result, error) {
	var lock lockFile
	if err := decodeFile(path, &lock); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(lock.Packages))
	for _, pkg := range lock.Packages {
		names = append(names, pkg.Name)
	}
	return &Result{Type: p.Type(), Packages: dedupe(names)}, nil
}

// Pipfile parses pipenv's Pipfile.
type Pipfile struct{}

func (p *Pipfile) Type() string              { return "Pipfile" }
func (p *Pipfile) Supports(name string) bool { return name == "Pipfile" }

type pipfile struct {
	Packages    map[string]any `toml:"packages"`
	DevPackages map[string]any `toml:"dev-packages"`
}

func (p *Pipfile) Parse(path string) (*Result, error) {
	var doc pipfile
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	names := poetryNames(doc.Packages)
	names = append(names, poetryNames(doc.DevPackages)...)
	return &Result{Type: p.Type(), Packages: dedupe(names)}, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return toml.Unmarshal(data, v)
}
