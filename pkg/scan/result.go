package scan

import (
	"slices"
	"time"

	"github.com/matzehuels/findreq/pkg/classify"
	"github.com/matzehuels/findreq/pkg/imports"
	"github.com/matzehuels/findreq/pkg/resolve"
)

// Result is the outcome of one scan. All slices are sorted and the value is
// not modified after [Scanner.Scan] returns.
type Result struct {
	// ID correlates log lines and API responses of one scan.
	ID   string `json:"id"`
	Root string `json:"root"`

	BuiltIn    []string          `json:"built_in"`
	Local      []string          `json:"local"`
	ThirdParty map[string]string `json:"third_party"`

	// Declared marks install identifiers already listed in a manifest.
	Declared      map[string]bool `json:"declared,omitempty"`
	ManifestFiles []string        `json:"manifest_files,omitempty"`
	ProjectName   string          `json:"project_name,omitempty"`

	Classifications []classify.Result     `json:"classifications"`
	Resolutions     []resolve.Resolution  `json:"resolutions"`
	Files           []imports.FileImports `json:"-"`
	Failures        []FileFailure         `json:"failures,omitempty"`

	Stats Stats `json:"stats"`
}

// FileFailure records a source file that contributed no imports.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Stats summarizes a scan.
type Stats struct {
	Files     int           `json:"files"`
	Parsed    int           `json:"parsed"`
	Failed    int           `json:"failed"`
	Names     int           `json:"names"`
	CacheHits int           `json:"cache_hits"`
	Online    bool          `json:"online"`
	Duration  time.Duration `json:"duration_ns"`
}

// Packages returns the distinct install identifiers, sorted.
func (r *Result) Packages() []string {
	return distinctValues(r.ThirdParty, nil)
}

// Missing returns the distinct install identifiers not declared in any
// manifest, sorted.
func (r *Result) Missing() []string {
	return distinctValues(r.ThirdParty, r.Declared)
}

func distinctValues(m map[string]string, skip map[string]bool) []string {
	seen := make(map[string]bool, len(m))
	out := make([]string, 0, len(m))
	for _, pkg := range m {
		if seen[pkg] || skip[pkg] {
			continue
		}
		seen[pkg] = true
		out = append(out, pkg)
	}
	slices.Sort(out)
	return out
}

// Modules returns the third-party import names, sorted.
func (r *Result) Modules() []string {
	out := make([]string, 0, len(r.ThirdParty))
	for mod := range r.ThirdParty {
		out = append(out, mod)
	}
	slices.Sort(out)
	return out
}
