// Package report renders scan results for people and machines.
//
// [Text] prints the three category sections followed by a single suggested
// install command. [JSON] and [YAML] emit the same data in structured form.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/findreq/pkg/scan"
)

// DefaultVerb is the install command prefix.
const DefaultVerb = "pip install"

// Styles decorates text output. The zero value prints plain text.
type Styles struct {
	Heading func(string) string
	Detail  func(string) string
	Command func(string) string
}

func (s Styles) heading(v string) string { return apply(s.Heading, v) }
func (s Styles) detail(v string) string  { return apply(s.Detail, v) }
func (s Styles) command(v string) string { return apply(s.Command, v) }

func apply(f func(string) string, v string) string {
	if f == nil {
		return v
	}
	return f(v)
}

// TextOptions controls [Text].
type TextOptions struct {
	// Verb prefixes the install command; empty selects DefaultVerb.
	Verb string

	// MissingOnly limits the install command to undeclared packages.
	MissingOnly bool

	// Packages overrides the packages in the install command, e.g. after an
	// interactive selection. Nil uses the result.
	Packages []string

	Styles Styles
}

// Text writes the human-readable summary.
func Text(w io.Writer, r *scan.Result, opts TextOptions) error {
	p := &printer{w: w}

	p.section(opts.Styles.heading("Built-in modules:"), r.BuiltIn, func(m string) string { return "- " + m })
	p.println()
	p.section(opts.Styles.heading("Local modules:"), r.Local, func(m string) string { return "- " + m })
	p.println()
	p.section(opts.Styles.heading("Third-party packages:"), r.Modules(), func(m string) string {
		pkg := r.ThirdParty[m]
		line := fmt.Sprintf("- %s  (install: %s)", m, pkg)
		if r.Declared[pkg] {
			line += opts.Styles.detail(" [declared]")
		}
		return line
	})
	p.println()

	pkgs := opts.Packages
	if pkgs == nil {
		pkgs = r.Packages()
		if opts.MissingOnly {
			pkgs = r.Missing()
		}
	}

	switch {
	case len(r.ThirdParty) == 0:
		p.println("No third-party packages found.")
	case len(pkgs) == 0 && opts.Packages != nil:
		p.println("No packages selected.")
	case len(pkgs) == 0:
		p.println("All third-party packages are already declared.")
	default:
		p.println(opts.Styles.heading("Suggested installation command:"))
		p.println(opts.Styles.command(InstallCommand(opts.Verb, pkgs)))
	}
	return p.err
}

// InstallCommand joins the distinct packages, sorted, behind verb.
// It returns "" when pkgs is empty.
func InstallCommand(verb string, pkgs []string) string {
	if len(pkgs) == 0 {
		return ""
	}
	if verb = strings.TrimSpace(verb); verb == "" {
		verb = DefaultVerb
	}
	sorted := slices.Clone(pkgs)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return verb + " " + strings.Join(sorted, " ")
}

// Document is the structured form of a scan result.
type Document struct {
	ID             string             `json:"id" yaml:"id"`
	Root           string             `json:"root" yaml:"root"`
	BuiltIn        []string           `json:"built_in" yaml:"built_in"`
	Local          []string           `json:"local" yaml:"local"`
	ThirdParty     map[string]string  `json:"third_party" yaml:"third_party"`
	Packages       []string           `json:"packages" yaml:"packages"`
	Missing        []string           `json:"missing" yaml:"missing"`
	InstallCommand string             `json:"install_command" yaml:"install_command"`
	Resolutions    []Resolution       `json:"resolutions" yaml:"resolutions"`
	Failures       []scan.FileFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Stats          Stats              `json:"stats" yaml:"stats"`
}

// Resolution describes how one third-party module was resolved.
type Resolution struct {
	Module   string `json:"module" yaml:"module"`
	Package  string `json:"package" yaml:"package"`
	Source   string `json:"source" yaml:"source"`
	Declared bool   `json:"declared" yaml:"declared"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Stats mirrors scan.Stats with a readable duration.
type Stats struct {
	Files     int    `json:"files" yaml:"files"`
	Parsed    int    `json:"parsed" yaml:"parsed"`
	Failed    int    `json:"failed" yaml:"failed"`
	Names     int    `json:"names" yaml:"names"`
	CacheHits int    `json:"cache_hits" yaml:"cache_hits"`
	Online    bool   `json:"online" yaml:"online"`
	Duration  string `json:"duration" yaml:"duration"`
}

// NewDocument converts a result using verb for the install command.
func NewDocument(r *scan.Result, verb string) Document {
	doc := Document{
		ID:             r.ID,
		Root:           r.Root,
		BuiltIn:        nonNil(r.BuiltIn),
		Local:          nonNil(r.Local),
		ThirdParty:     r.ThirdParty,
		Packages:       r.Packages(),
		Missing:        r.Missing(),
		InstallCommand: InstallCommand(verb, r.Packages()),
		Resolutions:    make([]Resolution, 0, len(r.Resolutions)),
		Failures:       r.Failures,
		Stats: Stats{
			Files:     r.Stats.Files,
			Parsed:    r.Stats.Parsed,
			Failed:    r.Stats.Failed,
			Names:     r.Stats.Names,
			CacheHits: r.Stats.CacheHits,
			Online:    r.Stats.Online,
			Duration:  r.Stats.Duration.String(),
		},
	}
	if doc.ThirdParty == nil {
		doc.ThirdParty = map[string]string{}
	}
	for _, res := range r.Resolutions {
		doc.Resolutions = append(doc.Resolutions, Resolution{
			Module:   res.Module,
			Package:  res.Package,
			Source:   string(res.Source),
			Declared: r.Declared[res.Package],
			Reason:   res.Reason,
		})
	}
	return doc
}

// JSON writes the result as indented JSON.
func JSON(w io.Writer, r *scan.Result, verb string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(r, verb))
}

// YAML writes the result as YAML.
func YAML(w io.Writer, r *scan.Result, verb string) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(r, verb)); err != nil {
		return err
	}
	return enc.Close()
}

// Formats lists the accepted --format values.
var Formats = []string{"text", "json", "yaml"}

// Write renders r in format. Unknown formats are an error.
func Write(w io.Writer, format string, r *scan.Result, opts TextOptions) error {
	switch format {
	case "", "text":
		return Text(w, r, opts)
	case "json":
		return JSON(w, r, opts.Verb)
	case "yaml", "yml":
		return YAML(w, r, opts.Verb)
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) println(a ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, a...)
}

func (p *printer) section(title string, items []string, line func(string) string) {
	p.println(title)
	if len(items) == 0 {
		p.println("(none)")
		return
	}
	for _, it := range items {
		p.println(line(it))
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
