package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/findreq/pkg/resolve"
	"github.com/matzehuels/findreq/pkg/scan"
)

func sampleResult() *scan.Result {
	return &scan.Result{
		ID:      "0b7e3c1e-0000-4000-8000-000000000000",
		Root:    "/work/app",
		BuiltIn: []string{"os", "sys"},
		Local:   []string{"helpers"},
		ThirdParty: map[string]string{
			"cv2":      "opencv-python",
			"requests": "requests",
			"PIL":      "pillow",
			"pil":      "pillow",
		},
		Declared: map[string]bool{"requests": true},
		Resolutions: []resolve.Resolution{
			{Module: "PIL", Package: "pillow", Source: resolve.SourceAlias},
			{Module: "cv2", Package: "opencv-python", Source: resolve.SourceAlias},
			{Module: "pil", Package: "pillow", Source: resolve.SourceAlias},
			{Module: "requests", Package: "requests", Source: resolve.SourceRegistry},
		},
		Stats: scan.Stats{Files: 3, Parsed: 3, Names: 7, Duration: 1500 * time.Millisecond},
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleResult(), TextOptions{}))

	want := `Built-in modules:
- os
- sys

Local modules:
- helpers

Third-party packages:
- PIL  (install: pillow)
- cv2  (install: opencv-python)
- pil  (install: pillow)
- requests  (install: requests) [declared]

Suggested installation command:
pip install opencv-python pillow requests
`
	assert.Equal(t, want, buf.String())
}

func TestText_MissingOnlyAndVerb(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleResult(), TextOptions{Verb: "uv pip install", MissingOnly: true}))
	assert.True(t, strings.HasSuffix(buf.String(), "uv pip install opencv-python pillow\n"), buf.String())
}

func TestText_AllDeclared(t *testing.T) {
	r := sampleResult()
	r.ThirdParty = map[string]string{"requests": "requests"}

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, r, TextOptions{MissingOnly: true}))
	assert.Contains(t, buf.String(), "All third-party packages are already declared.")
}

func TestText_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, &scan.Result{}, TextOptions{}))

	want := `Built-in modules:
(none)

Local modules:
(none)

Third-party packages:
(none)

No third-party packages found.
`
	assert.Equal(t, want, buf.String())
}

func TestText_SelectedPackages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleResult(), TextOptions{Packages: []string{"pillow"}}))
	assert.True(t, strings.HasSuffix(buf.String(), "pip install pillow\n"))
}

func TestText_EmptySelection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleResult(), TextOptions{Packages: []string{}}))
	assert.True(t, strings.HasSuffix(buf.String(), "No packages selected.\n"))
}

func TestText_Styles(t *testing.T) {
	var buf bytes.Buffer
	styles := Styles{Heading: func(s string) string { return "<" + s + ">" }}
	require.NoError(t, Text(&buf, sampleResult(), TextOptions{Styles: styles}))
	assert.Contains(t, buf.String(), "<Built-in modules:>\n")
	assert.Contains(t, buf.String(), "<Suggested installation command:>\n")
}

func TestInstallCommand(t *testing.T) {
	assert.Equal(t, "pip install a b c", InstallCommand("", []string{"c", "a", "b", "a"}))
	assert.Equal(t, "poetry add x", InstallCommand("poetry add", []string{"x"}))
	assert.Equal(t, "", InstallCommand("pip install", nil))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleResult(), ""))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, []string{"opencv-python", "pillow", "requests"}, doc.Packages)
	assert.Equal(t, []string{"opencv-python", "pillow"}, doc.Missing)
	assert.Equal(t, "pip install opencv-python pillow requests", doc.InstallCommand)
	require.Len(t, doc.Resolutions, 4)
	assert.True(t, doc.Resolutions[3].Declared)
	assert.Equal(t, "registry", doc.Resolutions[3].Source)
	assert.Equal(t, "1.5s", doc.Stats.Duration)
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, sampleResult(), "pip install"))

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "/work/app", doc.Root)
	assert.Equal(t, []string{"os", "sys"}, doc.BuiltIn)
	assert.Equal(t, "pillow", doc.ThirdParty["PIL"])
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "xml", sampleResult(), TextOptions{})
	assert.ErrorContains(t, err, "unknown format")
}

func TestNewDocument_EmptyResult(t *testing.T) {
	doc := NewDocument(&scan.Result{}, "")
	assert.NotNil(t, doc.BuiltIn)
	assert.NotNil(t, doc.ThirdParty)
	assert.NotNil(t, doc.Resolutions)
	assert.Equal(t, "", doc.InstallCommand)
}
