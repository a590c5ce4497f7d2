package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/findreq/internal/metrics"
	"github.com/matzehuels/findreq/pkg/observability"
	"github.com/matzehuels/findreq/pkg/report"
	"github.com/matzehuels/findreq/pkg/scan"
)

func newTestServer(t *testing.T, base string) *httptest.Server {
	t.Helper()
	t.Cleanup(observability.Reset)

	m := metrics.New()
	m.Register()
	srv := &server{
		logger: log.New(io.Discard),
		opts: scan.Options{
			Exclude:     scan.DefaultExclude,
			ExcludeDirs: scan.DefaultExcludeDirs,
		},
		base:    base,
		verb:    report.DefaultVerb,
		metrics: m,
	}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, u string) (int, string) {
	t.Helper()
	resp, err := http.Get(u)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func TestServeHealth(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	status, body := get(t, ts.URL+"/healthz")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("body = %s", body)
	}
}

func TestServeScan(t *testing.T) {
	base := writeProject(t, map[string]string{
		"svc/app.py": "import json\nimport yaml\n",
	})
	ts := newTestServer(t, base)

	status, body := get(t, ts.URL+"/scan?root=svc")
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	var doc report.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Root != filepath.Join(base, "svc") {
		t.Errorf("root = %q", doc.Root)
	}
	if doc.ThirdParty["yaml"] != "pyyaml" {
		t.Errorf("third_party = %v", doc.ThirdParty)
	}

	status, body = get(t, ts.URL+"/scan?root=svc&format=text")
	if status != http.StatusOK || !strings.HasSuffix(body, "pip install pyyaml\n") {
		t.Errorf("text format: status %d, body %s", status, body)
	}

	status, body = get(t, ts.URL+"/metrics")
	if status != http.StatusOK || !strings.Contains(body, `findreq_scan_total{status="ok"}`) {
		t.Errorf("metrics: status %d, body missing scan counter", status)
	}
}

func TestServeScanErrors(t *testing.T) {
	base := t.TempDir()
	ts := newTestServer(t, base)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"outside base", "root=" + url.QueryEscape(filepath.Dir(base)), "INVALID_PATH"},
		{"parent escape", "root=" + url.QueryEscape("../.."), "INVALID_PATH"},
		{"missing dir", "root=nope", "INVALID_PATH"},
		{"bad format", "format=xml", "INVALID_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, ts.URL+"/scan?"+tt.query)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", status, body)
			}
			var payload map[string]string
			if err := json.Unmarshal([]byte(body), &payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if payload["code"] != tt.code {
				t.Errorf("code = %q, want %q", payload["code"], tt.code)
			}
		})
	}
}

func TestResolveRoot(t *testing.T) {
	s := &server{base: "/srv/projects"}

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "/srv/projects", false},
		{"app", "/srv/projects/app", false},
		{"/srv/projects/app/sub", "/srv/projects/app/sub", false},
		{"/srv/projects", "/srv/projects", false},
		{"/srv/projects-other", "", true},
		{"app/../../etc", "", true},
		{"/etc", "", true},
	}
	for _, tt := range tests {
		got, err := s.resolveRoot(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveRoot(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveRoot(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
