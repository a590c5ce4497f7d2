package pypi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/findreq/pkg/cache"
	ferrors "github.com/matzehuels/findreq/pkg/errors"
	"github.com/matzehuels/findreq/pkg/integrations"
)

// DefaultBaseURL is the JSON API root of the public index.
const DefaultBaseURL = "https://pypi.org/pypi"

// PackageInfo holds metadata for a Python package from PyPI.
//
// Zero values: All string fields are empty.
// This struct is safe for concurrent reads after construction.
type PackageInfo struct {
	Name     string `json:"name"`               // Project name as published (e.g., "Flask")
	Version  string `json:"version"`            // Latest version (e.g., "3.0.0")
	Summary  string `json:"summary,omitempty"`  // Short package description
	License  string `json:"license,omitempty"`  // License name or expression
	HomePage string `json:"homepage,omitempty"` // Homepage URL
}

// Client provides access to the PyPI package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (nil disables caching)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
//   - baseURL: JSON API root; empty selects [DefaultBaseURL]
//   - opts: timeout and retry settings for the underlying HTTP client
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration, baseURL string, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(backend, "pypi", cacheTTL, map[string]string{"Accept": "application/json"}, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Exists reports whether PyPI knows a project called exactly name.
//
// The name is sent as given, without PEP 503 normalization, so callers can
// probe spelling variants one at a time. A 404 yields (false, nil). Network
// failures, timeouts and unexpected statuses yield (false, err); callers that
// only need a yes/no answer treat those as "not found".
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	if err := ferrors.ValidatePythonPackageName(name); err != nil {
		return false, err
	}
	err := c.Probe(ctx, c.projectURL(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, integrations.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// FetchPackage retrieves metadata for a Python package from PyPI.
//
// The pkg parameter is normalized automatically (case-insensitive, underscores→hyphens).
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
// If refresh is false, cached data is returned if available and not expired.
//
// Returns:
//   - PackageInfo populated with metadata on success
//   - [integrations.ErrNotFound] if the package doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - Other errors for invalid names and JSON decoding failures
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	if err := ferrors.ValidatePythonPackageName(pkg); err != nil {
		return nil, err
	}
	pkg = integrations.NormalizePkgName(pkg)

	var info PackageInfo
	err := c.Cached(ctx, pkg, refresh, &info, func() error {
		return c.fetch(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, info *PackageInfo) error {
	var data apiResponse
	if err := c.Get(ctx, c.projectURL(pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi package %s", err, pkg)
		}
		return err
	}

	*info = PackageInfo{
		Name:     data.Info.Name,
		Version:  data.Info.Version,
		Summary:  data.Info.Summary,
		License:  extractLicenseType(data.Info.License, data.Info.Classifiers),
		HomePage: data.Info.HomePage,
	}
	return nil
}

func (c *Client) projectURL(name string) string {
	return fmt.Sprintf("%s/%s/json", c.baseURL, url.PathEscape(name))
}

type apiResponse struct {
	Info apiInfo `json:"info"`
}

type apiInfo struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Summary     string   `json:"summary"`
	License     string   `json:"license"`
	Classifiers []string `json:"classifiers"`
	HomePage    string   `json:"home_page"`
}

// extractLicenseType extracts a short license identifier from PyPI data.
// It prefers the classifier (e.g., "License :: OSI Approved :: MIT License" -> "MIT License")
// and falls back to the first line of the license field.
func extractLicenseType(license string, classifiers []string) string {
	for _, c := range classifiers {
		if !strings.HasPrefix(c, "License :: ") {
			continue
		}
		if parts := strings.Split(c, " :: "); len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	if license != "" && len(license) < 100 && !strings.Contains(license, "\n") {
		return strings.TrimSpace(license)
	}

	if license != "" {
		firstLine := strings.TrimSpace(strings.Split(license, "\n")[0])
		if len(firstLine) < 50 {
			return firstLine
		}
	}
	return ""
}
