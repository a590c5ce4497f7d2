package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxPackageNameLength = 256
	maxPathLength        = 4096
)

// pythonPackageName matches a PEP 508 distribution name.
var pythonPackageName = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidatePythonPackageName checks a distribution name before it is placed
// in a registry URL. Besides PEP 508 syntax it rejects ".." so that a name
// can never climb out of the project path on a mirror.
func ValidatePythonPackageName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	case len(name) > maxPackageNameLength:
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxPackageNameLength)
	case strings.Contains(name, ".."), !pythonPackageName.MatchString(name):
		return New(ErrCodeInvalidPackage, "invalid Python package name: %q", name)
	}
	return nil
}

// ValidateModuleName checks a top-level import name: a letter or underscore
// followed by letters, digits or underscores. Dotted paths must be cut to
// their first component by the caller.
func ValidateModuleName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidModule, "module name cannot be empty")
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return New(ErrCodeInvalidModule, "invalid Python module name: %q", name)
	}
	return nil
}

// ValidatePath checks a project root given on the command line or over the
// HTTP API. Confinement to a base directory is the caller's job.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(path) > maxPathLength:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	case strings.IndexFunc(path, unicode.IsControl) >= 0:
		return New(ErrCodeInvalidPath, "path contains control characters")
	}
	return nil
}

// ValidateURL checks a package index URL: absolute, http or https, with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https, got %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL has no host: %q", rawURL)
	}
	return nil
}
