package classify

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
)

// Environment lists the interpreter directories consulted during classification.
type Environment struct {
	// SitePackages are searched for installed third-party modules.
	SitePackages []string `json:"site_packages,omitempty"`

	// Stdlib are searched for standard-library modules missing from the
	// bundled manifest, typically <prefix>/lib/python3.X and its lib-dynload.
	Stdlib []string `json:"stdlib,omitempty"`
}

// EnvOptions controls [DiscoverEnvironment].
type EnvOptions struct {
	SitePackages []string // explicitly configured site-packages directories
	Stdlib       []string // explicitly configured stdlib directories
	VirtualEnv   string   // usually $VIRTUAL_ENV; empty to skip
}

// venvDirs are the virtualenv names probed below the project root.
var venvDirs = []string{".venv", "venv", "env"}

// DiscoverEnvironment collects existing site-packages and stdlib directories.
//
// Site-packages come from the configured paths, the active virtualenv, and
// virtualenvs inside root, in that order. Stdlib directories are taken from
// configuration only; the lib-dynload directory below each is added when present.
// Missing directories are dropped and duplicates removed.
func DiscoverEnvironment(root string, opts EnvOptions) Environment {
	var site []string
	site = append(site, opts.SitePackages...)
	if opts.VirtualEnv != "" {
		site = append(site, venvSitePackages(opts.VirtualEnv)...)
	}
	if root != "" {
		for _, name := range venvDirs {
			site = append(site, venvSitePackages(filepath.Join(root, name))...)
		}
	}

	var std []string
	for _, dir := range opts.Stdlib {
		std = append(std, dir, filepath.Join(dir, "lib-dynload"))
	}

	return Environment{
		SitePackages: existingDirs(site),
		Stdlib:       existingDirs(std),
	}
}

func venvSitePackages(venv string) []string {
	posix, _ := filepath.Glob(filepath.Join(venv, "lib", "python3*", "site-packages"))
	slices.Sort(posix)
	// Newest interpreter first.
	slices.Reverse(posix)
	return append(posix, filepath.Join(venv, "Lib", "site-packages"))
}

func existingDirs(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}

// extensionSuffixes are compiled-module suffixes accepted outside the project.
var extensionSuffixes = []string{".so", ".pyd"}

// findModule reports whether dir contains a module called name: name.py,
// name.pyi, a name/ directory, or (when extensions is set) a compiled
// extension such as name.cpython-312-x86_64-linux-gnu.so. A not-exist result
// is (false, nil); any other stat failure is returned.
func findModule(dir, name string, extensions bool) (bool, error) {
	for _, candidate := range []string{name + ".py", name + ".pyi"} {
		ok, err := exists(filepath.Join(dir, candidate), false)
		if ok || err != nil {
			return ok, err
		}
	}
	if ok, err := exists(filepath.Join(dir, name), true); ok || err != nil {
		return ok, err
	}
	if !extensions {
		return false, nil
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		n := e.Name()
		if !strings.HasPrefix(n, name+".") {
			continue
		}
		for _, suffix := range extensionSuffixes {
			if strings.HasSuffix(n, suffix) {
				return true, nil
			}
		}
	}
	return false, nil
}

func exists(path string, wantDir bool) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return !wantDir || info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return false, nil
	default:
		return false, err
	}
}
