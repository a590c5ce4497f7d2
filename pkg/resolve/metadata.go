package resolve

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// MetadataIndex maps import names to the installed distributions that
// provide them, read from *.dist-info and *.egg-info directories.
//
// The index is built lazily on the first lookup and never refreshed.
// It is safe for concurrent use.
type MetadataIndex struct {
	dirs   []string
	logger *log.Logger

	once    sync.Once
	modules map[string]string
	dists   int
}

// NewMetadataIndex indexes the given site-packages directories. Earlier
// directories win when two distributions claim the same module.
func NewMetadataIndex(sitePackages []string, logger *log.Logger) *MetadataIndex {
	if logger == nil {
		logger = log.Default()
	}
	return &MetadataIndex{dirs: sitePackages, logger: logger}
}

// Lookup returns the distribution name that provides module.
func (m *MetadataIndex) Lookup(module string) (string, bool) {
	if m == nil {
		return "", false
	}
	m.once.Do(m.build)
	dist, ok := m.modules[module]
	return dist, ok
}

// Len returns the number of indexed distributions.
func (m *MetadataIndex) Len() int {
	m.once.Do(m.build)
	return m.dists
}

func (m *MetadataIndex) build() {
	m.modules = make(map[string]string)
	for _, dir := range m.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			m.logger.Debug("skip site-packages", "dir", dir, "err", err)
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if !e.IsDir() || !(strings.HasSuffix(name, ".dist-info") || strings.HasSuffix(name, ".egg-info")) {
				continue
			}
			info, err := readDistribution(filepath.Join(dir, name))
			if err != nil {
				m.logger.Debug("skip distribution", "path", filepath.Join(dir, name), "err", err)
				continue
			}
			m.dists++
			for _, mod := range info.modules {
				if _, taken := m.modules[mod]; !taken {
					m.modules[mod] = info.name
				}
			}
		}
	}
	m.logger.Debug("indexed installed distributions", "dists", m.dists, "modules", len(m.modules))
}

type distribution struct {
	name    string
	modules []string
}

var errNoName = errors.New("metadata has no Name header")

func readDistribution(path string) (distribution, error) {
	var d distribution

	name, err := readName(path)
	if err != nil {
		return d, err
	}
	d.name = name

	if mods, err := readTopLevel(filepath.Join(path, "top_level.txt")); err == nil && len(mods) > 0 {
		d.modules = mods
		return d, nil
	}
	d.modules = readRecord(filepath.Join(path, "RECORD"))
	if len(d.modules) == 0 {
		d.modules = readRecord(filepath.Join(path, "installed-files.txt"))
	}
	return d, nil
}

// readName reads the Name header of METADATA (wheels) or PKG-INFO (eggs).
// Both use RFC 822 header syntax.
func readName(path string) (string, error) {
	var lastErr error
	for _, file := range []string{"METADATA", "PKG-INFO"} {
		f, err := os.Open(filepath.Join(path, file))
		if err != nil {
			lastErr = err
			continue
		}
		msg, err := mail.ReadMessage(bufio.NewReader(f))
		f.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if name := strings.TrimSpace(msg.Header.Get("Name")); name != "" {
			return name, nil
		}
		lastErr = errNoName
	}
	return "", lastErr
}

func readTopLevel(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mods []string
	for _, line := range strings.Split(string(data), "\n") {
		// Entries may be nested packages ("google/protobuf"); keep the top.
		line = strings.TrimSpace(line)
		line, _, _ = strings.Cut(line, "/")
		if line != "" && !slices.Contains(mods, line) {
			mods = append(mods, line)
		}
	}
	return mods, nil
}

// readRecord derives top-level modules from the installed file list:
// "pkg/__init__.py" yields pkg, "mod.py" yields mod and compiled extensions
// "ext.cpython-312-x86_64-linux-gnu.so" yield ext.
func readRecord(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	seen := make(map[string]bool)
	var mods []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip malformed lines. csv.Reader repeats a read error on every call.
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				break
			}
			continue
		}
		if len(rec) == 0 {
			continue
		}
		if mod := recordModule(filepath.ToSlash(rec[0])); mod != "" && !seen[mod] {
			seen[mod] = true
			mods = append(mods, mod)
		}
	}
	return mods
}

func recordModule(entry string) string {
	if entry == "" || strings.HasPrefix(entry, "../") || strings.HasPrefix(entry, "/") {
		return ""
	}
	if first, _, nested := strings.Cut(entry, "/"); nested {
		if strings.HasSuffix(first, ".dist-info") || strings.HasSuffix(first, ".egg-info") ||
			strings.HasSuffix(first, ".data") || first == "__pycache__" || first == "bin" {
			return ""
		}
		return first
	}
	switch {
	case strings.HasSuffix(entry, ".py"):
		return strings.TrimSuffix(entry, ".py")
	case strings.HasSuffix(entry, ".so"), strings.HasSuffix(entry, ".pyd"):
		mod, _, _ := strings.Cut(entry, ".")
		return mod
	}
	return ""
}
