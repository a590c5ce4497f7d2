package scan

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/src-d/enry/v2"

	ferrors "github.com/matzehuels/findreq/pkg/errors"
)

// DefaultExclude prunes any directory whose path below the root contains
// one of these substrings.
var DefaultExclude = []string{"venv", ".venv", "__pycache__", "node_modules", "site-packages", ".git", ".tox"}

// DefaultExcludeDirs prunes directories with exactly these names.
var DefaultExcludeDirs = []string{"env", "build", "dist"}

// sourceExtensions are always scanned.
var sourceExtensions = []string{".py", ".pyi"}

// shebangPeek is how much of an extension-less file is read to sniff it.
const shebangPeek = 256

// WalkOptions controls [Walk].
type WalkOptions struct {
	Exclude     []string // substring matches against the slash-separated relative path
	ExcludeDirs []string // exact directory names
	Logger      *log.Logger
}

// Walk returns the Python sources below root, sorted.
//
// Files ending in .py or .pyi are included, as are extension-less files with
// a Python shebang. Excluded directories are not descended into. Unreadable
// subdirectories are logged and skipped; an unreadable or missing root is an
// error.
func Walk(root string, opts WalkOptions) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidPath, err, "project root %s", root)
	}
	if !info.IsDir() {
		return nil, ferrors.New(ferrors.ErrCodeInvalidPath, "project root %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Debug("skip unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && excluded(root, path, d.Name(), opts) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if isSource(path, d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidPath, err, "walk %s", root)
	}

	slices.Sort(files)
	return files, nil
}

func excluded(root, path, name string, opts WalkOptions) bool {
	if slices.Contains(opts.ExcludeDirs, name) {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range opts.Exclude {
		if pattern != "" && strings.Contains(rel, pattern) {
			return true
		}
	}
	return false
}

func isSource(path, name string) bool {
	ext := filepath.Ext(name)
	if slices.Contains(sourceExtensions, ext) {
		return true
	}
	if ext != "" {
		return false
	}
	return hasPythonShebang(path)
}

func hasPythonShebang(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, shebangPeek)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false
	}
	lang, _ := enry.GetLanguageByShebang(head[:n])
	return lang == "Python"
}
