package imports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// DefaultMaxFileSize is the size limit applied when none is configured.
const DefaultMaxFileSize int64 = 2 << 20

// maxDepth bounds the syntax tree walk.
const maxDepth = 512

var (
	// ErrSyntax is returned when the parser reports any error node.
	ErrSyntax = errors.New("source contains syntax errors")

	// ErrInvalidContent is returned for content that is not valid UTF-8.
	ErrInvalidContent = errors.New("content is not valid UTF-8")

	// ErrFileTooLarge is returned for files over the extractor's size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// FileImports is the outcome of extracting one file.
// Names is sorted and free of duplicates. When Err is set, Names is empty.
type FileImports struct {
	Path  string   `json:"path"`
	Names []string `json:"names,omitempty"`
	Err   error    `json:"-"`
}

// OK reports whether the file was parsed.
func (f FileImports) OK() bool { return f.Err == nil }

// Extractor reads and parses source files.
// It holds no parser state and is safe for concurrent use.
type Extractor struct {
	maxSize int64
}

// NewExtractor returns an extractor that rejects files larger than maxSize
// bytes. A non-positive maxSize selects [DefaultMaxFileSize].
func NewExtractor(maxSize int64) *Extractor {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Extractor{maxSize: maxSize}
}

// MaxSize returns the configured size limit in bytes.
func (e *Extractor) MaxSize() int64 { return e.maxSize }

// Extract reads path and returns its imported top-level names.
// It never panics on bad input; every failure is reported in the result.
func (e *Extractor) Extract(ctx context.Context, path string) FileImports {
	result := FileImports{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		result.Err = err
		return result
	}
	if info.Size() > e.maxSize {
		result.Err = fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, info.Size(), e.maxSize)
		return result
	}

	src, err := os.ReadFile(path)
	if err != nil {
		result.Err = err
		return result
	}

	names, err := parse(ctx, src)
	if err != nil {
		result.Err = err
		return result
	}
	result.Names = names
	return result
}

// ExtractSource parses Python source held in memory.
func ExtractSource(src []byte) ([]string, error) {
	return parse(context.Background(), src)
}

func parse(ctx context.Context, src []byte) ([]string, error) {
	if !utf8.Valid(src) {
		return nil, ErrInvalidContent
	}

	// Parsers are not safe for concurrent use; one per call.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, ErrSyntax
	}
	if root.HasError() {
		return nil, ErrSyntax
	}

	seen := make(map[string]struct{})
	if !collect(root, src, seen, 0) {
		return nil, ErrSyntax
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// collect gathers imports below node. It reports false when the tree holds a
// statement that only Python 2 accepts; the grammar parses those without error.
func collect(node *sitter.Node, src []byte, seen map[string]struct{}, depth int) bool {
	if node == nil || depth > maxDepth {
		return true
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "print_statement", "exec_statement":
			return false
		case "import_statement":
			importStatement(child, src, seen)
		case "import_from_statement":
			fromStatement(child, src, seen)
		case "future_import_statement":
			seen["__future__"] = struct{}{}
		default:
			if !collect(child, src, seen, depth+1) {
				return false
			}
		}
	}
	return true
}

// importStatement handles "import a.b, c as d".
func importStatement(node *sitter.Node, src []byte, seen map[string]struct{}) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			add(seen, child.Content(src))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				add(seen, name.Content(src))
			}
		}
	}
}

// fromStatement handles "from x.y import z" and relative forms. Only the
// module_name field matters; the imported names are attributes of it.
func fromStatement(node *sitter.Node, src []byte, seen map[string]struct{}) {
	module := node.ChildByFieldName("module_name")
	if module == nil {
		return
	}
	switch module.Type() {
	case "dotted_name":
		add(seen, module.Content(src))
	case "relative_import":
		for i := 0; i < int(module.NamedChildCount()); i++ {
			if child := module.NamedChild(i); child.Type() == "dotted_name" {
				add(seen, child.Content(src))
			}
		}
	}
}

func add(seen map[string]struct{}, dotted string) {
	name, _, _ := strings.Cut(strings.TrimSpace(dotted), ".")
	if name = strings.TrimSpace(name); name != "" {
		seen[name] = struct{}{}
	}
}
