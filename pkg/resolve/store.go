package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/findreq/pkg/cache"
	"github.com/matzehuels/findreq/pkg/observability"
)

// DefaultCacheFile is the resolution cache file name inside the project root.
const DefaultCacheFile = ".findreq-cache.json"

// Store persists a resolution map between runs.
type Store interface {
	// Load returns the stored map. A missing store yields an empty map and
	// no error. A corrupt store yields an empty map and an error describing
	// the problem; callers log it and carry on.
	Load(ctx context.Context) (map[string]string, error)

	// Save replaces the stored map.
	Save(ctx context.Context, entries map[string]string) error

	// Clear removes the stored map. Clearing a missing store is not an error.
	Clear(ctx context.Context) error

	// Location describes where the map lives, for messages.
	Location() string
}

// FileStore keeps the map as a JSON object in a single file.
type FileStore struct {
	path string
}

// NewFileStore returns a store at path. A relative path is resolved against root.
func NewFileStore(root, path string) *FileStore {
	if path == "" {
		path = DefaultCacheFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return &FileStore{path: path}
}

// Path returns the cache file path.
func (s *FileStore) Path() string { return s.path }

// Location implements [Store].
func (s *FileStore) Location() string { return s.path }

// Load implements [Store].
func (s *FileStore) Load(ctx context.Context) (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return map[string]string{}, fmt.Errorf("read resolution cache: %w", err)
	}
	return decodeEntries(data)
}

// Save implements [Store]. The file is replaced atomically.
func (s *FileStore) Save(ctx context.Context, entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".findreq-cache-*")
	if err != nil {
		return fmt.Errorf("write resolution cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write resolution cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write resolution cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write resolution cache: %w", err)
	}
	return nil
}

// Clear implements [Store].
func (s *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// SharedStore keeps the map of one project in a [cache.Cache], typically
// Redis, so several machines scanning the same project share lookups.
type SharedStore struct {
	backend cache.Cache
	key     string
	label   string
	ttl     time.Duration
}

// NewSharedStore returns a store for projectRoot in backend.
// A nil keyer selects [cache.DefaultKeyer].
func NewSharedStore(backend cache.Cache, keyer cache.Keyer, projectRoot string, ttl time.Duration) *SharedStore {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = cache.TTLResolution
	}
	return &SharedStore{
		backend: backend,
		key:     keyer.ResolutionKey(projectRoot),
		label:   projectRoot,
		ttl:     ttl,
	}
}

// Location implements [Store].
func (s *SharedStore) Location() string { return "shared cache (" + s.label + ")" }

// Load implements [Store].
func (s *SharedStore) Load(ctx context.Context) (map[string]string, error) {
	data, hit, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return map[string]string{}, fmt.Errorf("read shared resolution cache: %w", err)
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "resolution")
		return map[string]string{}, nil
	}
	observability.Cache().OnCacheHit(ctx, "resolution")
	return decodeEntries(data)
}

// Save implements [Store].
func (s *SharedStore) Save(ctx context.Context, entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := s.backend.Set(ctx, s.key, data, s.ttl); err != nil {
		return fmt.Errorf("write shared resolution cache: %w", err)
	}
	observability.Cache().OnCacheSet(ctx, "resolution", len(data))
	return nil
}

// Clear implements [Store].
func (s *SharedStore) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, s.key)
}

func decodeEntries(data []byte) (map[string]string, error) {
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return map[string]string{}, fmt.Errorf("corrupt resolution cache: %w", err)
	}
	if entries == nil {
		entries = map[string]string{}
	}
	return entries, nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SharedStore)(nil)
)
