package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/findreq/internal/config"
	ferrors "github.com/matzehuels/findreq/pkg/errors"
	"github.com/matzehuels/findreq/pkg/imports"
	"github.com/matzehuels/findreq/pkg/report"
	"github.com/matzehuels/findreq/pkg/resolve"
	"github.com/matzehuels/findreq/pkg/scan"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func isolateHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()

	cfg, err := config.LoadConfig("", root)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, scan.DefaultExclude, cfg.Exclude)
	assert.Equal(t, scan.DefaultExcludeDirs, cfg.ExcludeDirs)
	assert.Equal(t, resolve.DefaultTimeout, cfg.Resolver.Timeout)
	assert.Equal(t, config.DefaultRetries, cfg.Resolver.Retries)
	assert.Equal(t, resolve.DefaultCacheFile, cfg.Cache.File)
	assert.Equal(t, report.DefaultVerb, cfg.Install.Verb)
	assert.Equal(t, config.DefaultServeAddr, cfg.Serve.Addr)
	assert.Empty(t, cfg.File)

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(imports.DefaultMaxFileSize), size)
}

func TestLoadConfig_ProjectFile(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".findreq.yaml"), `
exclude_dirs: [tests]
source_roots: [src]
max_file_size: 512KiB
resolver:
  offline: true
  timeout: 500ms
  aliases:
    foo: foo-dist
install:
  verb: uv pip install
`)

	cfg, err := config.LoadConfig("", root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".findreq.yaml"), cfg.File)
	assert.Equal(t, []string{"tests"}, cfg.ExcludeDirs)
	assert.Equal(t, []string{"src"}, cfg.SourceRoots)
	assert.True(t, cfg.Resolver.Offline)
	assert.Equal(t, 500*time.Millisecond, cfg.Resolver.Timeout)
	assert.Equal(t, "foo-dist", cfg.Resolver.Aliases["foo"])
	assert.Equal(t, "uv pip install", cfg.Install.Verb)

	opts := cfg.ScanOptions()
	assert.Equal(t, int64(512*1024), opts.MaxFileSize)
	pkg, ok := opts.Aliases.Lookup("foo")
	assert.True(t, ok)
	assert.Equal(t, "foo-dist", pkg)
	_, ok = opts.Aliases.Lookup("cv2")
	assert.True(t, ok, "built-in aliases survive config extras")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".findreq.yaml"), "workers: 2\n")
	t.Setenv("FINDREQ_WORKERS", "7")
	t.Setenv("FINDREQ_RESOLVER_OFFLINE", "true")

	cfg, err := config.LoadConfig("", root)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.True(t, cfg.Resolver.Offline)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".env"), "FINDREQ_CACHE_REDIS_URL=redis://localhost:6379/3\n")
	t.Setenv("FINDREQ_CACHE_REDIS_URL", "")
	os.Unsetenv("FINDREQ_CACHE_REDIS_URL")

	cfg, err := config.LoadConfig("", root)
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/3", cfg.Cache.RedisURL)
}

func TestLoadConfig_ExplicitPathMissing(t *testing.T) {
	isolateHome(t)
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.ErrCodeInvalidConfig))
}

func TestLoadConfig_Invalid(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".findreq.yaml"), "max_file_size: lots\n")

	_, err := config.LoadConfig("", root)
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.ErrCodeInvalidConfig))
	assert.ErrorIs(t, err, config.ErrInvalidMaxFileSize)
}

func TestLoadConfig_Malformed(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".findreq.yaml"), "resolver: [unterminated\n")

	_, err := config.LoadConfig("", root)
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.ErrCodeInvalidConfig))
}
