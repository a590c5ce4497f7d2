package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/matzehuels/findreq/pkg/cache"
	"github.com/matzehuels/findreq/pkg/classify"
	ferrors "github.com/matzehuels/findreq/pkg/errors"
	"github.com/matzehuels/findreq/pkg/imports"
	"github.com/matzehuels/findreq/pkg/report"
	"github.com/matzehuels/findreq/pkg/resolve"
	"github.com/matzehuels/findreq/pkg/scan"
)

// Config is the top-level configuration for findreq.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	ProjectRoot    string   `mapstructure:"project_root"`
	Exclude        []string `mapstructure:"exclude"`
	ExcludeDirs    []string `mapstructure:"exclude_dirs"`
	SourceRoots    []string `mapstructure:"source_roots"`
	Workers        int      `mapstructure:"workers"`
	ResolveWorkers int      `mapstructure:"resolve_workers"`
	MaxFileSize    string   `mapstructure:"max_file_size"`

	Python   PythonConfig   `mapstructure:"python"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Install  InstallConfig  `mapstructure:"install"`
	Serve    ServeConfig    `mapstructure:"serve"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// PythonConfig points at interpreter directories that cannot be discovered.
type PythonConfig struct {
	SitePackages []string `mapstructure:"site_packages"`
	Stdlib       []string `mapstructure:"stdlib"`
}

// ResolverConfig holds package name resolution settings.
type ResolverConfig struct {
	Aliases  map[string]string `mapstructure:"aliases"`
	Offline  bool              `mapstructure:"offline"`
	Timeout  time.Duration     `mapstructure:"timeout"`
	Retries  int               `mapstructure:"retries"`
	IndexURL string            `mapstructure:"index_url"`
}

// CacheConfig holds resolution and HTTP cache settings.
type CacheConfig struct {
	File     string        `mapstructure:"file"`
	Dir      string        `mapstructure:"dir"`
	Disabled bool          `mapstructure:"disabled"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`

	// Namespace prefixes every cache key, isolating users of one Redis.
	Namespace string `mapstructure:"namespace"`
}

// InstallConfig controls the suggested install command.
type InstallConfig struct {
	Verb string `mapstructure:"verb"`
}

// ServeConfig holds HTTP API settings.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default values.
const (
	DefaultMaxFileSize = "2MiB"
	DefaultRetries     = 1
	DefaultServeAddr   = ":8080"
)

// Sentinel validation errors.
var (
	// ErrInvalidWorkers indicates a negative worker count.
	ErrInvalidWorkers = errors.New("workers must be non-negative")
	// ErrInvalidResolveWorkers indicates a negative resolve worker count.
	ErrInvalidResolveWorkers = errors.New("resolve_workers must be non-negative")
	// ErrInvalidMaxFileSize indicates an unparseable or zero size.
	ErrInvalidMaxFileSize = errors.New("max_file_size must be a positive size such as 2MB")
	// ErrInvalidTimeout indicates a non-positive probe timeout.
	ErrInvalidTimeout = errors.New("resolver.timeout must be positive")
	// ErrInvalidRetries indicates a retry count below one.
	ErrInvalidRetries = errors.New("resolver.retries must be at least 1")
	// ErrInvalidCacheTTL indicates a negative cache TTL.
	ErrInvalidCacheTTL = errors.New("cache.ttl must be non-negative")
	// ErrEmptyVerb indicates a blank install verb.
	ErrEmptyVerb = errors.New("install.verb must not be empty")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	switch {
	case c.Workers < 0:
		return ErrInvalidWorkers
	case c.ResolveWorkers < 0:
		return ErrInvalidResolveWorkers
	case c.Resolver.Timeout <= 0:
		return ErrInvalidTimeout
	case c.Resolver.Retries < 1:
		return ErrInvalidRetries
	case c.Cache.TTL < 0:
		return ErrInvalidCacheTTL
	case c.Install.Verb == "":
		return ErrEmptyVerb
	}
	if _, err := c.MaxFileSizeBytes(); err != nil {
		return err
	}
	if c.Resolver.IndexURL != "" {
		if err := ferrors.ValidateURL(c.Resolver.IndexURL); err != nil {
			return fmt.Errorf("resolver.index_url: %w", err)
		}
	}
	return nil
}

// MaxFileSizeBytes parses MaxFileSize ("2MB", "512KiB", "1048576").
// An empty value selects the extractor default.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	if c.MaxFileSize == "" {
		return imports.DefaultMaxFileSize, nil
	}
	n, err := humanize.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMaxFileSize, err)
	}
	if n == 0 {
		return 0, ErrInvalidMaxFileSize
	}
	return int64(n), nil
}

// ScanOptions maps the configuration onto scanner options. Prober and Store
// depend on live clients and are left for the caller.
func (c *Config) ScanOptions() scan.Options {
	size, _ := c.MaxFileSizeBytes()
	return scan.Options{
		Exclude:        c.Exclude,
		ExcludeDirs:    c.ExcludeDirs,
		SourceRoots:    c.SourceRoots,
		Workers:        c.Workers,
		ResolveWorkers: c.ResolveWorkers,
		MaxFileSize:    size,
		Env: classify.EnvOptions{
			SitePackages: c.Python.SitePackages,
			Stdlib:       c.Python.Stdlib,
		},
		Aliases: resolve.NewAliases(c.Resolver.Aliases),
		Timeout: c.Resolver.Timeout,
	}
}

func applyDefaults(v interface{ SetDefault(string, any) }) {
	v.SetDefault("project_root", ".")
	v.SetDefault("exclude", scan.DefaultExclude)
	v.SetDefault("exclude_dirs", scan.DefaultExcludeDirs)
	v.SetDefault("source_roots", []string{})
	v.SetDefault("workers", 0)
	v.SetDefault("resolve_workers", 0)
	v.SetDefault("max_file_size", DefaultMaxFileSize)

	v.SetDefault("python.site_packages", []string{})
	v.SetDefault("python.stdlib", []string{})

	v.SetDefault("resolver.aliases", map[string]string{})
	v.SetDefault("resolver.offline", false)
	v.SetDefault("resolver.timeout", resolve.DefaultTimeout)
	v.SetDefault("resolver.retries", DefaultRetries)
	v.SetDefault("resolver.index_url", "")

	v.SetDefault("cache.file", resolve.DefaultCacheFile)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.disabled", false)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", cache.TTLHTTP)
	v.SetDefault("cache.namespace", "")

	v.SetDefault("install.verb", report.DefaultVerb)
	v.SetDefault("serve.addr", DefaultServeAddr)
}
