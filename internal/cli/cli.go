// Package cli implements the findreq command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/findreq/internal/config"
	"github.com/matzehuels/findreq/pkg/cache"
	"github.com/matzehuels/findreq/pkg/integrations"
	"github.com/matzehuels/findreq/pkg/integrations/pypi"
	"github.com/matzehuels/findreq/pkg/resolve"
	"github.com/matzehuels/findreq/pkg/scan"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "findreq"

	// retryDelay is the pause before the first registry retry.
	retryDelay = 200 * time.Millisecond
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag; empty searches the default locations.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

func (c *CLI) loadConfig(root string) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.configPath, root)
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		c.Logger.Debug("loaded config", "file", cfg.File)
	}
	return cfg, nil
}

// =============================================================================
// Services - registry client, caches and resolution store
// =============================================================================

// services bundles the long-lived clients a command needs.
type services struct {
	cfg     *config.Config
	backend cache.Cache // HTTP response cache
	shared  bool        // backend is Redis and also holds resolution maps
	client  *pypi.Client
	noStore bool
}

// newServices opens the cache backend selected by cfg. Redis is used when
// cache.redis_url is set; otherwise responses go to the XDG cache directory.
// noCache disables both the response cache and the resolution store.
func (c *CLI) newServices(ctx context.Context, cfg *config.Config, noCache bool) (*services, error) {
	s := &services{cfg: cfg, noStore: noCache || cfg.Cache.Disabled}

	backend, shared, err := c.newBackend(ctx, cfg, s.noStore)
	if err != nil {
		return nil, err
	}
	s.backend, s.shared = backend, shared

	s.client = pypi.NewClient(backend, cfg.Cache.TTL, cfg.Resolver.IndexURL,
		integrations.WithTimeout(cfg.Resolver.Timeout),
		integrations.WithRetry(cfg.Resolver.Retries, retryDelay),
		integrations.WithKeyer(s.keyer()),
	)
	return s, nil
}

func (c *CLI) newBackend(ctx context.Context, cfg *config.Config, disabled bool) (cache.Cache, bool, error) {
	if disabled {
		return cache.NewNullCache(), false, nil
	}
	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, appName+":")
		if err != nil {
			return nil, false, err
		}
		c.Logger.Debug("using redis cache")
		return rc, true, nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			c.Logger.Debug("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), false, nil
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, false, err
	}
	return fc, false, nil
}

// keyer scopes cache keys by cache.namespace when one is configured.
func (s *services) keyer() cache.Keyer {
	if s.cfg.Cache.Namespace == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, s.cfg.Cache.Namespace+":")
}

// prober returns the registry oracle, or nil in offline mode.
func (s *services) prober(offline bool) resolve.Prober {
	if offline || s.cfg.Resolver.Offline {
		return nil
	}
	return s.client
}

// storeFactory selects where per-project resolution maps live.
func (s *services) storeFactory() scan.StoreFactory {
	if s.noStore {
		return nil
	}
	if s.shared {
		return func(root string) resolve.Store {
			return resolve.NewSharedStore(s.backend, s.keyer(), root, s.cfg.Cache.TTL)
		}
	}
	return func(root string) resolve.Store {
		return resolve.NewFileStore(root, s.cfg.Cache.File)
	}
}

// scanOptions combines configuration with live clients.
func (s *services) scanOptions(offline, refresh bool) scan.Options {
	opts := s.cfg.ScanOptions()
	opts.Env.VirtualEnv = os.Getenv("VIRTUAL_ENV")
	opts.Prober = s.prober(offline)
	opts.Store = s.storeFactory()
	opts.Refresh = refresh
	return opts
}

func (s *services) Close() error {
	return s.backend.Close()
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/findreq/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
