package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/findreq/pkg/cache"
	"github.com/matzehuels/findreq/pkg/resolve"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the HTTP response cache and the project resolution cache",
	}
	cmd.PersistentFlags().StringVar(&root, "root", "", "project root (default: current directory)")

	cmd.AddCommand(c.cacheClearCommand(&root))
	cmd.AddCommand(c.cachePathCommand(&root))

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand(root *string) *cobra.Command {
	var projectOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached HTTP responses and the project's resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := c.loadConfig(*root)
			if err != nil {
				return err
			}
			projectRoot := *root
			if projectRoot == "" {
				projectRoot = cfg.ProjectRoot
			}

			svc, err := c.newServices(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer svc.Close()

			if factory := svc.storeFactory(); factory != nil {
				store := factory(projectRoot)
				if err := store.Clear(ctx); err != nil {
					return fmt.Errorf("clear resolution cache: %w", err)
				}
				printSuccess(out, "Cleared resolution cache")
				printDetail(out, "Location: %s", store.Location())
			}

			if projectOnly {
				return nil
			}
			fc, ok := svc.backend.(*cache.FileCache)
			if !ok {
				printInfo(out, "HTTP responses in a shared cache expire on their own")
				return nil
			}
			if _, err := os.Stat(fc.Dir()); os.IsNotExist(err) {
				printInfo(out, "HTTP cache is empty")
				return nil
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}
			printSuccess(out, "Cleared %d cached responses", count)
			printDetail(out, "Directory: %s", fc.Dir())
			return nil
		},
	}
	cmd.Flags().BoolVar(&projectOnly, "project-only", false, "keep HTTP responses, clear only resolutions")

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := c.loadConfig(*root)
			if err != nil {
				return err
			}
			projectRoot := *root
			if projectRoot == "" {
				projectRoot = cfg.ProjectRoot
			}

			httpDir := cfg.Cache.Dir
			if httpDir == "" {
				if httpDir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			if cfg.Cache.RedisURL != "" {
				httpDir = "redis"
			}

			printKeyValue(out, "http", httpDir)
			printKeyValue(out, "resolutions", resolutionLocation(projectRoot, cfg.Cache.File, cfg.Cache.RedisURL != ""))
			return nil
		},
	}
}

// resolutionLocation describes where the resolution map for root is kept.
func resolutionLocation(root, file string, shared bool) string {
	if shared {
		return "redis"
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return resolve.NewFileStore(root, file).Path()
}
