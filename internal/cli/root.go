package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/findreq/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Global flags:
//   - --verbose (-v): debug-level logging
//   - --config: explicit config file instead of .findreq.yaml lookup
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName,
		Short: "findreq lists the packages a Python project needs",
		Long: `findreq scans a Python project's imports, separates standard library and
local modules from third-party ones, and maps each third-party import to the
name it is installed under on PyPI.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := LogInfo
			if verbose {
				level = LogDebug
			}
			c.SetLogLevel(level)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: .findreq.yaml in the project or $HOME)")

	root.AddCommand(c.scanCommand())
	root.AddCommand(c.classifyCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}
