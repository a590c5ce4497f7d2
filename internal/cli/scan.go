package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/findreq/pkg/errors"
	"github.com/matzehuels/findreq/pkg/report"
	"github.com/matzehuels/findreq/pkg/scan"
)

// scanFlags holds the flags of the scan command.
type scanFlags struct {
	format      string
	offline     bool
	noCache     bool
	refresh     bool
	verb        string
	missingOnly bool
	selectPkgs  bool
	exclude     []string
	excludeDirs []string
	workers     int
}

// scanCommand creates the scan command.
func (c *CLI) scanCommand() *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a project and suggest an install command",
		Long: `Scan walks a Python project, extracts every imported module and sorts it into
built-in, local and third-party groups. Third-party imports are mapped to the
name they are installed under, using a built-in alias table, installed package
metadata and the PyPI index, in that order. Answers are cached in
.findreq-cache.json in the project root.`,
		Example: `  findreq scan
  findreq scan ./service --offline
  findreq scan . --format json
  findreq scan . --missing-only --pip "uv pip install"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) == 1 {
				root = args[0]
			}
			return c.runScan(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "text", "output format: "+strings.Join(report.Formats, ", "))
	cmd.Flags().BoolVar(&flags.offline, "offline", false, "never query the package index")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "do not read or write any cache")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached resolutions and rewrite them")
	cmd.Flags().StringVar(&flags.verb, "pip", "", "install command verb (default from config, \"pip install\")")
	cmd.Flags().BoolVar(&flags.missingOnly, "missing-only", false, "only suggest packages not declared in a manifest")
	cmd.Flags().BoolVar(&flags.selectPkgs, "select", false, "choose the packages for the install command interactively")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "additional path substrings to skip")
	cmd.Flags().StringSliceVar(&flags.excludeDirs, "exclude-dir", nil, "additional directory names to skip")
	cmd.Flags().IntVarP(&flags.workers, "workers", "j", 0, "parallel file parsers (default: number of CPUs)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func (c *CLI) runScan(ctx context.Context, stdout, stderr io.Writer, root string, flags scanFlags) error {
	if flags.selectPkgs && flags.format != "text" {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "--select only works with --format text")
	}

	cfg, err := c.loadConfig(root)
	if err != nil {
		return err
	}
	if root == "" {
		root = cfg.ProjectRoot
	}
	if flags.verb != "" {
		cfg.Install.Verb = flags.verb
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	cfg.Exclude = append(cfg.Exclude, flags.exclude...)
	cfg.ExcludeDirs = append(cfg.ExcludeDirs, flags.excludeDirs...)

	svc, err := c.newServices(ctx, cfg, flags.noCache)
	if err != nil {
		return err
	}
	defer svc.Close()

	scanner := scan.New(svc.scanOptions(flags.offline, flags.refresh), c.Logger)

	var spin *spinner
	if isTerminal(stderr) && c.Logger.GetLevel() > log.DebugLevel {
		spin = startSpinner(ctx, stderr, "Scanning "+root)
	}
	prog := newProgress(c.Logger)
	result, err := scanner.Scan(ctx, root)
	if err != nil {
		spin.fail("Scan failed")
		return err
	}
	spin.stop()
	prog.done("Scanned " + humanize.Comma(int64(result.Stats.Files)) + " files")

	for _, f := range result.Failures {
		c.Logger.Debug("skipped file", "file", f.Path, "err", f.Error)
	}
	if n := len(result.Failures); n > 0 {
		printWarning(stderr, "%s %s skipped (run with -v for details)", humanize.Comma(int64(n)), plural(n, "file was", "files were"))
	}

	opts := report.TextOptions{
		Verb:        cfg.Install.Verb,
		MissingOnly: flags.missingOnly,
		Styles:      reportStyles(stdout),
	}
	if flags.selectPkgs && len(result.ThirdParty) > 0 {
		pkgs, ok, err := c.selectPackages(ctx, stderr, result)
		if err != nil {
			return err
		}
		if ok {
			opts.Packages = pkgs
			if pkgs == nil {
				opts.Packages = []string{}
			}
		} else {
			printInfo(stderr, "Selection cancelled, suggesting all packages")
		}
	}

	return report.Write(stdout, flags.format, result, opts)
}

// errNoTerminal is returned by --select when stdin cannot drive the picker.
var errNoTerminal = errors.New("--select needs an interactive terminal")

func (c *CLI) selectPackages(ctx context.Context, out io.Writer, r *scan.Result) ([]string, bool, error) {
	if !isTerminal(os.Stdin) {
		return nil, false, ferrors.Wrap(ferrors.ErrCodeInvalidInput, errNoTerminal, "select packages")
	}
	return pickPackages(r, tea.WithContext(ctx), tea.WithOutput(out))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
