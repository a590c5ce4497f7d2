package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/findreq/pkg/integrations/pypi"
	"github.com/matzehuels/findreq/pkg/resolve"
	"github.com/matzehuels/findreq/pkg/scan"
)

// resolveFlags holds the flags of the resolve command.
type resolveFlags struct {
	root    string
	offline bool
	noCache bool
	refresh bool
	details bool
	asJSON  bool
}

// resolved pairs a resolution with optional index metadata.
type resolved struct {
	resolve.Resolution
	Info *pypi.PackageInfo `json:"info,omitempty"`
}

// detailWorkers bounds concurrent metadata fetches for --details.
const detailWorkers = 4

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Map import names to installable package names",
		Example: `  findreq resolve cv2 yaml sklearn
  findreq resolve flask_login --details`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), cmd.OutOrStdout(), args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.root, "root", "", "project root whose environment and cache are used")
	cmd.Flags().BoolVar(&flags.offline, "offline", false, "never query the package index")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "do not read or write any cache")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached resolutions")
	cmd.Flags().BoolVar(&flags.details, "details", false, "fetch version and summary from the index")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print JSON")

	return cmd
}

func (c *CLI) runResolve(ctx context.Context, w io.Writer, names []string, flags resolveFlags) error {
	cfg, err := c.loadConfig(flags.root)
	if err != nil {
		return err
	}
	root := flags.root
	if root == "" {
		root = cfg.ProjectRoot
	}

	svc, err := c.newServices(ctx, cfg, flags.noCache)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := svc.scanOptions(flags.offline, flags.refresh)
	resolutions, err := scan.New(opts, c.Logger).Resolve(ctx, root, topLevel(names))
	if err != nil {
		return err
	}

	out := make([]resolved, len(resolutions))
	for i, r := range resolutions {
		out[i].Resolution = r
	}
	if flags.details && opts.Prober != nil {
		c.fetchDetails(ctx, svc.client, out)
	}

	if flags.asJSON {
		return writeJSON(w, out)
	}
	return writeResolutions(w, out)
}

// fetchDetails decorates resolutions with index metadata. Failures are logged
// and leave Info nil.
func (c *CLI) fetchDetails(ctx context.Context, client *pypi.Client, out []resolved) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailWorkers)
	for i := range out {
		if out[i].Source == resolve.SourceFallback {
			continue
		}
		g.Go(func() error {
			info, err := client.FetchPackage(gctx, out[i].Package, false)
			if err != nil {
				c.Logger.Debug("fetch package details", "package", out[i].Package, "err", err)
				return nil
			}
			out[i].Info = info
			return nil
		})
	}
	_ = g.Wait()
}

func writeResolutions(w io.Writer, out []resolved) error {
	width := 0
	for _, r := range out {
		width = max(width, len(r.Module))
	}
	for _, r := range out {
		line := fmt.Sprintf("%-*s  %s  %s", width, r.Module, StyleValue.Render(r.Package), StyleDim.Render("("+string(r.Source)+")"))
		if r.Info != nil {
			line += fmt.Sprintf("  %s", r.Info.Version)
			if r.Info.Summary != "" {
				line += StyleDim.Render("  " + r.Info.Summary)
			}
		}
		if r.Reason != "" {
			line += StyleWarning.Render("  " + r.Reason)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
