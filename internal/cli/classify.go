package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/findreq/pkg/classify"
	"github.com/matzehuels/findreq/pkg/scan"
)

// classifyCommand creates the classify command.
func (c *CLI) classifyCommand() *cobra.Command {
	var (
		root   string
		asJSON bool
		why    bool
	)

	cmd := &cobra.Command{
		Use:   "classify <name>...",
		Short: "Classify import names as built-in, local or third-party",
		Example: `  findreq classify os requests helpers
  findreq classify yaml --root ./service --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(root)
			if err != nil {
				return err
			}
			if root == "" {
				root = cfg.ProjectRoot
			}

			results, err := scan.New(cfg.ScanOptions(), c.Logger).Classify(root, topLevel(args))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			return writeClassifications(cmd.OutOrStdout(), results, why)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "project root (default: current directory)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&why, "why", false, "show the rule that decided each name")

	return cmd
}

// topLevel keeps the first component of dotted names ("os.path" -> "os").
func topLevel(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i], _, _ = strings.Cut(n, ".")
	}
	return out
}

func writeClassifications(w io.Writer, results []classify.Result, why bool) error {
	width := 0
	for _, r := range results {
		width = max(width, len(r.Name))
	}
	for _, r := range results {
		line := fmt.Sprintf("%-*s  %s", width, r.Name, r.Category)
		if why {
			line += StyleDim.Render("  (" + r.Rule + ")")
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

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
