package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/findreq/pkg/report"
)

// completionCommand prints a completion script for the requested shell.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script so the shell can complete findreq subcommands
(scan, classify, resolve, cache, serve) and their flags. The values of
"findreq scan --format" complete to text, json and yaml.

Try it in the current shell:
  $ source <(findreq completion bash)
  $ findreq scan --format <TAB>

Install it for every session:
  bash:        findreq completion bash > ~/.local/share/bash-completion/completions/findreq
  zsh:         findreq completion zsh > "${fpath[1]}/_findreq"   (needs compinit)
  fish:        findreq completion fish > ~/.config/fish/completions/findreq.fish
  powershell:  findreq completion powershell >> $PROFILE`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeFormats offers the report formats for a --format flag.
func completeFormats(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return report.Formats, cobra.ShellCompDirectiveNoFileComp
}
