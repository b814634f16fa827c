package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// completionCommand generates shell completion scripts. Family ids are
// completed from the configured store.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for pedigree and write it to stdout.

  bash:        source <(pedigree completion bash)
  zsh:         pedigree completion zsh > "${fpath[1]}/_pedigree"
  fish:        pedigree completion fish | source
  powershell:  pedigree completion powershell | Out-String | Invoke-Expression

Start a new shell afterwards for the completions to take effect.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeFamilyIDs suggests stored family ids for the first argument.
func (c *CLI) completeFamilyIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := c.open(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer b.Close()

	ids, err := b.svc.List(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
