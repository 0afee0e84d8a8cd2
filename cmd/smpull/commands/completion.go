package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/smpull/internal/config"
	"github.com/systmms/smpull/internal/output"
	"github.com/systmms/smpull/internal/truststore"
	"github.com/systmms/smpull/pkg/secretstore"
)

// NewCompletionCommand creates the completion command. Besides command
// names, the generated scripts complete output methods, secret store types
// and trust store types for pull and exec.
func NewCompletionCommand(_ *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion bash|zsh|fish|powershell",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for smpull to stdout.

The script completes subcommands and the values of --output-method,
--secret-store and --store-type, for example:

  $ smpull pull --output-method <TAB>
  EnvFile  PropertyMap  RawFile  SystemPropertyMap  TrustStore

Load it for the current shell session:

  bash:        source <(smpull completion bash)
  zsh:         source <(smpull completion zsh)
  fish:        smpull completion fish | source
  powershell:  smpull completion powershell | Out-String | Invoke-Expression

To load it for every session, write the script to your shell's completion
directory instead, e.g. smpull completion zsh > "${fpath[1]}/_smpull".
`,
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

// fixedCompletion completes a flag from a fixed list of values.
func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// registerValueCompletions wires completion for the enumerated pull flags.
// Flags not defined on cmd are skipped.
func registerValueCompletions(cmd *cobra.Command) {
	completions := map[string][]string{
		"output-method": output.MethodNames(),
		"secret-store":  secretstore.Types,
		"store-type":    {truststore.TypePKCS12, truststore.TypeJKS},
	}
	for flag, values := range completions {
		if cmd.Flags().Lookup(flag) == nil {
			continue
		}
		_ = cmd.RegisterFlagCompletionFunc(flag, fixedCompletion(values...))
	}
}
