package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/smpull/internal/config"
	dserrors "github.com/systmms/smpull/internal/errors"
	"github.com/systmms/smpull/internal/execenv"
	"github.com/systmms/smpull/internal/output"
)

func NewExecCommand(cfg *config.Config) *cobra.Command {
	var (
		flags         pullFlags
		printVars     bool
		allowOverride bool
		workingDir    string
	)

	cmd := &cobra.Command{
		Use:   "exec -- <command> [args...]",
		Short: "Run a command with pulled secrets as environment variables",
		Long: `Pull secrets as system properties and run a command with them added to
its environment. The configured outputMethod is ignored; nothing is written
to disk and the environment of smpull itself is left untouched.

The command must be separated from smpull arguments with '--'.

Examples:
  smpull exec -- ./gradlew integrationTest
  smpull exec --project staging -- docker compose up
  smpull exec --print -- env`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return dserrors.UserError{
					Message:    "No command specified",
					Suggestion: "Use: smpull exec -- <command> [args...]",
				}
			}

			if err := loadConfig(cfg, flags.overrides(cmd)); err != nil {
				return err
			}

			ctx, cancel := flags.context()
			defer cancel()

			environment := output.MapSetter{}
			fc := output.NewFlushContext(cfg.Definition.OutputDir)
			fc.System = environment

			result, err := runPull(ctx, cfg, output.SystemPropertyMap, fc, flags.metricsTextfile)
			if err != nil {
				return err
			}
			if !result.Skipped {
				cfg.Logger.Info("Pulled %d environment variables", len(environment))
			}

			executor := execenv.New(cfg.Logger)
			return executor.Exec(cmd.Context(), execenv.ExecOptions{
				Command:       args,
				Environment:   environment,
				AllowOverride: allowOverride,
				PrintVars:     printVars,
				WorkingDir:    workingDir,
				Stdin:         os.Stdin,
				Stdout:        cmd.OutOrStdout(),
				Stderr:        cmd.ErrOrStderr(),
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&printVars, "print", false, "Print pulled variables (values masked)")
	cmd.Flags().BoolVar(&allowOverride, "allow-override", false, "Allow existing environment variables to override pulled values")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "Working directory for the command")
	registerValueCompletions(cmd)

	return cmd
}
