package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/smpull/internal/config"
	dserrors "github.com/systmms/smpull/internal/errors"
	"github.com/systmms/smpull/internal/output"
)

func NewPullCommand(cfg *config.Config) *cobra.Command {
	var (
		flags         pullFlags
		outputMethod  string
		propertiesOut string
	)

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Fetch secrets and write them to the configured output",
		Long: `Fetch the latest version of every mapped secret and write it to the
output selected by outputMethod:

  PropertyMap        in-memory properties (write them with --properties-out)
  SystemPropertyMap  environment of the smpull process
  EnvFile            appended to .env in the output directory
  RawFile            appended to a file named after the property
  TrustStore         added as a certificate to truststore.<type>

Examples:
  smpull pull
  smpull pull --output-method EnvFile --output-dir build
  smpull pull --output-method TrustStore --store-type JKS --store-password env:STORE_PASS
  smpull pull --properties-out build/secrets.properties`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := flags.overrides(cmd)
			if cmd.Flags().Changed("output-method") {
				overrides["outputMethod"] = outputMethod
			}
			if err := loadConfig(cfg, overrides); err != nil {
				return err
			}

			if propertiesOut != "" && cfg.Method != output.PropertyMap {
				return dserrors.UserError{
					Message:    fmt.Sprintf("--properties-out requires the %s output method", output.PropertyMap),
					Details:    fmt.Sprintf("The configured output method is %s", cfg.Method),
					Suggestion: "Remove --properties-out or pass --output-method PropertyMap",
				}
			}

			ctx, cancel := flags.context()
			defer cancel()

			fc := output.NewFlushContext(cfg.Definition.OutputDir)
			result, err := runPull(ctx, cfg, cfg.Method, fc, flags.metricsTextfile)
			if err != nil {
				return err
			}
			if result.Skipped {
				return nil
			}

			if propertiesOut != "" {
				if err := output.WriteProperties(propertiesOut, fc.Properties); err != nil {
					return err
				}
				cfg.Logger.Info("Wrote %d properties to %s", len(fc.Properties), propertiesOut)
			}

			cfg.Logger.Info("Pulled %d secrets to [%s]", result.Flushed(), cfg.Method)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&outputMethod, "output-method", "", "Output method: "+joinMethods())
	cmd.Flags().StringVar(&propertiesOut, "properties-out", "", "Write PropertyMap results to this properties file")
	registerValueCompletions(cmd)

	return cmd
}
