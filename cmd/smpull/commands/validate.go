package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/smpull/internal/config"
	"github.com/systmms/smpull/internal/output"
	"github.com/systmms/smpull/internal/truststore"
)

func NewValidateCommand(cfg *config.Config) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration without contacting the secret store",
		Long: `Load smpull.yaml (or the file given with --config), apply SMPULL_*
environment variables and check the result against the configuration
schema. No secrets are fetched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfg, nil); err != nil {
				return err
			}

			def := cfg.Definition
			if _, err := newConnector(def.Store, def.ProjectID, cfg.Logger); err != nil {
				return err
			}

			if quiet {
				return nil
			}

			out := cmd.OutOrStdout()
			source := cfg.Path
			if source == "" {
				source = "(environment only)"
			}
			_, _ = fmt.Fprintf(out, "Configuration: %s\n", source)
			_, _ = fmt.Fprintf(out, "Project:       %s\n", def.ProjectID)
			_, _ = fmt.Fprintf(out, "Secret store:  %s\n", def.Store.Type)
			_, _ = fmt.Fprintf(out, "Output:        %s\n", cfg.Method)
			if def.OutputDir != "" {
				_, _ = fmt.Fprintf(out, "Output dir:    %s\n", def.OutputDir)
			}
			if cfg.Method == output.TrustStore {
				storeType, _ := truststore.NormalizeType(def.StoreType)
				_, _ = fmt.Fprintf(out, "Trust store:   %s\n", truststore.FileName(storeType))
			}
			_, _ = fmt.Fprintf(out, "Mappings:      %d flat, %d complex\n", len(def.Mappings), len(def.ComplexMappings))
			for _, key := range def.Keys() {
				_, _ = fmt.Fprintf(out, "  - %s\n", key)
			}

			cfg.Logger.Info("Configuration is valid")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only report errors")

	return cmd
}
