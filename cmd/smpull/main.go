package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"github.com/systmms/smpull/cmd/smpull/commands"
	"github.com/systmms/smpull/internal/config"
	dserrors "github.com/systmms/smpull/internal/errors"
	"github.com/systmms/smpull/internal/execenv"
	"github.com/systmms/smpull/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := run()
	memguard.Purge()
	if err == nil {
		return
	}

	// The child already reported its failure; only pass the code on.
	var exitErr execenv.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
	os.Exit(1)
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "smpull",
		Short: "Pull secrets from a secret manager into properties, files and trust stores",
		Long: `smpull resolves the secret mappings of smpull.yaml against a secret store
(Google Cloud Secret Manager by default) and writes each value to the
configured output: a property map, the process environment, a .env file,
raw files or a PKCS12/JKS trust store.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default: smpull.yaml, smpull.yml or smpull.toml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewPullCommand(cfg),
		commands.NewExecCommand(cfg),
		commands.NewValidateCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
