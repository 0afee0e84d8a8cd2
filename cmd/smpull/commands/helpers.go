package commands

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/smpull/internal/config"
	"github.com/systmms/smpull/internal/engine"
	dserrors "github.com/systmms/smpull/internal/errors"
	"github.com/systmms/smpull/internal/fetch"
	"github.com/systmms/smpull/internal/metrics"
	"github.com/systmms/smpull/internal/output"
	"github.com/systmms/smpull/internal/secure"
	"github.com/systmms/smpull/internal/stores"
)

// newConnector builds the secret store connector. Tests replace it.
var newConnector = stores.NewConnector

// pullFlags are the flags shared by pull and exec.
type pullFlags struct {
	project         string
	outputDir       string
	secretStore     string
	existingStore   string
	storePassword   string
	storeType       string
	skip            bool
	metricsTextfile string
	timeout         time.Duration
}

func (f *pullFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.project, "project", "", "Project (or namespace) holding the secrets; overrides projectId")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Directory for .env, raw and trust store files")
	cmd.Flags().StringVar(&f.secretStore, "secret-store", "", "Secret store: gcp, aws-secretsmanager, aws-ssm or azure-keyvault")
	cmd.Flags().StringVar(&f.existingStore, "existing-store", "", "Trust store to extend instead of creating a new one")
	cmd.Flags().StringVar(&f.storePassword, "store-password", "", "Trust store password (literal, env:NAME or keyring:service/account)")
	cmd.Flags().StringVar(&f.storeType, "store-type", "", "Trust store type: PKCS12 or JKS")
	cmd.Flags().BoolVar(&f.skip, "skip", false, "Skip fetching and writing secrets")
	cmd.Flags().StringVar(&f.metricsTextfile, "metrics-textfile", "", "Write run metrics in Prometheus text format to this file")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Abort the pull after this duration (0 for no timeout)")
}

// overrides returns the configuration keys for the flags set on cmd.
func (f *pullFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	values := map[string]interface{}{}
	set := func(flag, key string, value interface{}) {
		if cmd.Flags().Changed(flag) {
			values[key] = value
		}
	}
	set("project", "projectId", f.project)
	set("output-dir", "outputDir", f.outputDir)
	set("secret-store", "store.type", f.secretStore)
	set("existing-store", "existingStorePath", f.existingStore)
	set("store-password", "storePassword", f.storePassword)
	set("store-type", "storeType", f.storeType)
	set("skip", "skipExecution", f.skip)
	return values
}

func (f *pullFlags) context() (context.Context, context.CancelFunc) {
	if f.timeout > 0 {
		return context.WithTimeout(context.Background(), f.timeout)
	}
	return context.WithCancel(context.Background())
}

func loadConfig(cfg *config.Config, overrides map[string]interface{}) error {
	if err := cfg.Load(overrides); err != nil {
		return dserrors.UserError{
			Message:    "Failed to load configuration",
			Details:    err.Error(),
			Suggestion: "Check that smpull.yaml exists and is valid. Run 'smpull validate' to diagnose",
			Err:        err,
		}
	}
	return nil
}

// runPull fetches and flushes the mappings of cfg into fc using method.
func runPull(ctx context.Context, cfg *config.Config, method output.Method, fc *output.FlushContext, metricsTextfile string) (engine.Result, error) {
	def := cfg.Definition

	password, err := secure.ResolvePassword(def.StorePassword)
	if err != nil {
		return engine.Result{}, dserrors.UserError{
			Message:    "Failed to resolve trust store password",
			Details:    err.Error(),
			Suggestion: "Use a literal password, env:NAME or keyring:service/account",
			Err:        err,
		}
	}
	defer password.Destroy()

	fc.TrustStore = output.TrustStoreParams{
		Password:          password,
		ExistingStorePath: def.ExistingStorePath,
		StoreType:         def.StoreType,
	}

	connector, err := newConnector(def.Store, def.ProjectID, cfg.Logger)
	if err != nil {
		return engine.Result{}, dserrors.ConfigError{
			Field:      "store.type",
			Value:      def.Store.Type,
			Message:    err.Error(),
			Suggestion: "Run 'smpull validate' to check the store configuration",
		}
	}

	recorder := metrics.NewRecorder()
	fetcher := storeFetcher{
		Fetcher: fetch.New(connector, def.ProjectID,
			fetch.WithLogger(cfg.Logger),
			fetch.WithMetrics(recorder),
		),
		storeType: def.Store.Type,
	}
	eng := engine.New(fetcher,
		engine.WithLogger(cfg.Logger),
		engine.WithMetrics(recorder),
	)

	result, runErr := eng.Run(ctx, engine.Config{
		ProjectID:       def.ProjectID,
		Mappings:        def.Mappings,
		ComplexMappings: def.ComplexMappings,
		Method:          method,
		Skip:            def.SkipExecution,
	}, fc)

	if metricsTextfile != "" {
		if err := recorder.WriteTextfile(metricsTextfile); err != nil {
			if runErr != nil {
				cfg.Logger.Warn("Failed to write metrics to %s: %v", metricsTextfile, err)
			} else {
				runErr = dserrors.UserError{
					Message:    "Failed to write metrics textfile",
					Details:    err.Error(),
					Suggestion: "Check that the directory of --metrics-textfile exists and is writable",
					Err:        err,
				}
			}
		}
	}

	return result, runErr
}

// storeFetcher attaches store specific suggestions to fetch failures.
type storeFetcher struct {
	*fetch.Fetcher
	storeType string
}

func (f storeFetcher) Fetch(ctx context.Context, keys []string) (map[string]string, error) {
	values, err := f.Fetcher.Fetch(ctx, keys)
	if err != nil {
		return nil, dserrors.StoreError(f.storeType, "fetch", err)
	}
	return values, nil
}

func joinMethods() string {
	return strings.Join(output.MethodNames(), ", ")
}
