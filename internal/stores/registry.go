package stores

import (
	"fmt"
	"strings"

	"github.com/systmms/smpull/internal/config"
	"github.com/systmms/smpull/internal/logging"
	"github.com/systmms/smpull/pkg/secretstore"
)

// NewConnector returns the connector for the store selected by cfg.
// An empty type selects Google Cloud Secret Manager.
func NewConnector(cfg config.StoreConfig, projectID string, logger *logging.Logger) (secretstore.Connector, error) {
	switch strings.ToLower(cfg.Type) {
	case "", secretstore.TypeGCP:
		return NewGCPConnector(GCPOptions{
			CredentialsFile:           cfg.CredentialsFile,
			ImpersonateServiceAccount: cfg.ImpersonateServiceAccount,
			Endpoint:                  cfg.Endpoint,
		}, WithGCPLogger(logger)), nil

	case secretstore.TypeAWSSecretsManager:
		return NewSecretsManagerConnector(awsOptions(cfg), WithSecretsManagerLogger(logger)), nil

	case secretstore.TypeAWSSSM:
		return NewSSMConnector(awsOptions(cfg), WithSSMLogger(logger)), nil

	case secretstore.TypeAzureKeyVault:
		return NewAzureKeyVaultConnector(projectID, AzureOptions{
			VaultURL:           cfg.VaultURL,
			TenantID:           cfg.TenantID,
			ClientID:           cfg.ClientID,
			ClientSecret:       cfg.ClientSecret,
			UseManagedIdentity: cfg.UseManagedIdentity,
			UserAssignedID:     cfg.UserAssignedID,
		}, WithAzureLogger(logger)), nil
	}

	return nil, fmt.Errorf("unsupported secret store type %q (supported: %s)", cfg.Type, strings.Join(secretstore.Types, ", "))
}

func awsOptions(cfg config.StoreConfig) AWSOptions {
	return AWSOptions{
		Region:          cfg.Region,
		Profile:         cfg.Profile,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		AssumeRole:      cfg.AssumeRole,
		ExternalID:      cfg.ExternalID,
	}
}
