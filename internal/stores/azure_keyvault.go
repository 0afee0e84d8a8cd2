package stores

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/smpull/internal/logging"
	"github.com/systmms/smpull/pkg/secretstore"
)

// AzureKeyVaultClientAPI is the subset of *azsecrets.Client used by the
// Azure Key Vault store.
type AzureKeyVaultClientAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureOptions configures the Key Vault client.
type AzureOptions struct {
	// VaultURL defaults to https://<projectID>.vault.azure.net/.
	VaultURL string

	TenantID     string
	ClientID     string
	ClientSecret string

	UseManagedIdentity bool
	// UserAssignedID selects a user-assigned managed identity.
	UserAssignedID string
}

// AzureOption customizes an Azure Key Vault connector.
type AzureOption func(*azureConnector)

// WithAzureKeyVaultClient makes the connector use client instead of
// building one.
func WithAzureKeyVaultClient(client AzureKeyVaultClientAPI) AzureOption {
	return func(c *azureConnector) {
		c.client = client
	}
}

// WithAzureLogger sets the logger used for debug output.
func WithAzureLogger(logger *logging.Logger) AzureOption {
	return func(c *azureConnector) {
		c.logger = logger
	}
}

type azureConnector struct {
	opts   AzureOptions
	client AzureKeyVaultClientAPI
	logger *logging.Logger
}

// NewAzureKeyVaultConnector returns a connector for Azure Key Vault. The
// project id names the vault unless VaultURL is set.
func NewAzureKeyVaultConnector(projectID string, opts AzureOptions, fns ...AzureOption) secretstore.Connector {
	if opts.VaultURL == "" && projectID != "" {
		opts.VaultURL = fmt.Sprintf("https://%s.vault.azure.net/", projectID)
	}
	c := &azureConnector{
		opts:   opts,
		logger: logging.New(false, false),
	}
	for _, fn := range fns {
		fn(c)
	}
	return c
}

func (c *azureConnector) Connect(ctx context.Context) (secretstore.Client, error) {
	if c.client != nil {
		return &azureClient{api: c.client, logger: c.logger}, nil
	}

	client, err := createAzureKeyVaultClient(c.opts)
	if err != nil {
		return nil, secretstore.ConnectivityError{Store: secretstore.TypeAzureKeyVault, Err: err}
	}
	return &azureClient{api: client, logger: c.logger}, nil
}

func createAzureKeyVaultClient(opts AzureOptions) (*azsecrets.Client, error) {
	if opts.VaultURL == "" {
		return nil, errors.New("vault URL is required")
	}
	if _, err := url.Parse(opts.VaultURL); err != nil {
		return nil, fmt.Errorf("invalid vault URL: %w", err)
	}

	var cred azcore.TokenCredential
	var err error

	switch {
	case opts.UseManagedIdentity && opts.UserAssignedID != "":
		cred, err = azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
			ID: azidentity.ClientID(opts.UserAssignedID),
		})
	case opts.UseManagedIdentity:
		cred, err = azidentity.NewManagedIdentityCredential(nil)
	case opts.ClientSecret != "":
		cred, err = azidentity.NewClientSecretCredential(opts.TenantID, opts.ClientID, opts.ClientSecret, nil)
	default:
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	client, err := azsecrets.NewClient(opts.VaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}
	return client, nil
}

type azureClient struct {
	api    AzureKeyVaultClientAPI
	logger *logging.Logger
}

func (c *azureClient) AccessLatest(ctx context.Context, projectID, key string) (string, error) {
	c.logger.Debug("Accessing Azure Key Vault secret: %s", logging.Secret(key))

	resp, err := c.api.GetSecret(ctx, key, "", nil)
	if err != nil {
		return "", classifyAzureError(key, err)
	}
	if resp.Value == nil {
		return "", errNoValue
	}
	return *resp.Value, nil
}

func (c *azureClient) Close() error {
	return nil
}

func classifyAzureError(key string, err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return secretstore.NotFoundError{Store: secretstore.TypeAzureKeyVault, Key: key}
		case http.StatusUnauthorized, http.StatusForbidden:
			return secretstore.AuthError{Store: secretstore.TypeAzureKeyVault, Message: respErr.ErrorCode}
		}
	}
	return fmt.Errorf("failed to access secret %s: %w", key, err)
}
