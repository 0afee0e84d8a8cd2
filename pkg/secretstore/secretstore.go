package secretstore

import (
	"context"
	"fmt"
)

// Client retrieves secret payloads from a single store.
type Client interface {
	// AccessLatest returns the latest version of the secret named key in the
	// given project (or namespace) as UTF-8 text.
	AccessLatest(ctx context.Context, projectID, key string) (string, error)

	// Close releases the underlying connection.
	Close() error
}

// Connector opens a Client. Each fetch pass opens its own Client and closes
// it before returning.
type Connector interface {
	Connect(ctx context.Context) (Client, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context) (Client, error)

// Connect calls f(ctx).
func (f ConnectorFunc) Connect(ctx context.Context) (Client, error) {
	return f(ctx)
}

// NotFoundError indicates that a secret does not exist in the store.
type NotFoundError struct {
	// Store is the type of the store that was queried.
	Store string

	// Key is the secret key that could not be found.
	Key string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	return "secret not found: " + e.Key + " in store " + e.Store
}

// AuthError indicates that the store rejected the configured credentials.
type AuthError struct {
	Store   string
	Message string
}

// Error implements the error interface.
func (e AuthError) Error() string {
	return "authentication failed for store " + e.Store + ": " + e.Message
}

// ConnectivityError indicates that no connection to the store could be
// established.
type ConnectivityError struct {
	Store string
	Err   error
}

// Error implements the error interface.
func (e ConnectivityError) Error() string {
	return fmt.Sprintf("cannot connect to store %s: %v", e.Store, e.Err)
}

// Unwrap returns the underlying cause.
func (e ConnectivityError) Unwrap() error {
	return e.Err
}

// Supported store types.
const (
	TypeGCP               = "gcp"
	TypeAWSSecretsManager = "aws-secretsmanager"
	TypeAWSSSM            = "aws-ssm"
	TypeAzureKeyVault     = "azure-keyvault"
)

// Types lists every supported store type. The first entry is the default.
var Types = []string{TypeGCP, TypeAWSSecretsManager, TypeAWSSSM, TypeAzureKeyVault}
