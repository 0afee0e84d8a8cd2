package stores

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/smpull/internal/logging"
	"github.com/systmms/smpull/pkg/secretstore"
)

// GCPSecretManagerAPI is the subset of *secretmanager.Client used by the
// GCP store.
type GCPSecretManagerAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// GCPOptions configures the Secret Manager client.
type GCPOptions struct {
	// CredentialsFile is a service account key file. Empty uses
	// Application Default Credentials.
	CredentialsFile string

	// ImpersonateServiceAccount is the principal to impersonate.
	ImpersonateServiceAccount string

	// Endpoint overrides the API endpoint, e.g. for an emulator.
	Endpoint string
}

// GCPClientFactory creates Secret Manager clients.
type GCPClientFactory func(ctx context.Context, opts ...option.ClientOption) (GCPSecretManagerAPI, error)

// GCPOption customizes a GCP connector.
type GCPOption func(*gcpConnector)

// WithGCPClient makes the connector hand out client instead of dialing.
func WithGCPClient(client GCPSecretManagerAPI) GCPOption {
	return func(c *gcpConnector) {
		c.newClient = func(context.Context, ...option.ClientOption) (GCPSecretManagerAPI, error) {
			return client, nil
		}
	}
}

// WithGCPClientFactory replaces the function used to create clients.
func WithGCPClientFactory(factory GCPClientFactory) GCPOption {
	return func(c *gcpConnector) {
		c.newClient = factory
	}
}

// WithGCPLogger sets the logger used for debug output.
func WithGCPLogger(logger *logging.Logger) GCPOption {
	return func(c *gcpConnector) {
		c.logger = logger
	}
}

type gcpConnector struct {
	opts      GCPOptions
	newClient GCPClientFactory
	logger    *logging.Logger
}

// NewGCPConnector returns a connector for Google Cloud Secret Manager.
func NewGCPConnector(opts GCPOptions, fns ...GCPOption) secretstore.Connector {
	c := &gcpConnector{
		opts: opts,
		newClient: func(ctx context.Context, o ...option.ClientOption) (GCPSecretManagerAPI, error) {
			return secretmanager.NewClient(ctx, o...)
		},
		logger: logging.New(false, false),
	}
	for _, fn := range fns {
		fn(c)
	}
	return c
}

func (c *gcpConnector) Connect(ctx context.Context) (secretstore.Client, error) {
	clientOptions, err := c.clientOptions(ctx)
	if err != nil {
		return nil, secretstore.ConnectivityError{Store: secretstore.TypeGCP, Err: err}
	}

	client, err := c.newClient(ctx, clientOptions...)
	if err != nil {
		return nil, secretstore.ConnectivityError{Store: secretstore.TypeGCP, Err: err}
	}

	return &gcpClient{api: client, logger: c.logger}, nil
}

func (c *gcpConnector) clientOptions(ctx context.Context) ([]option.ClientOption, error) {
	var clientOptions []option.ClientOption

	if c.opts.CredentialsFile != "" {
		path, err := expandHome(c.opts.CredentialsFile)
		if err != nil {
			return nil, err
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(path))
	}

	if c.opts.ImpersonateServiceAccount != "" {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: c.opts.ImpersonateServiceAccount,
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		}, clientOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to create impersonated credentials: %w", err)
		}
		clientOptions = []option.ClientOption{option.WithTokenSource(ts)}
	}

	if c.opts.Endpoint != "" {
		clientOptions = append(clientOptions, option.WithEndpoint(c.opts.Endpoint))
	}

	return clientOptions, nil
}

type gcpClient struct {
	api    GCPSecretManagerAPI
	logger *logging.Logger
}

func (c *gcpClient) AccessLatest(ctx context.Context, projectID, key string) (string, error) {
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, key)
	c.logger.Debug("Accessing GCP secret: %s", logging.Secret(name))

	resp, err := c.api.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", classifyGCPError(key, err)
	}

	return decodeUTF8(resp.GetPayload().GetData()), nil
}

func (c *gcpClient) Close() error {
	return c.api.Close()
}

func classifyGCPError(key string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return secretstore.NotFoundError{Store: secretstore.TypeGCP, Key: key}
	case codes.PermissionDenied, codes.Unauthenticated:
		msg := err.Error()
		if s, ok := status.FromError(err); ok {
			msg = s.Message()
		}
		return secretstore.AuthError{Store: secretstore.TypeGCP, Message: msg}
	case codes.Unavailable:
		return secretstore.ConnectivityError{Store: secretstore.TypeGCP, Err: err}
	}
	return fmt.Errorf("failed to access secret %s: %w", key, err)
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// decodeUTF8 converts a payload to text, replacing invalid sequences with
// U+FFFD.
func decodeUTF8(data []byte) string {
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

var errNoValue = errors.New("secret has no value")
