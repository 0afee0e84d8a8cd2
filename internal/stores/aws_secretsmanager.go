package stores

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/systmms/smpull/internal/logging"
	"github.com/systmms/smpull/pkg/secretstore"
)

// SecretsManagerClientAPI is the subset of *secretsmanager.Client used by
// the AWS Secrets Manager store.
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerOption customizes an AWS Secrets Manager connector.
type SecretsManagerOption func(*secretsManagerConnector)

// WithSecretsManagerClient makes the connector use client instead of
// building one from the AWS config.
func WithSecretsManagerClient(client SecretsManagerClientAPI) SecretsManagerOption {
	return func(c *secretsManagerConnector) {
		c.client = client
	}
}

// WithSecretsManagerLogger sets the logger used for debug output.
func WithSecretsManagerLogger(logger *logging.Logger) SecretsManagerOption {
	return func(c *secretsManagerConnector) {
		c.logger = logger
	}
}

type secretsManagerConnector struct {
	opts   AWSOptions
	client SecretsManagerClientAPI
	logger *logging.Logger
}

// NewSecretsManagerConnector returns a connector for AWS Secrets Manager.
// Secrets are addressed as "<projectID>/<key>" unless the key is an ARN.
func NewSecretsManagerConnector(opts AWSOptions, fns ...SecretsManagerOption) secretstore.Connector {
	c := &secretsManagerConnector{
		opts:   opts,
		logger: logging.New(false, false),
	}
	for _, fn := range fns {
		fn(c)
	}
	return c
}

func (c *secretsManagerConnector) Connect(ctx context.Context) (secretstore.Client, error) {
	if c.client != nil {
		return &secretsManagerClient{api: c.client, logger: c.logger}, nil
	}

	cfg, err := loadAWSConfig(ctx, c.opts)
	if err != nil {
		return nil, secretstore.ConnectivityError{Store: secretstore.TypeAWSSecretsManager, Err: err}
	}

	var clientOpts []func(*secretsmanager.Options)
	if c.opts.Endpoint != "" {
		endpoint := c.opts.Endpoint
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = &endpoint
		})
	}

	return &secretsManagerClient{
		api:    secretsmanager.NewFromConfig(cfg, clientOpts...),
		logger: c.logger,
	}, nil
}

type secretsManagerClient struct {
	api    SecretsManagerClientAPI
	logger *logging.Logger
}

func (c *secretsManagerClient) AccessLatest(ctx context.Context, projectID, key string) (string, error) {
	id := secretsManagerID(projectID, key)
	c.logger.Debug("Accessing AWS secret: %s", logging.Secret(id))

	out, err := c.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(id),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", secretstore.NotFoundError{Store: secretstore.TypeAWSSecretsManager, Key: key}
		}
		return "", classifyAWSError(secretstore.TypeAWSSecretsManager, key, err)
	}

	if out.SecretString != nil {
		return *out.SecretString, nil
	}
	if out.SecretBinary != nil {
		return decodeUTF8(out.SecretBinary), nil
	}
	return "", errNoValue
}

func (c *secretsManagerClient) Close() error {
	return nil
}

func secretsManagerID(projectID, key string) string {
	if strings.HasPrefix(key, "arn:") || projectID == "" {
		return key
	}
	return projectID + "/" + key
}
