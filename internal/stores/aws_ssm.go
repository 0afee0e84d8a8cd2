package stores

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/systmms/smpull/internal/logging"
	"github.com/systmms/smpull/pkg/secretstore"
)

// SSMClientAPI is the subset of *ssm.Client used by the Parameter Store
// store.
type SSMClientAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMOption customizes an SSM connector.
type SSMOption func(*ssmConnector)

// WithSSMClient makes the connector use client instead of building one from
// the AWS config.
func WithSSMClient(client SSMClientAPI) SSMOption {
	return func(c *ssmConnector) {
		c.client = client
	}
}

// WithSSMLogger sets the logger used for debug output.
func WithSSMLogger(logger *logging.Logger) SSMOption {
	return func(c *ssmConnector) {
		c.logger = logger
	}
}

type ssmConnector struct {
	opts   AWSOptions
	client SSMClientAPI
	logger *logging.Logger
}

// NewSSMConnector returns a connector for AWS SSM Parameter Store.
// Parameters are addressed as "/<projectID>/<key>" unless the key is
// already an absolute parameter path.
func NewSSMConnector(opts AWSOptions, fns ...SSMOption) secretstore.Connector {
	c := &ssmConnector{
		opts:   opts,
		logger: logging.New(false, false),
	}
	for _, fn := range fns {
		fn(c)
	}
	return c
}

func (c *ssmConnector) Connect(ctx context.Context) (secretstore.Client, error) {
	if c.client != nil {
		return &ssmClient{api: c.client, logger: c.logger}, nil
	}

	cfg, err := loadAWSConfig(ctx, c.opts)
	if err != nil {
		return nil, secretstore.ConnectivityError{Store: secretstore.TypeAWSSSM, Err: err}
	}

	var clientOpts []func(*ssm.Options)
	if c.opts.Endpoint != "" {
		endpoint := c.opts.Endpoint
		clientOpts = append(clientOpts, func(o *ssm.Options) {
			o.BaseEndpoint = &endpoint
		})
	}

	return &ssmClient{
		api:    ssm.NewFromConfig(cfg, clientOpts...),
		logger: c.logger,
	}, nil
}

type ssmClient struct {
	api    SSMClientAPI
	logger *logging.Logger
}

func (c *ssmClient) AccessLatest(ctx context.Context, projectID, key string) (string, error) {
	name := parameterName(projectID, key)
	c.logger.Debug("Accessing SSM parameter: %s", logging.Secret(name))

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", secretstore.NotFoundError{Store: secretstore.TypeAWSSSM, Key: key}
		}
		return "", classifyAWSError(secretstore.TypeAWSSSM, key, err)
	}

	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", errNoValue
	}
	return *out.Parameter.Value, nil
}

func (c *ssmClient) Close() error {
	return nil
}

func parameterName(projectID, key string) string {
	if strings.HasPrefix(key, "/") || projectID == "" {
		return key
	}
	return "/" + projectID + "/" + key
}
