package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/systmms/smpull/pkg/secretstore"
)

// DefaultAWSRegion is used when neither the options nor the environment
// name a region.
const DefaultAWSRegion = "us-east-1"

// AWSOptions configures the AWS SDK for both AWS stores.
type AWSOptions struct {
	Region  string
	Profile string

	// Endpoint overrides the service endpoint, e.g. for LocalStack.
	Endpoint string

	// Static credentials, mainly for LocalStack. Both must be set to be used.
	AccessKeyID     string
	SecretAccessKey string

	// AssumeRole is a role ARN assumed through STS with the base
	// credentials before the store is accessed.
	AssumeRole string
	ExternalID string
}

// roleSessionName identifies smpull sessions in CloudTrail.
const roleSessionName = "smpull"

func loadAWSConfig(ctx context.Context, opts AWSOptions) (aws.Config, error) {
	var configOpts []func(*config.LoadOptions) error

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = DefaultAWSRegion
	}

	if opts.AssumeRole != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), opts.AssumeRole,
			func(o *stscreds.AssumeRoleOptions) {
				o.RoleSessionName = roleSessionName
				if opts.ExternalID != "" {
					o.ExternalID = aws.String(opts.ExternalID)
				}
			})
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}
	return cfg, nil
}

var awsAuthErrorCodes = map[string]bool{
	"AccessDeniedException":       true,
	"AccessDenied":                true,
	"UnrecognizedClientException": true,
	"InvalidSignatureException":   true,
	"ExpiredTokenException":       true,
}

// classifyAWSError maps API errors that are not "not found" to the
// secretstore error types.
func classifyAWSError(store, key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && awsAuthErrorCodes[apiErr.ErrorCode()] {
		return secretstore.AuthError{Store: store, Message: apiErr.ErrorMessage()}
	}
	return fmt.Errorf("failed to access secret %s: %w", key, err)
}
