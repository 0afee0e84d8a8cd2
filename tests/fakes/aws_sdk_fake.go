package fakes

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// FakeSecretsManagerClient is a mock implementation of the subset of
// *secretsmanager.Client used by the AWS Secrets Manager store.
type FakeSecretsManagerClient struct {
	// Secrets maps secret ids to string values
	Secrets map[string]string
	// Binary maps secret ids to binary values
	Binary map[string][]byte
	// Errors maps secret ids to errors to return
	Errors map[string]error
	// GetSecretValueFunc allows custom behavior for GetSecretValue
	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)

	// Requests records the secret ids requested, in order
	Requests []string
}

// NewFakeSecretsManagerClient creates a new mock Secrets Manager client
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]string),
		Binary:  make(map[string][]byte),
		Errors:  make(map[string]error),
	}
}

// AddSecretString adds a string secret to the mock client
func (f *FakeSecretsManagerClient) AddSecretString(id, value string) {
	f.Secrets[id] = value
}

// AddSecretBinary adds a binary secret to the mock client
func (f *FakeSecretsManagerClient) AddSecretBinary(id string, value []byte) {
	f.Binary[id] = value
}

// AddError configures the mock to return an error for a specific secret
func (f *FakeSecretsManagerClient) AddError(id string, err error) {
	f.Errors[id] = err
}

// GetSecretValue mocks the GetSecretValue operation
func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	id := aws.ToString(params.SecretId)
	f.Requests = append(f.Requests, id)

	if f.GetSecretValueFunc != nil {
		return f.GetSecretValueFunc(ctx, params)
	}

	if err, exists := f.Errors[id]; exists {
		return nil, err
	}

	out := &secretsmanager.GetSecretValueOutput{
		ARN:           aws.String(fmt.Sprintf("arn:aws:secretsmanager:us-east-1:123456789012:secret:%s", id)),
		Name:          params.SecretId,
		VersionStages: []string{"AWSCURRENT"},
	}
	if value, ok := f.Secrets[id]; ok {
		out.SecretString = aws.String(value)
		return out, nil
	}
	if value, ok := f.Binary[id]; ok {
		out.SecretBinary = value
		return out, nil
	}

	return nil, &types.ResourceNotFoundException{
		Message: aws.String(fmt.Sprintf("Secrets Manager can't find the specified secret: %s", id)),
	}
}

// FakeSSMClient is a mock implementation of the subset of *ssm.Client used
// by the SSM Parameter Store store.
type FakeSSMClient struct {
	// Parameters maps parameter names to their values
	Parameters map[string]string
	// Errors maps parameter names to errors to return
	Errors map[string]error

	// Requests records the GetParameter inputs, in order
	Requests []*ssm.GetParameterInput
}

// NewFakeSSMClient creates a new mock SSM client
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Parameters: make(map[string]string),
		Errors:     make(map[string]error),
	}
}

// AddParameter adds a parameter to the mock client
func (f *FakeSSMClient) AddParameter(name, value string) {
	f.Parameters[name] = value
}

// AddError configures the mock to return an error for a specific parameter
func (f *FakeSSMClient) AddError(name string, err error) {
	f.Errors[name] = err
}

// GetParameter mocks the GetParameter operation
func (f *FakeSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.Requests = append(f.Requests, params)
	name := aws.ToString(params.Name)

	if err, exists := f.Errors[name]; exists {
		return nil, err
	}

	value, exists := f.Parameters[name]
	if !exists {
		return nil, &ssmtypes.ParameterNotFound{
			Message: aws.String(fmt.Sprintf("Parameter %s not found", name)),
		}
	}

	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:    aws.String(name),
			Type:    ssmtypes.ParameterTypeSecureString,
			Value:   aws.String(value),
			Version: 1,
		},
	}, nil
}
