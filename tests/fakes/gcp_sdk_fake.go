package fakes

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FakeGCPSecretManagerClient is a mock implementation of the subset of
// *secretmanager.Client used by the GCP store.
type FakeGCPSecretManagerClient struct {
	mu sync.Mutex

	// Versions maps version resource names
	// (projects/X/secrets/Y/versions/Z) to their payload
	Versions map[string][]byte
	// Errors maps version resource names to errors to return
	Errors map[string]error
	// AccessSecretVersionFunc allows custom behavior for AccessSecretVersion
	AccessSecretVersionFunc func(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)

	// Requests records the resource names accessed, in order
	Requests []string
	// CloseCount counts calls to Close
	CloseCount int
}

// NewFakeGCPSecretManagerClient creates a new mock GCP Secret Manager client
func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{
		Versions: make(map[string][]byte),
		Errors:   make(map[string]error),
	}
}

// VersionName returns the resource name of the latest version of a secret.
func VersionName(projectID, secretName string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName)
}

// AddSecretString adds a string secret with a latest version
func (f *FakeGCPSecretManagerClient) AddSecretString(projectID, secretName, value string) {
	f.AddSecretBytes(projectID, secretName, []byte(value))
}

// AddSecretBytes adds a binary secret with a latest version
func (f *FakeGCPSecretManagerClient) AddSecretBytes(projectID, secretName string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Versions[VersionName(projectID, secretName)] = value
}

// AddError configures the mock to return an error for a secret
func (f *FakeGCPSecretManagerClient) AddError(projectID, secretName string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[VersionName(projectID, secretName)] = err
}

// AccessSecretVersion mocks the AccessSecretVersion operation
func (f *FakeGCPSecretManagerClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req.GetName())
	f.mu.Unlock()

	if f.AccessSecretVersionFunc != nil {
		return f.AccessSecretVersionFunc(ctx, req)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, exists := f.Errors[req.GetName()]; exists {
		return nil, err
	}

	data, exists := f.Versions[req.GetName()]
	if !exists {
		return nil, status.Errorf(codes.NotFound, "Secret [%s] not found or has no versions.", req.GetName())
	}

	return &secretmanagerpb.AccessSecretVersionResponse{
		Name: req.GetName(),
		Payload: &secretmanagerpb.SecretPayload{
			Data: data,
		},
	}, nil
}

// Close records that the client was closed
func (f *FakeGCPSecretManagerClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CloseCount++
	return nil
}
