package fakes

import (
	"context"
	"sync"

	"github.com/systmms/smpull/pkg/secretstore"
)

// FakeSecretStore is an in-memory secretstore.Client and
// secretstore.Connector. Secrets are keyed by project and key.
type FakeSecretStore struct {
	mu sync.Mutex

	// Secrets maps project id to key to value
	Secrets map[string]map[string]string
	// Errors maps keys to errors returned by AccessLatest
	Errors map[string]error
	// ConnectErr is returned by Connect when set
	ConnectErr error

	// Accessed records the keys passed to AccessLatest, in order
	Accessed []string
	// Connects counts successful calls to Connect
	Connects int
	// Closes counts calls to Close
	Closes int
}

// NewFakeSecretStore creates an empty fake store
func NewFakeSecretStore() *FakeSecretStore {
	return &FakeSecretStore{
		Secrets: make(map[string]map[string]string),
		Errors:  make(map[string]error),
	}
}

// Add stores value under projectID and key
func (f *FakeSecretStore) Add(projectID, key, value string) *FakeSecretStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Secrets[projectID] == nil {
		f.Secrets[projectID] = make(map[string]string)
	}
	f.Secrets[projectID][key] = value
	return f
}

// Connect returns the fake itself as the client
func (f *FakeSecretStore) Connect(ctx context.Context) (secretstore.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConnectErr != nil {
		return nil, f.ConnectErr
	}
	f.Connects++
	return f, nil
}

// AccessLatest returns the stored value or a secretstore.NotFoundError
func (f *FakeSecretStore) AccessLatest(ctx context.Context, projectID, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Accessed = append(f.Accessed, key)

	if err, ok := f.Errors[key]; ok {
		return "", err
	}
	if value, ok := f.Secrets[projectID][key]; ok {
		return value, nil
	}
	return "", secretstore.NotFoundError{Store: "fake", Key: key}
}

// Close records the call
func (f *FakeSecretStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closes++
	return nil
}
