package secure

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	envPrefix     = "env:"
	keyringPrefix = "keyring:"
)

// ResolvePassword resolves a credential reference into a SecureBuffer.
//
// Supported forms:
//
//	env:NAME                  value of environment variable NAME
//	keyring:service/account   entry from the OS keyring
//	anything else             the literal value
//
// An empty reference yields an empty credential.
func ResolvePassword(ref string) (*SecureBuffer, error) {
	switch {
	case ref == "":
		return NewSecureBuffer(nil)

	case strings.HasPrefix(ref, envPrefix):
		name := strings.TrimPrefix(ref, envPrefix)
		value, ok := os.LookupEnv(name)
		if !ok {
			return nil, fmt.Errorf("environment variable %s is not set", name)
		}
		return NewSecureString(value)

	case strings.HasPrefix(ref, keyringPrefix):
		service, account, ok := strings.Cut(strings.TrimPrefix(ref, keyringPrefix), "/")
		if !ok || service == "" || account == "" {
			return nil, fmt.Errorf("invalid keyring reference %q: expected keyring:service/account", ref)
		}
		value, err := keyring.Get(service, account)
		if err != nil {
			if err == keyring.ErrNotFound {
				return nil, fmt.Errorf("keyring entry %s/%s not found", service, account)
			}
			return nil, fmt.Errorf("failed to read keyring entry %s/%s: %w", service, account, err)
		}
		return NewSecureString(value)
	}

	return NewSecureString(ref)
}
