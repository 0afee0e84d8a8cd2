package errors_test

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/smpull/internal/errors"
	"github.com/systmms/smpull/pkg/secretstore"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Connection timeout")
	assert.Contains(t, errMsg, "Check network connectivity")
}

// TestUserErrorFallsBackToWrapped verifies the wrapped error is used without a message
func TestUserErrorFallsBackToWrapped(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("socket closed")
	err := errors.UserError{Err: cause}

	assert.Equal(t, "socket closed", err.Error())
	assert.ErrorIs(t, err, cause)
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "outputMethod",
		Value:      "Carrier",
		Message:    "unknown output method",
		Suggestion: "Use one of PropertyMap, SystemPropertyMap, EnvFile, RawFile, TrustStore",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "outputMethod")
	assert.Contains(t, errMsg, "Carrier")
	assert.Contains(t, errMsg, "unknown output method")
	assert.Contains(t, errMsg, "TrustStore")
}

// TestCommandErrorFormatting verifies CommandError includes exit code
func TestCommandErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.CommandError{
		Command:    "make build",
		ExitCode:   2,
		Message:    "missing target",
		Suggestion: "Check the Makefile",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "make build")
	assert.Contains(t, errMsg, "exit code: 2")
	assert.Contains(t, errMsg, "missing target")
}

func TestStoreErrorSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		store    string
		err      error
		contains string
	}{
		{"gcp", fmt.Errorf("rpc error: code = PermissionDenied desc = denied"), "secretmanager.versions.access"},
		{"gcp", fmt.Errorf("rpc error: code = NotFound desc = missing"), "gcloud secrets list"},
		{"aws-secretsmanager", fmt.Errorf("AccessDeniedException: no"), "secretsmanager:GetSecretValue"},
		{"aws-ssm", fmt.Errorf("ParameterNotFound"), "region"},
		{"azure-keyvault", fmt.Errorf("GET: 403 Forbidden"), "access policy"},
		{"gcp", fmt.Errorf("dial tcp: connection refused"), "Unable to connect"},
		{"gcp", secretstore.AuthError{Store: "gcp", Message: "caller lacks access"}, "secretmanager.versions.access"},
		{"aws-ssm", fmt.Errorf("failed to fetch k: %w", secretstore.NotFoundError{Store: "aws-ssm", Key: "k"}), "region"},
		{"azure-keyvault", secretstore.AuthError{Store: "azure-keyvault", Message: "Forbidden"}, "access policy"},
	}

	for _, tt := range tests {
		t.Run(tt.store+"/"+tt.err.Error(), func(t *testing.T) {
			err := errors.StoreError(tt.store, "access", tt.err)

			var userErr errors.UserError
			assert.True(t, stderrors.As(err, &userErr))
			assert.Contains(t, userErr.Suggestion, tt.contains)
			assert.Equal(t, tt.err.Error(), userErr.Details)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.SimplifyError(nil))

	userErr := errors.UserError{Message: "already friendly"}
	assert.Equal(t, userErr, errors.SimplifyError(userErr))

	_, statErr := os.Stat("/definitely/not/here")
	simplified := errors.SimplifyError(fmt.Errorf("load: %w", statErr))
	assert.Contains(t, simplified.Error(), "File or directory not found")

	plain := fmt.Errorf("something else")
	assert.Equal(t, plain, errors.SimplifyError(plain))
}

func TestRedact(t *testing.T) {
	t.Parallel()

	cause := secretstore.AuthError{Store: "aws-secretsmanager", Message: "token hunter2-prod rejected"}
	err := errors.Redact(errors.StoreError("aws-secretsmanager", "fetch", cause), []string{"hunter2-prod", "abc"})

	assert.NotContains(t, err.Error(), "hunter2-prod")
	assert.Contains(t, err.Error(), "token [REDACTED] rejected")

	var userErr errors.UserError
	assert.True(t, stderrors.As(err, &userErr))
	var authErr secretstore.AuthError
	assert.True(t, stderrors.As(err, &authErr))

	// Simplifying keeps the redacted wrapper.
	assert.NotContains(t, errors.SimplifyError(err).Error(), "hunter2-prod")

	assert.Nil(t, errors.Redact(nil, []string{"hunter2-prod"}))
	plain := stderrors.New("plain")
	assert.Equal(t, plain, errors.Redact(plain, nil))
}
