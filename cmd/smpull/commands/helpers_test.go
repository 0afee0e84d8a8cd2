package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/smpull/internal/config"
	"github.com/systmms/smpull/internal/logging"
	"github.com/systmms/smpull/pkg/secretstore"
	"github.com/systmms/smpull/tests/fakes"
)

const testConfig = `
projectId: my-project
mappings:
  - key: db-password
    property: DB_PASSWORD
  - key: api-key
    property: API_KEY
complexMappings:
  - key: service-account
    mappings:
      - key: user
        property: SA_USER
`

// useFakeStore routes every connector built by the commands to store.
func useFakeStore(t *testing.T, store *fakes.FakeSecretStore) {
	t.Helper()
	original := newConnector
	newConnector = func(cfg config.StoreConfig, projectID string, logger *logging.Logger) (secretstore.Connector, error) {
		return store, nil
	}
	t.Cleanup(func() { newConnector = original })
}

func seededStore() *fakes.FakeSecretStore {
	return fakes.NewFakeSecretStore().
		Add("my-project", "db-password", "s3cret").
		Add("my-project", "api-key", "k-123").
		Add("my-project", "service-account", `{"user":"svc","token":"t"}`)
}

func newTestConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smpull.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return &config.Config{
		Path:   path,
		Logger: logging.NewWithWriter(&bytes.Buffer{}, false, true),
	}
}

func TestPullFlagsOverridesOnlyChangedFlags(t *testing.T) {
	var flags pullFlags
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	flags.register(cmd)
	cmd.SetArgs([]string{"--project", "other", "--skip", "--secret-store", "aws-ssm"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, map[string]interface{}{
		"projectId":     "other",
		"skipExecution": true,
		"store.type":    "aws-ssm",
	}, flags.overrides(cmd))
}

func TestPullFlagsTimeout(t *testing.T) {
	flags := pullFlags{timeout: time.Minute}
	ctx, cancel := flags.context()
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	flags.timeout = 0
	ctx, cancel = flags.context()
	defer cancel()
	_, ok = ctx.Deadline()
	assert.False(t, ok)
}
