package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/smpull/internal/metrics"
	"github.com/systmms/smpull/pkg/secretstore"
	"github.com/systmms/smpull/tests/fakes"
	"github.com/systmms/smpull/tests/testutil"
)

func newTestFetcher(t *testing.T, store *fakes.FakeSecretStore, projectID string) (*Fetcher, *testutil.TestLogger, *metrics.Recorder) {
	logger := testutil.NewTestLogger(t, false)
	recorder := metrics.NewRecorder()
	f := New(store, projectID,
		WithLogger(logger.Logger),
		WithMetrics(recorder),
	)
	return f, logger, recorder
}

func TestFetch(t *testing.T) {
	t.Parallel()

	store := fakes.NewFakeSecretStore().
		Add("p", "a", "value-a").
		Add("p", "b", "value-b").
		Add("other", "a", "wrong-project")

	f, _, recorder := newTestFetcher(t, store, "p")

	got, err := f.Fetch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "value-a", "b": "value-b"}, got)
	assert.Equal(t, 1, store.Connects)
	assert.Equal(t, 1, store.Closes)
	assert.Equal(t, float64(2), testutil.MetricValue(t, recorder.Registry(), "smpull_secrets_fetched_total", nil))
}

func TestFetchDeduplicatesKeys(t *testing.T) {
	t.Parallel()

	store := fakes.NewFakeSecretStore().Add("p", "a", "1").Add("p", "b", "2")
	f, _, _ := newTestFetcher(t, store, "p")

	got, err := f.Fetch(context.Background(), []string{"b", "a", "b", "a"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"b", "a"}, store.Accessed)
}

func TestFetchEmptyKeysDoesNotConnect(t *testing.T) {
	t.Parallel()

	store := fakes.NewFakeSecretStore()
	store.ConnectErr = errors.New("must not be called")
	f, logs, _ := newTestFetcher(t, store, "p")

	got, err := f.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, store.Connects)
	assert.Empty(t, logs.GetOutput())
}

func TestFetchConnectFailureReturnsEmptyMap(t *testing.T) {
	t.Parallel()

	store := fakes.NewFakeSecretStore()
	store.ConnectErr = secretstore.ConnectivityError{Store: "gcp", Err: errors.New("could not find default credentials")}
	f, logs, recorder := newTestFetcher(t, store, "p")

	got, err := f.Fetch(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	logs.AssertContains(t, "could not find default credentials")
	assert.Equal(t, float64(1), testutil.MetricValue(t, recorder.Registry(), "smpull_store_connect_failures_total", nil))
}

func TestFetchKeyFailurePropagates(t *testing.T) {
	t.Parallel()

	store := fakes.NewFakeSecretStore().Add("p", "a", "1")
	f, _, _ := newTestFetcher(t, store, "p")

	got, err := f.Fetch(context.Background(), []string{"a", "missing"})
	require.Error(t, err)
	assert.Nil(t, got)

	var notFound secretstore.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Key)
	assert.Equal(t, 1, store.Closes)
}
