// Package fetch retrieves the current values of a set of secret keys from a
// secret store.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/systmms/smpull/internal/logging"
	"github.com/systmms/smpull/internal/metrics"
	"github.com/systmms/smpull/pkg/secretstore"
)

// Fetcher retrieves secrets for a single project.
type Fetcher struct {
	connector secretstore.Connector
	projectID string
	logger    *logging.Logger
	metrics   *metrics.Recorder
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithMetrics records fetch counts and connection failures on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(f *Fetcher) {
		f.metrics = r
	}
}

// New creates a Fetcher reading projectID through connector.
func New(connector secretstore.Connector, projectID string, opts ...Option) *Fetcher {
	f := &Fetcher{
		connector: connector,
		projectID: projectID,
		logger:    logging.New(false, false),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ProjectID returns the project secrets are fetched from.
func (f *Fetcher) ProjectID() string {
	return f.projectID
}

// Fetch returns the latest value of every key, keyed by key. Duplicate keys
// are fetched once. An empty key list returns an empty map without
// connecting.
//
// When no connection to the store can be established Fetch logs a warning
// and returns an empty map, leaving the caller to report the keys as
// missing. Any failure on an individual key after connecting is returned
// and no partial result is produced.
func (f *Fetcher) Fetch(ctx context.Context, keys []string) (map[string]string, error) {
	keys = dedupe(keys)
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	client, err := f.connector.Connect(ctx)
	if err != nil {
		var connErr secretstore.ConnectivityError
		if !errors.As(err, &connErr) {
			connErr = secretstore.ConnectivityError{Err: err}
		}
		f.logger.Warn("Could not connect to the secret store: %v", connErr.Err)
		f.metrics.RecordConnectFailure()
		return result, nil
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			f.logger.Debug("Failed to close secret store client: %v", cerr)
		}
	}()

	for _, key := range keys {
		value, err := client.AccessLatest(ctx, f.projectID, key)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s from project %s: %w", key, f.projectID, err)
		}
		result[key] = value
	}

	f.metrics.RecordFetched(len(result))
	return result, nil
}

// dedupe removes repeated keys, keeping first-seen order.
func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
