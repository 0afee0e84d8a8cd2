// Package engine runs a pull: it fetches the secrets named by the flat
// mappings, resolves and flushes them, then does the same for the complex
// mappings.
package engine

import (
	"context"
	"errors"
	"time"

	dserrors "github.com/systmms/smpull/internal/errors"
	"github.com/systmms/smpull/internal/logging"
	"github.com/systmms/smpull/internal/metrics"
	"github.com/systmms/smpull/internal/output"
	"github.com/systmms/smpull/internal/resolve"
	"github.com/systmms/smpull/pkg/mapping"
)

// SecretFetcher retrieves the latest values of a set of keys.
type SecretFetcher interface {
	Fetch(ctx context.Context, keys []string) (map[string]string, error)
}

// Config describes one pull.
type Config struct {
	ProjectID       string
	Mappings        []mapping.Mapping
	ComplexMappings []mapping.ComplexMapping
	Method          output.Method

	// Skip turns Run into a no-op.
	Skip bool
}

// Result summarizes a run.
type Result struct {
	Skipped bool

	FetchedFlat    int
	FetchedComplex int
	FlushedFlat    int
	FlushedComplex int
}

// Flushed returns the total number of secrets written.
func (r Result) Flushed() int {
	return r.FlushedFlat + r.FlushedComplex
}

// Engine sequences fetch, resolve and flush.
type Engine struct {
	fetcher SecretFetcher
	logger  *logging.Logger
	metrics *metrics.Recorder
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records flush and resolution outcomes on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = r
	}
}

// New creates an Engine reading secrets through fetcher.
func New(fetcher SecretFetcher, opts ...Option) *Engine {
	e := &Engine{
		fetcher: fetcher,
		logger:  logging.New(false, false),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the pull described by cfg, writing to fc. Flat mappings are
// fetched and flushed before complex mappings are fetched. The first fetch,
// resolution or flush error stops the run; secrets flushed before it are
// not rolled back. Fetched values are scrubbed from the returned error's
// message.
func (e *Engine) Run(ctx context.Context, cfg Config, fc *output.FlushContext) (Result, error) {
	var result Result
	if cfg.Skip {
		e.logger.Info("Skipping execution")
		result.Skipped = true
		return result, nil
	}

	var fetched []string
	start := time.Now()
	err := e.run(ctx, cfg, fc, &result, &fetched)
	e.metrics.RecordRun(time.Since(start), err)
	return result, dserrors.Redact(err, fetched)
}

func (e *Engine) run(ctx context.Context, cfg Config, fc *output.FlushContext, result *Result, fetched *[]string) error {
	resolver := resolve.New(cfg.ProjectID)

	e.logger.Info("Fetching %d secrets for project [%s]", len(cfg.Mappings), cfg.ProjectID)
	flat, err := e.fetcher.Fetch(ctx, mapping.Keys(cfg.Mappings))
	if err != nil {
		return err
	}
	result.FetchedFlat = len(flat)
	*fetched = appendValues(*fetched, flat)

	if len(cfg.Mappings) > 0 {
		e.logger.Info("Flushing secrets to [%s]", cfg.Method)
	}
	err = resolver.EachFlat(cfg.Mappings, flat, func(s resolve.Secret) error {
		if err := e.flush(cfg.Method, s, fc); err != nil {
			return err
		}
		result.FlushedFlat++
		return nil
	})
	if err != nil {
		e.recordFailure(err)
		return err
	}

	if len(cfg.ComplexMappings) > 0 {
		e.logger.Info("Fetching %d complex secrets for project [%s]", len(cfg.ComplexMappings), cfg.ProjectID)
	}
	complexValues, err := e.fetcher.Fetch(ctx, mapping.ComplexKeys(cfg.ComplexMappings))
	if err != nil {
		return err
	}
	result.FetchedComplex = len(complexValues)
	*fetched = appendValues(*fetched, complexValues)

	if len(cfg.ComplexMappings) > 0 {
		e.logger.Info("Flushing complex secrets to [%s]", cfg.Method)
	}
	err = resolver.EachComplex(cfg.ComplexMappings, complexValues, func(s resolve.Secret) error {
		*fetched = append(*fetched, s.Value)
		if err := e.flush(cfg.Method, s, fc); err != nil {
			return err
		}
		result.FlushedComplex++
		return nil
	})
	if err != nil {
		e.recordFailure(err)
		return err
	}

	return nil
}

func appendValues(dst []string, values map[string]string) []string {
	for _, v := range values {
		dst = append(dst, v)
	}
	return dst
}

func (e *Engine) flush(method output.Method, s resolve.Secret, fc *output.FlushContext) error {
	e.logger.Debug("Flushing %s to [%s]", s.Property, method)
	err := output.Flush(method, s, fc)
	e.metrics.RecordFlush(method.String(), err)
	return err
}

// Resolution failure reasons recorded in metrics.
const (
	ReasonMissingSecret    = "missing_secret"
	ReasonMalformedComplex = "malformed_complex_secret"
	ReasonMissingSubKey    = "missing_subkey"
)

func (e *Engine) recordFailure(err error) {
	var (
		missing   resolve.MissingSecretError
		malformed resolve.MalformedComplexSecretError
		subKey    resolve.MissingSubKeyError
	)
	switch {
	case errors.As(err, &missing):
		e.metrics.RecordResolutionFailure(ReasonMissingSecret)
	case errors.As(err, &malformed):
		e.metrics.RecordResolutionFailure(ReasonMalformedComplex)
	case errors.As(err, &subKey):
		e.metrics.RecordResolutionFailure(ReasonMissingSubKey)
	}
}
