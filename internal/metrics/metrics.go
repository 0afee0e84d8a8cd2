package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Flush outcome labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder collects the metrics of a single run on its own registry.
// All methods are safe to call on a nil Recorder.
type Recorder struct {
	registry *prometheus.Registry

	secretsFetched     prometheus.Counter
	connectFailures    prometheus.Counter
	secretsFlushed     *prometheus.CounterVec
	resolutionFailures *prometheus.CounterVec
	runDuration        *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		secretsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smpull_secrets_fetched_total",
			Help: "Total number of secrets retrieved from the secret store",
		}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smpull_store_connect_failures_total",
			Help: "Total number of failed connections to the secret store",
		}),
		secretsFlushed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smpull_secrets_flushed_total",
				Help: "Total number of resolved secrets flushed to a sink",
			},
			[]string{"method", "status"},
		),
		resolutionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smpull_resolution_failures_total",
				Help: "Total number of mapping resolution failures",
			},
			[]string{"reason"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smpull_run_duration_seconds",
				Help:    "Duration of a complete pull run in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"status"},
		),
	}

	r.registry.MustRegister(
		r.secretsFetched,
		r.connectFailures,
		r.secretsFlushed,
		r.resolutionFailures,
		r.runDuration,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordFetched records n secrets retrieved in one fetch pass.
func (r *Recorder) RecordFetched(n int) {
	if r == nil {
		return
	}
	r.secretsFetched.Add(float64(n))
}

// RecordConnectFailure records a failed store connection.
func (r *Recorder) RecordConnectFailure() {
	if r == nil {
		return
	}
	r.connectFailures.Inc()
}

// RecordFlush records the outcome of one sink flush.
func (r *Recorder) RecordFlush(method string, err error) {
	if r == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	r.secretsFlushed.WithLabelValues(method, status).Inc()
}

// RecordResolutionFailure records a resolution error by reason.
func (r *Recorder) RecordResolutionFailure(reason string) {
	if r == nil {
		return
	}
	r.resolutionFailures.WithLabelValues(reason).Inc()
}

// RecordRun records the duration and outcome of a run.
func (r *Recorder) RecordRun(d time.Duration, err error) {
	if r == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	r.runDuration.WithLabelValues(status).Observe(d.Seconds())
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// suitable for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
