// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the retail pipeline.
//
//   - Backend is a narrow interface over counters and durations.
//   - The global backend defaults to a no-op, so instrumentation is always
//     safe to call even when nothing is configured.
//   - Concrete systems live in subpackages (prompush, datadog) and are
//     installed once by the CLI via SetBackend.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StepTotal    = "retail_step_total"
	StepDuration = "retail_step_duration_seconds"
	RowsTotal    = "retail_rows_total"
	BatchesTotal = "retail_batches_total"
)

// Row kinds passed to RecordRow.
const (
	KindRead              = "read"
	KindWritten           = "written"
	KindInvalidTimestamps = "invalid_timestamps"
	KindPublished         = "published"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a pipeline step and records its
// duration, labeled with the outcome.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds delta to the row counter for kind (KindRead, KindWritten,
// KindInvalidTimestamps, KindPublished). Non-positive deltas are dropped.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments the publish batch counter for job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}
