// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the retail analytics pipeline.
//
// The package exposes a narrow interface (Backend) focused on counters and
// timing data, with a global, pluggable backend that defaults to a no-op
// implementation so metrics are always safe to call even when no real backend
// is configured. Concrete metric systems (Prometheus Pushgateway) live in
// subpackages; the rest of the codebase depends only on this interface.
package metrics

import "time"

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

// RecordStage measures latency + success/failure for one pipeline stage
// (clean, aggregate, insights, export).
func RecordStage(job, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"stage":  stage,
		"status": status,
	}

	backend.IncCounter("retail_stage_total", 1, lbls)
	backend.ObserveHistogram("retail_stage_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given job and kind.
//
// Typical kinds mirror the cleaning report fields, e.g.:
//   - "duplicates_removed"
//   - "values_repaired"
//   - "rows_dropped"
//   - "inventory_synthesized"
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("retail_rows_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordInsights increments the emitted-insight counter for the given job.
func RecordInsights(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("retail_insights_total", float64(delta), Labels{
		"job": job,
	})
}
