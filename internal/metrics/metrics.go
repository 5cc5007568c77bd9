// Package metrics is the process-wide metrics seam.
//
// Pipeline code records through the helpers in this package and never
// imports a concrete backend. The CLI picks a backend (Datadog, Prometheus
// Pushgateway or none) and installs it with SetBackend; until then every
// call goes to a no-op backend.
package metrics

import (
	"sync"
	"time"
)

// Metric names.
const (
	FilesTotal   = "sales_files_total"
	RowsTotal    = "sales_rows_total"
	StepDuration = "sales_step_duration_seconds"
	MergeTotal   = "sales_merge_total"
)

// Row kinds for RowsTotal.
const (
	RowsLoaded     = "loaded"
	RowsCleaned    = "cleaned"
	RowsMerged     = "merged"
	RowsDuplicates = "duplicates"
	RowsClamped    = "clamped"
)

// Labels are metric dimensions.
type Labels map[string]string

// Backend receives metric observations. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b; nil restores the no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush flushes the installed backend.
func Flush() error { return current().Flush() }

// RecordFile counts one processed file with status "ok" or "error".
func RecordFile(status string) {
	current().IncCounter(FilesTotal, 1, Labels{"status": status})
}

// RecordRows adds n rows of the given kind. Non-positive n is ignored.
func RecordRows(kind string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(n), Labels{"kind": kind})
}

// RecordStep observes how long a pipeline step took.
func RecordStep(step, status string, d time.Duration) {
	current().ObserveHistogram(StepDuration, d.Seconds(), Labels{"step": step, "status": status})
}

// RecordMerge counts one merge attempt by the strategy that produced it, or
// "unavailable".
func RecordMerge(strategy string) {
	current().IncCounter(MergeTotal, 1, Labels{"strategy": strategy})
}
