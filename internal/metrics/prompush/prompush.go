// Package prompush implements a Prometheus Pushgateway backend for the
// internal/metrics package.
//
// Metrics are kept in a private registry. Vectors are created on first use
// with the label names of that first observation; later observations with a
// different label set for the same name are dropped. Flush pushes the whole
// registry, replacing the previous push for the job.
package prompush

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/Odelialan/Sales-Data-Analysis/internal/metrics"
)

// DurationBuckets are the histogram buckets, in seconds.
var DurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

type Backend struct {
	pusher *push.Pusher
	reg    *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	labelKeys  map[string][]string
}

// NewBackend returns a backend pushing to gatewayURL under job.
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if strings.TrimSpace(job) == "" {
		return nil, fmt.Errorf("prompush: job is required")
	}
	if strings.TrimSpace(gatewayURL) == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	reg := prometheus.NewRegistry()
	return &Backend{
		pusher:     push.New(gatewayURL, job).Gatherer(reg),
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labelKeys:  make(map[string][]string),
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := sortedKeys(labels)
	vec, ok := b.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: name}, keys)
		if err := b.reg.Register(vec); err != nil {
			return
		}
		b.counters[name] = vec
		b.labelKeys[name] = keys
	}
	if !sameKeys(b.labelKeys[name], keys) {
		return
	}
	vec.WithLabelValues(values(labels, keys)...).Add(delta)
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := sortedKeys(labels)
	vec, ok := b.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: name, Buckets: DurationBuckets}, keys)
		if err := b.reg.Register(vec); err != nil {
			return
		}
		b.histograms[name] = vec
		b.labelKeys[name] = keys
	}
	if !sameKeys(b.labelKeys[name], keys) {
		return
	}
	vec.WithLabelValues(values(labels, keys)...).Observe(value)
}

// Flush pushes the registry to the gateway.
func (b *Backend) Flush() error {
	if err := b.pusher.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}

func sortedKeys(l metrics.Labels) []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func values(l metrics.Labels, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = l[k]
	}
	return out
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var _ metrics.Backend = (*Backend)(nil)
