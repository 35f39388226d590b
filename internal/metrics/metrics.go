// Package metrics provides Prometheus metrics for split batches.
//
// Each Metrics owns a private registry so a CLI run can export exactly its
// own counters to a node_exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors recorded by the orchestrator. All recording
// methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	segmentsTotal  *prometheus.CounterVec
	batchesTotal   *prometheus.CounterVec
	probeTotal     *prometheus.CounterVec
	encodeDuration prometheus.Histogram
}

// New creates a Metrics with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		segmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitter_segments_total",
			Help: "Total number of segments processed, by final status.",
		}, []string{"status"}),
		batchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitter_batches_total",
			Help: "Total number of batches run, by outcome.",
		}, []string{"outcome"}),
		probeTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitter_probe_total",
			Help: "Total number of ffprobe invocations, by result.",
		}, []string{"result"}),
		encodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitter_segment_encode_seconds",
			Help:    "Wall-clock time spent in the encoder per segment.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSegment records one segment outcome ("done", "failed", "cancelled")
// and the time spent in the encoder.
func (m *Metrics) ObserveSegment(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.segmentsTotal.WithLabelValues(status).Inc()
	if elapsed > 0 {
		m.encodeDuration.Observe(elapsed.Seconds())
	}
}

// ObserveBatch records a batch outcome ("completed", "cancelled", "aborted").
func (m *Metrics) ObserveBatch(outcome string) {
	if m == nil {
		return
	}
	m.batchesTotal.WithLabelValues(outcome).Inc()
}

// ObserveProbe records a probe result ("ok", "error").
func (m *Metrics) ObserveProbe(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.probeTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes the current metric values in the Prometheus text
// format, atomically replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
