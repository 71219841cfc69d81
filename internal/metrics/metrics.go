// Package metrics defines the recording surface for aggregation runs and a
// Prometheus-backed implementation. Call sites depend on the Recorder
// interface so tests and metric-less runs can use the no-op recorder.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives observations from the aggregation pipeline.
type Recorder interface {
	// PhaseDuration records how long one pipeline phase took for a run.
	PhaseDuration(phase string, d time.Duration)
	// SourceResolved records the outcome of resolving one content source.
	SourceResolved(result string)
	// RefAggregated records the outcome of aggregating one ref.
	RefAggregated(result string)
	// FilesClassified records how many files landed in a family.
	FilesClassified(family string, n int)
	// Warning counts a recoverable content problem by kind.
	Warning(kind string)
}

const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultSkip  = "skip"
)

// Noop discards all observations.
type Noop struct{}

func (Noop) PhaseDuration(string, time.Duration) {}
func (Noop) SourceResolved(string)               {}
func (Noop) RefAggregated(string)                {}
func (Noop) FilesClassified(string, int)         {}
func (Noop) Warning(string)                      {}

// PrometheusRecorder implements Recorder on a prometheus registry.
type PrometheusRecorder struct {
	phaseDuration   *prometheus.HistogramVec
	sourceResolved  *prometheus.CounterVec
	refAggregated   *prometheus.CounterVec
	filesClassified *prometheus.CounterVec
	warnings        *prometheus.CounterVec
}

// NewPrometheusRecorder registers the catalog metrics on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "doccatalog",
			Name:      "phase_duration_seconds",
			Help:      "Duration of one pipeline phase.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"phase"}),
		sourceResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "doccatalog",
			Name:      "sources_resolved_total",
			Help:      "Content sources resolved, by result.",
		}, []string{"result"}),
		refAggregated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "doccatalog",
			Name:      "refs_aggregated_total",
			Help:      "Refs aggregated, by result.",
		}, []string{"result"}),
		filesClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "doccatalog",
			Name:      "files_classified_total",
			Help:      "Files placed in the catalog, by family.",
		}, []string{"family"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "doccatalog",
			Name:      "content_warnings_total",
			Help:      "Recoverable content problems, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(r.phaseDuration, r.sourceResolved, r.refAggregated, r.filesClassified, r.warnings)
	return r
}

func (r *PrometheusRecorder) PhaseDuration(phase string, d time.Duration) {
	r.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (r *PrometheusRecorder) SourceResolved(result string) {
	r.sourceResolved.WithLabelValues(result).Inc()
}

func (r *PrometheusRecorder) RefAggregated(result string) {
	r.refAggregated.WithLabelValues(result).Inc()
}

func (r *PrometheusRecorder) FilesClassified(family string, n int) {
	r.filesClassified.WithLabelValues(family).Add(float64(n))
}

func (r *PrometheusRecorder) Warning(kind string) {
	r.warnings.WithLabelValues(kind).Inc()
}
