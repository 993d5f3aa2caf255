package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics of one pipeline run
type Registry struct {
	// Run Metrics
	RunInfo          *prometheus.GaugeVec
	RunLastSuccess   prometheus.Gauge
	StageDuration    *prometheus.HistogramVec
	StageRunsTotal   *prometheus.CounterVec
	InputRecords     *prometheus.GaugeVec
	DroppedEdgeTotal prometheus.Counter

	// Graph Metrics
	GraphNodes      *prometheus.GaugeVec
	GraphEdges      *prometheus.GaugeVec
	GraphKindNodes  *prometheus.GaugeVec
	ProjectionPairs *prometheus.GaugeVec

	// Learner Metrics
	LearnerEmbeddingDim *prometheus.GaugeVec
	LearnerEvaluation   *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initRunMetrics()
	r.initGraphMetrics()
	r.initLearnerMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
