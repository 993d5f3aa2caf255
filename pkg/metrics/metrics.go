package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordStage records a pipeline stage with its duration
func (r *Registry) RecordStage(stage string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.StageRunsTotal.WithLabelValues(stage, status).Inc()
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// SetGraphSize records node and edge counts of a named graph
func (r *Registry) SetGraphSize(name string, nodes, edges int) {
	r.GraphNodes.WithLabelValues(name).Set(float64(nodes))
	r.GraphEdges.WithLabelValues(name).Set(float64(edges))
}

// SetKindCounts records per-kind node counts of a named graph
func (r *Registry) SetKindCounts(name string, counts map[string]int) {
	for kind, n := range counts {
		r.GraphKindNodes.WithLabelValues(name, kind).Set(float64(n))
	}
}

// SetEvaluation records the held-out scores of one learner and model
func (r *Registry) SetEvaluation(learner, model string, scores map[string]float64) {
	for metric, v := range scores {
		r.LearnerEvaluation.WithLabelValues(learner, model, metric).Set(v)
	}
}

// MarkRun labels the registry with a run ID
func (r *Registry) MarkRun(runID string) {
	r.RunInfo.WithLabelValues(runID).Set(1)
}

// MarkSuccess stamps the time of a successful run
func (r *Registry) MarkSuccess(at time.Time) {
	r.RunLastSuccess.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
