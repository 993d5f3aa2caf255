package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.RunInfo = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fraudgraph_run_info",
			Help: "Constant 1, labelled with the run ID",
		},
		[]string{"run_id"},
	)

	r.RunLastSuccess = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "fraudgraph_run_last_success_timestamp_seconds",
			Help: "Unix time the last run finished successfully",
		},
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fraudgraph_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"stage"},
	)

	r.StageRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudgraph_stage_runs_total",
			Help: "Pipeline stages run, by outcome",
		},
		[]string{"stage", "status"},
	)

	r.InputRecords = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fraudgraph_input_records",
			Help: "Rows read per input table",
		},
		[]string{"table"},
	)

	r.DroppedEdgeTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "fraudgraph_dropped_edges_total",
			Help: "Candidate edges dropped for a missing endpoint",
		},
	)
}
