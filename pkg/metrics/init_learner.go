package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLearnerMetrics() {
	r.LearnerEmbeddingDim = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fraudgraph_learner_embedding_dimensions",
			Help: "Width of the embedding produced by each learner",
		},
		[]string{"learner"},
	)

	r.LearnerEvaluation = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fraudgraph_learner_evaluation",
			Help: "Held-out evaluation per learner, scoring model and metric",
		},
		[]string{"learner", "model", "metric"},
	)
}
