package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fraudgraph_graph_nodes",
			Help: "Number of nodes per built graph",
		},
		[]string{"graph"},
	)

	r.GraphEdges = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fraudgraph_graph_edges",
			Help: "Number of edges per built graph",
		},
		[]string{"graph"},
	)

	r.GraphKindNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fraudgraph_graph_kind_nodes",
			Help: "Number of nodes per graph and node kind",
		},
		[]string{"graph", "kind"},
	)

	r.ProjectionPairs = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fraudgraph_projection_pairs",
			Help: "Provider pairs in the projection, by linking relation",
		},
		[]string{"via"},
	)
}
