package algorithms

import "github.com/dd0wney/cluso-fraudgraph/pkg/graph"

// TriangleCountResult holds per-node triangle counts, the global count and
// the local clustering coefficient of every node.
type TriangleCountResult struct {
	PerNode     map[string]int
	GlobalCount int
	Clustering  map[string]float64
}

// CountTriangles counts triangles in g. For each node u it checks every
// pair (v,w) of its neighbours; each triangle is seen once per vertex, so
// GlobalCount = sum(PerNode) / 3. Nodes of degree below 2 have clustering 0.
func CountTriangles(g *graph.Graph) *TriangleCountResult {
	adj := g.Adjacency()

	neighborSets := make([]map[int]bool, len(adj))
	for u, nbrs := range adj {
		set := make(map[int]bool, len(nbrs))
		for _, v := range nbrs {
			set[v] = true
		}
		neighborSets[u] = set
	}

	perNode := make(map[string]int, len(adj))
	clustering := make(map[string]float64, len(adj))
	total := 0
	for _, node := range g.Nodes() {
		nbrs := adj[node.ID]
		count := 0
		for i := 0; i < len(nbrs); i++ {
			for j := i + 1; j < len(nbrs); j++ {
				if neighborSets[nbrs[i]][nbrs[j]] {
					count++
				}
			}
		}
		perNode[node.Key] = count
		total += count

		k := len(nbrs)
		if k < 2 {
			clustering[node.Key] = 0.0
			continue
		}
		clustering[node.Key] = float64(count) / float64(k*(k-1)/2)
	}

	return &TriangleCountResult{
		PerNode:     perNode,
		GlobalCount: total / 3,
		Clustering:  clustering,
	}
}

// ClusteringCoefficient returns the local clustering coefficient of every node.
func ClusteringCoefficient(g *graph.Graph) map[string]float64 {
	return CountTriangles(g).Clustering
}
