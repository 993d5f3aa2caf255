package algorithms

import (
	"container/list"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/network"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

// ClosenessPolicy decides how unreachable nodes affect closeness on a
// disconnected graph. All policies agree on connected graphs.
type ClosenessPolicy string

const (
	// ClosenessExcludeUnreachable averages distance over reachable nodes only.
	ClosenessExcludeUnreachable ClosenessPolicy = "exclude"
	// ClosenessWassermanFaust scales the reachable-only value by the
	// fraction of the graph that is reachable.
	ClosenessWassermanFaust ClosenessPolicy = "wasserman-faust"
	// ClosenessInfinite treats unreachable distance as infinite, giving 0
	// to every node that cannot reach the whole graph.
	ClosenessInfinite ClosenessPolicy = "infinite"
)

var ErrUnknownPolicy = errors.New("unknown closeness policy")

// MetricsOptions configures ComputeAll.
type MetricsOptions struct {
	Closeness ClosenessPolicy
	PageRank  PageRankOptions
	TopN      int
}

// DefaultMetricsOptions returns the default metric configuration.
func DefaultMetricsOptions() MetricsOptions {
	return MetricsOptions{
		Closeness: ClosenessExcludeUnreachable,
		PageRank:  DefaultPageRankOptions(),
		TopN:      10,
	}
}

// MetricsResult holds every per-node metric computed over one graph snapshot.
type MetricsResult struct {
	Degree           map[string]int
	DegreeCentrality map[string]float64
	Betweenness      map[string]float64
	Closeness        map[string]float64
	PageRank         map[string]float64
	Clustering       map[string]float64

	TopByDegree      []RankedNode
	TopByBetweenness []RankedNode
	TopByCloseness   []RankedNode
	TopByPageRank    []RankedNode
}

// ComputeAll computes degree, betweenness, closeness, PageRank and local
// clustering for every node of g. The graph is not modified.
func ComputeAll(g *graph.Graph, opts MetricsOptions) (*MetricsResult, error) {
	degree, degreeCentrality := DegreeCentrality(g)

	betweenness := BetweennessCentrality(g)

	closeness, err := ClosenessCentrality(g, opts.Closeness)
	if err != nil {
		return nil, err
	}

	pr, err := PageRank(g, opts.PageRank)
	if err != nil {
		return nil, err
	}

	degreeScores := make(map[string]float64, len(degree))
	for k, d := range degree {
		degreeScores[k] = float64(d)
	}

	return &MetricsResult{
		Degree:           degree,
		DegreeCentrality: degreeCentrality,
		Betweenness:      betweenness,
		Closeness:        closeness,
		PageRank:         pr,
		Clustering:       ClusteringCoefficient(g),
		TopByDegree:      TopNodes(g, degreeScores, opts.TopN),
		TopByBetweenness: TopNodes(g, betweenness, opts.TopN),
		TopByCloseness:   TopNodes(g, closeness, opts.TopN),
		TopByPageRank:    TopNodes(g, pr, opts.TopN),
	}, nil
}

// DegreeCentrality returns the raw degree (count of incident edges) and the
// degree normalised by n-1.
func DegreeCentrality(g *graph.Graph) (map[string]int, map[string]float64) {
	n := g.NodeCount()
	raw := make(map[string]int, n)
	norm := make(map[string]float64, n)
	for _, node := range g.Nodes() {
		d := len(g.NeighborIDs(node.ID))
		raw[node.Key] = d
		if n > 1 {
			norm[node.Key] = float64(d) / float64(n-1)
		} else {
			norm[node.Key] = 0.0
		}
	}
	return raw, norm
}

// BetweennessCentrality computes normalised betweenness for every node.
// The Brandes pass counts ordered source/target pairs, so the 1/((n-1)(n-2))
// factor yields the usual normalised undirected value.
func BetweennessCentrality(g *graph.Graph) map[string]float64 {
	raw := network.Betweenness(g.Undirected())

	n := g.NodeCount()
	scale := 1.0
	if n > 2 {
		scale = 1.0 / float64((n-1)*(n-2))
	}

	out := make(map[string]float64, n)
	for _, node := range g.Nodes() {
		out[node.Key] = raw[node.ID] * scale
	}
	return out
}

// bfsDistances returns hop distances from source; -1 marks unreachable.
func bfsDistances(adj [][]int, source int) []int {
	distance := make([]int, len(adj))
	for i := range distance {
		distance[i] = -1
	}
	distance[source] = 0

	queue := list.New()
	queue.PushBack(source)
	for queue.Len() > 0 {
		v, ok := queue.Remove(queue.Front()).(int)
		if !ok {
			continue
		}
		for _, w := range adj[v] {
			if distance[w] < 0 {
				distance[w] = distance[v] + 1
				queue.PushBack(w)
			}
		}
	}
	return distance
}

// ClosenessCentrality computes closeness for every node under policy.
// An empty policy selects ClosenessExcludeUnreachable.
func ClosenessCentrality(g *graph.Graph, policy ClosenessPolicy) (map[string]float64, error) {
	if policy == "" {
		policy = ClosenessExcludeUnreachable
	}
	switch policy {
	case ClosenessExcludeUnreachable, ClosenessWassermanFaust, ClosenessInfinite:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}

	adj := g.Adjacency()
	n := len(adj)
	closeness := make(map[string]float64, n)

	for _, node := range g.Nodes() {
		distance := bfsDistances(adj, int(node.ID))

		totalDistance := 0
		reachable := 0
		for _, d := range distance {
			if d > 0 {
				totalDistance += d
				reachable++
			}
		}

		if totalDistance == 0 {
			closeness[node.Key] = 0.0
			continue
		}

		c := float64(reachable) / float64(totalDistance)
		switch policy {
		case ClosenessWassermanFaust:
			c *= float64(reachable) / float64(n-1)
		case ClosenessInfinite:
			if reachable < n-1 {
				c = 0.0
			}
		}
		closeness[node.Key] = c
	}

	return closeness, nil
}
