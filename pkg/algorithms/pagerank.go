package algorithms

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/network"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

var ErrInvalidDamping = errors.New("damping factor must be in (0, 1)")

// PageRankOptions configures PageRank
type PageRankOptions struct {
	DampingFactor float64 // Usually 0.85
	Tolerance     float64 // Convergence threshold on the 2-norm of the update
}

// DefaultPageRankOptions returns default PageRank configuration
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		DampingFactor: 0.85,
		Tolerance:     1e-6,
	}
}

// PageRank computes the damped random-walk importance of every node. Each
// undirected edge is walked in both directions. Scores sum to 1.
func PageRank(g *graph.Graph, opts PageRankOptions) (map[string]float64, error) {
	if opts.DampingFactor <= 0 || opts.DampingFactor >= 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDamping, opts.DampingFactor)
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultPageRankOptions().Tolerance
	}

	scores := make(map[string]float64, g.NodeCount())
	if g.NodeCount() == 0 {
		return scores, nil
	}

	raw := network.PageRank(g.Directed(), opts.DampingFactor, opts.Tolerance)

	sum := 0.0
	for _, node := range g.Nodes() {
		s := raw[node.ID]
		scores[node.Key] = s
		sum += s
	}
	if sum > 0 {
		for k := range scores {
			scores[k] /= sum
		}
	}

	return scores, nil
}

// RankedNode is a node with one of its metric scores
type RankedNode struct {
	Key   string     `json:"key"`
	Kind  graph.Kind `json:"kind"`
	Score float64    `json:"score"`
}

// rankedNodeHeap is a min-heap on score; ties put the larger key at the
// root so the smaller key survives.
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Key > h[j].Key
}
func (h rankedNodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// TopNodes returns the n highest-scoring nodes, descending by score and
// ascending by key on ties. Time O(V log n).
func TopNodes(g *graph.Graph, scores map[string]float64, n int) []RankedNode {
	if n <= 0 {
		return nil
	}

	h := make(rankedNodeHeap, 0, n)
	heap.Init(&h)

	for key, score := range scores {
		node, ok := g.Node(key)
		if !ok {
			continue
		}
		rn := RankedNode{Key: key, Kind: node.Kind, Score: score}

		if h.Len() < n {
			heap.Push(&h, rn)
		} else if better(rn, h[0]) {
			heap.Pop(&h)
			heap.Push(&h, rn)
		}
	}

	result := make([]RankedNode, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(RankedNode)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return better(result[i], result[j])
	})
	return result
}

func better(a, b RankedNode) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Key < b.Key
}
