package visualization

import (
	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

// HierarchicalLayout arranges nodes in breadth-first levels. Level zero holds
// every node of RootKind; on a claims graph that puts providers on top, claims
// below them and physicians and patients at the bottom.
type HierarchicalLayout struct {
	config   *LayoutConfig
	RootKind graph.Kind
}

// NewHierarchicalLayout creates a hierarchical layout rooted at providers.
func NewHierarchicalLayout(config *LayoutConfig) *HierarchicalLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &HierarchicalLayout{config: config, RootKind: graph.KindProvider}
}

// ComputeLayout arranges nodes hierarchically
func (hl *HierarchicalLayout) ComputeLayout(g *graph.Graph) (map[string]Position, error) {
	positions := make(map[string]Position, g.NodeCount())
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return positions, nil
	}

	roots := make([]int, 0)
	for _, n := range nodes {
		if n.Kind == hl.RootKind {
			roots = append(roots, int(n.ID))
		}
	}
	if len(roots) == 0 {
		roots = []int{0}
	}

	adj := g.Adjacency()
	visited := make([]bool, len(nodes))
	for _, r := range roots {
		visited[r] = true
	}

	levels := make([][]int, 0)
	current := roots
	for len(current) > 0 {
		levels = append(levels, current)
		next := make([]int, 0)
		for _, id := range current {
			for _, nb := range adj[id] {
				if !visited[nb] {
					visited[nb] = true
					next = append(next, nb)
				}
			}
		}
		current = next
	}

	// Unreachable nodes share the last level.
	for id := range nodes {
		if !visited[id] {
			levels[len(levels)-1] = append(levels[len(levels)-1], id)
		}
	}

	levelHeight := (hl.config.Height - 2*hl.config.Padding) / float64(len(levels))
	levelWidth := hl.config.Width - 2*hl.config.Padding

	for levelIdx, level := range levels {
		y := hl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		spacing := levelWidth / float64(len(level)+1)
		for i, id := range level {
			positions[nodes[id].Key] = Position{X: hl.config.Padding + spacing*float64(i+1), Y: y}
		}
	}

	return positions, nil
}
