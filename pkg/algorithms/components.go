package algorithms

import (
	"sort"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

// Component is a connected set of node keys
type Component struct {
	ID   int
	Keys []string
	Size int
}

// ComponentsResult contains the connected components of a graph
type ComponentsResult struct {
	Components    []*Component   // Largest first
	NodeComponent map[string]int // Node key -> component ID
}

// Largest returns the biggest component, or nil for an empty graph.
func (r *ComponentsResult) Largest() *Component {
	if len(r.Components) == 0 {
		return nil
	}
	return r.Components[0]
}

// ConnectedComponents finds all connected components by BFS from every
// unvisited node.
func ConnectedComponents(g *graph.Graph) *ComponentsResult {
	adj := g.Adjacency()
	visited := make([]bool, len(adj))
	var components []*Component

	for _, start := range g.Nodes() {
		if visited[start.ID] {
			continue
		}
		component := &Component{}
		queue := []int{int(start.ID)}
		visited[start.ID] = true
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			node, _ := g.NodeByID(int64(v))
			component.Keys = append(component.Keys, node.Key)
			for _, w := range adj[v] {
				if !visited[w] {
					visited[w] = true
					queue = append(queue, w)
				}
			}
		}
		component.Size = len(component.Keys)
		components = append(components, component)
	}

	sort.SliceStable(components, func(i, j int) bool {
		return components[i].Size > components[j].Size
	})

	nodeComponent := make(map[string]int, len(adj))
	for id, c := range components {
		c.ID = id
		for _, k := range c.Keys {
			nodeComponent[k] = id
		}
	}

	return &ComponentsResult{
		Components:    components,
		NodeComponent: nodeComponent,
	}
}
