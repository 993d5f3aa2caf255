package graph

import (
	"fmt"
	"slices"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Graph is an undirected simple graph keyed by string node keys. Parallel
// edges collapse; self loops are rejected.
type Graph struct {
	g     *simple.UndirectedGraph
	nodes []*Node
	byKey map[string]int64
	edges int
	star  bool
}

// New creates an empty homogeneous graph.
func New() *Graph {
	return &Graph{
		g:     simple.NewUndirectedGraph(),
		byKey: make(map[string]int64),
	}
}

// NewHeterogeneous creates an empty graph enforcing the claim-centred star
// topology: every edge must join exactly one claim node to a non-claim node.
func NewHeterogeneous() *Graph {
	g := New()
	g.star = true
	return g
}

// AddNode inserts a node. Keys are unique within a graph.
func (g *Graph) AddNode(key string, kind Kind) (*Node, error) {
	if key == "" {
		return nil, &GraphError{Op: "AddNode", Key: key, Cause: ErrEmptyKey}
	}
	if _, ok := g.byKey[key]; ok {
		return nil, &GraphError{Op: "AddNode", Key: key, Cause: ErrDuplicateNode}
	}
	return g.insert(key, kind), nil
}

// EnsureNode returns the node for key, creating it with kind when absent.
// The boolean reports whether the node was created.
func (g *Graph) EnsureNode(key string, kind Kind) (*Node, bool, error) {
	if key == "" {
		return nil, false, &GraphError{Op: "EnsureNode", Key: key, Cause: ErrEmptyKey}
	}
	if id, ok := g.byKey[key]; ok {
		return g.nodes[id], false, nil
	}
	return g.insert(key, kind), true, nil
}

func (g *Graph) insert(key string, kind Kind) *Node {
	id := int64(len(g.nodes))
	n := &Node{ID: id, Key: key, Kind: kind}
	g.nodes = append(g.nodes, n)
	g.byKey[key] = id
	g.g.AddNode(simple.Node(id))
	return n
}

// AddEdge joins two existing nodes. Adding an existing edge is a no-op.
func (g *Graph) AddEdge(a, b string) error {
	na, ok := g.Node(a)
	if !ok {
		return &GraphError{Op: "AddEdge", Key: a, Other: b, Cause: ErrUnmappedKey}
	}
	nb, ok := g.Node(b)
	if !ok {
		return &GraphError{Op: "AddEdge", Key: b, Other: a, Cause: ErrUnmappedKey}
	}
	if na.ID == nb.ID {
		return &GraphError{Op: "AddEdge", Key: a, Other: b, Cause: ErrSelfLoop}
	}
	if g.star && (na.Kind == KindClaim) == (nb.Kind == KindClaim) {
		return &GraphError{Op: "AddEdge", Key: a, Other: b, Cause: ErrStarViolation}
	}
	if g.g.HasEdgeBetween(na.ID, nb.ID) {
		return nil
	}
	g.g.SetEdge(simple.Edge{F: simple.Node(na.ID), T: simple.Node(nb.ID)})
	g.edges++
	return nil
}

// Node looks up a node by key.
func (g *Graph) Node(key string) (*Node, bool) {
	id, ok := g.byKey[key]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// NodeByID looks up a node by its dense ID.
func (g *Graph) NodeByID(id int64) (*Node, bool) {
	if id < 0 || id >= int64(len(g.nodes)) {
		return nil, false
	}
	return g.nodes[id], true
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Keys returns all node keys in insertion order.
func (g *Graph) Keys() []string {
	keys := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		keys[i] = n.Key
	}
	return keys
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) EdgeCount() int { return g.edges }

// HasEdge reports whether a and b are adjacent.
func (g *Graph) HasEdge(a, b string) bool {
	ia, okA := g.byKey[a]
	ib, okB := g.byKey[b]
	if !okA || !okB {
		return false
	}
	return g.g.HasEdgeBetween(ia, ib)
}

// NeighborIDs returns the neighbours of id sorted ascending.
func (g *Graph) NeighborIDs(id int64) []int64 {
	it := g.g.From(id)
	out := make([]int64, 0, it.Len())
	for it.Next() {
		out = append(out, it.Node().ID())
	}
	slices.Sort(out)
	return out
}

// Neighbors returns the neighbour keys of key in node insertion order.
func (g *Graph) Neighbors(key string) ([]string, error) {
	id, ok := g.byKey[key]
	if !ok {
		return nil, &GraphError{Op: "Neighbors", Key: key, Cause: ErrUnmappedKey}
	}
	ids := g.NeighborIDs(id)
	out := make([]string, len(ids))
	for i, nid := range ids {
		out[i] = g.nodes[nid].Key
	}
	return out, nil
}

// Degree returns the number of incident edges of key.
func (g *Graph) Degree(key string) (int, error) {
	id, ok := g.byKey[key]
	if !ok {
		return 0, &GraphError{Op: "Degree", Key: key, Cause: ErrUnmappedKey}
	}
	return g.g.From(id).Len(), nil
}

// Adjacency returns sorted neighbour lists indexed by node ID.
func (g *Graph) Adjacency() [][]int {
	adj := make([][]int, len(g.nodes))
	for _, n := range g.nodes {
		ids := g.NeighborIDs(n.ID)
		row := make([]int, len(ids))
		for i, id := range ids {
			row[i] = int(id)
		}
		adj[n.ID] = row
	}
	return adj
}

// Edges returns every undirected edge once, From having the lower ID.
// Edges are ordered by (From ID, To ID).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for _, n := range g.nodes {
		for _, id := range g.NeighborIDs(n.ID) {
			if id > n.ID {
				out = append(out, Edge{From: n.Key, To: g.nodes[id].Key})
			}
		}
	}
	return out
}

// KindCounts returns the number of nodes per kind.
func (g *Graph) KindCounts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, n := range g.nodes {
		counts[n.Kind]++
	}
	return counts
}

// SetFeatures attaches a feature vector to key.
func (g *Graph) SetFeatures(key string, features []float64) error {
	n, ok := g.Node(key)
	if !ok {
		return &GraphError{Op: "SetFeatures", Key: key, Cause: ErrUnmappedKey}
	}
	n.Features = features
	return nil
}

// Undirected exposes the gonum view for library algorithms. Node IDs in the
// view equal Node.ID.
func (g *Graph) Undirected() gonum.Undirected {
	return g.g
}

// Directed returns a gonum directed graph holding both arcs of every edge.
func (g *Graph) Directed() *simple.DirectedGraph {
	d := simple.NewDirectedGraph()
	for _, n := range g.nodes {
		d.AddNode(simple.Node(n.ID))
	}
	for _, n := range g.nodes {
		for _, id := range g.NeighborIDs(n.ID) {
			d.SetEdge(simple.Edge{F: simple.Node(n.ID), T: simple.Node(id)})
		}
	}
	return d
}

// Subgraph returns the graph induced by keys, keeping the given order.
func (g *Graph) Subgraph(keys []string) (*Graph, error) {
	sub := New()
	for _, k := range keys {
		n, ok := g.Node(k)
		if !ok {
			return nil, &GraphError{Op: "Subgraph", Key: k, Cause: ErrUnmappedKey}
		}
		if _, err := sub.AddNode(k, n.Kind); err != nil {
			return nil, err
		}
	}
	for _, e := range g.Edges() {
		if _, ok := sub.Node(e.From); !ok {
			continue
		}
		if _, ok := sub.Node(e.To); !ok {
			continue
		}
		if err := sub.AddEdge(e.From, e.To); err != nil {
			return nil, fmt.Errorf("subgraph: %w", err)
		}
	}
	return sub, nil
}
