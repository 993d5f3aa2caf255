package visualization

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

// KindColors maps node kinds to display colours.
var KindColors = map[graph.Kind]string{
	graph.KindNode:      "#7f7f7f",
	graph.KindProvider:  "#d62728",
	graph.KindPhysician: "#1f77b4",
	graph.KindPatient:   "#2ca02c",
	graph.KindClaim:     "#ff7f0e",
}

// NodeViz is one positioned node in the exported document.
type NodeViz struct {
	Key    string     `json:"key"`
	Kind   graph.Kind `json:"kind"`
	Color  string     `json:"color"`
	Degree int        `json:"degree"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
}

// EdgeViz is one undirected edge in the exported document.
type EdgeViz struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Visualization represents a graph visualization with layout
type Visualization struct {
	Layout string    `json:"layout"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Nodes  []NodeViz `json:"nodes"`
	Edges  []EdgeViz `json:"edges"`
}

// Build lays g out with the named algorithm and collects the result in node
// insertion order.
func Build(g *graph.Graph, name string, config LayoutConfig) (*Visualization, error) {
	layout, err := ByName(name, &config)
	if err != nil {
		return nil, err
	}
	positions, err := layout.ComputeLayout(g)
	if err != nil {
		return nil, fmt.Errorf("compute %s layout: %w", name, err)
	}
	if name == "" {
		name = "force"
	}

	v := &Visualization{
		Layout: name,
		Width:  config.Width,
		Height: config.Height,
		Nodes:  make([]NodeViz, 0, g.NodeCount()),
		Edges:  make([]EdgeViz, 0, g.EdgeCount()),
	}
	adj := g.Adjacency()
	for _, n := range g.Nodes() {
		pos := positions[n.Key]
		v.Nodes = append(v.Nodes, NodeViz{
			Key:    n.Key,
			Kind:   n.Kind,
			Color:  KindColors[n.Kind],
			Degree: len(adj[n.ID]),
			X:      pos.X,
			Y:      pos.Y,
		})
	}
	for _, e := range g.Edges() {
		v.Edges = append(v.Edges, EdgeViz{From: e.From, To: e.To})
	}
	return v, nil
}

// ExportJSON exports the visualization to JSON
func (v *Visualization) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// WriteFile writes the JSON document to path.
func (v *Visualization) WriteFile(path string) error {
	data, err := v.ExportJSON()
	if err != nil {
		return fmt.Errorf("encode visualization: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write visualization %s: %w", path, err)
	}
	return nil
}
