package visualization

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

// ErrUnknownLayout is returned by ByName for an unrecognised algorithm.
var ErrUnknownLayout = errors.New("unknown layout")

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
	Seed       uint64  // Initial placement seed for the force layout
}

// DefaultLayoutConfig returns an 800x600 canvas.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{Width: 800, Height: 600, Iterations: 50, Padding: 50, Seed: 42}
}

// Layout computes a position for every node of g, keyed by node key.
type Layout interface {
	ComputeLayout(g *graph.Graph) (map[string]Position, error)
}

// Layout algorithm names accepted by ByName.
const (
	LayoutForce        = "force"
	LayoutCircular     = "circular"
	LayoutHierarchical = "hierarchical"
)

// LayoutNames lists every algorithm ByName accepts.
var LayoutNames = []string{LayoutForce, LayoutCircular, LayoutHierarchical}

// ByName returns the layout registered under name. An empty name selects
// the force layout.
func ByName(name string, config *LayoutConfig) (Layout, error) {
	switch name {
	case LayoutForce, "":
		return NewForceDirectedLayout(config), nil
	case LayoutCircular:
		return NewCircularLayout(config), nil
	case LayoutHierarchical:
		return NewHierarchicalLayout(config), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
}
