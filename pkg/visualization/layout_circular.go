package visualization

import (
	"math"
	"slices"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

// kindOrder is the order of kind sectors around the circle.
var kindOrder = []graph.Kind{
	graph.KindProvider,
	graph.KindPhysician,
	graph.KindPatient,
	graph.KindClaim,
	graph.KindNode,
}

// CircularLayout places nodes on one circle, each kind in its own arc.
// Arcs follow kindOrder and are separated by one empty slot; nodes inside
// an arc follow key order.
type CircularLayout struct {
	config *LayoutConfig
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *LayoutConfig) *CircularLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &CircularLayout{config: config}
}

// ComputeLayout arranges nodes in a circle
func (cl *CircularLayout) ComputeLayout(g *graph.Graph) (map[string]Position, error) {
	sectors := make(map[graph.Kind][]string)
	for _, n := range g.Nodes() {
		sectors[n.Kind] = append(sectors[n.Kind], n.Key)
	}
	positions := make(map[string]Position, g.NodeCount())
	if len(sectors) == 0 {
		return positions, nil
	}

	var extra []graph.Kind
	for k := range sectors {
		if !slices.Contains(kindOrder, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	kinds := append(slices.Clone(kindOrder), extra...)

	slots := g.NodeCount()
	if len(sectors) > 1 {
		slots += len(sectors)
	}
	angleStep := 2 * math.Pi / float64(slots)

	cx := cl.config.Width / 2
	cy := cl.config.Height / 2
	radius := math.Min(cx, cy) - cl.config.Padding

	slot := 0
	for _, kind := range kinds {
		keys := sectors[kind]
		if len(keys) == 0 {
			continue
		}
		slices.Sort(keys)
		for _, key := range keys {
			angle := float64(slot) * angleStep
			positions[key] = Position{
				X: cx + radius*math.Cos(angle),
				Y: cy + radius*math.Sin(angle),
			}
			slot++
		}
		if len(sectors) > 1 {
			slot++
		}
	}
	return positions, nil
}
