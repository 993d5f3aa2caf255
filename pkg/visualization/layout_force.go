package visualization

import (
	"math"
	"math/rand/v2"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

// ForceDirectedLayout implements Fruchterman-Reingold style placement.
// Initial positions come from LayoutConfig.Seed so output is reproducible.
type ForceDirectedLayout struct {
	config *LayoutConfig
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout(config *LayoutConfig) *ForceDirectedLayout {
	if config.Iterations == 0 {
		config.Iterations = 50
	}
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &ForceDirectedLayout{config: config}
}

// ComputeLayout computes positions using force-directed algorithm
func (fdl *ForceDirectedLayout) ComputeLayout(g *graph.Graph) (map[string]Position, error) {
	n := g.NodeCount()
	keys := g.Keys()
	if n == 0 {
		return make(map[string]Position), nil
	}

	if n == 1 {
		return map[string]Position{
			keys[0]: {X: fdl.config.Width / 2, Y: fdl.config.Height / 2},
		}, nil
	}

	rng := rand.New(rand.NewPCG(fdl.config.Seed, uint64(n)))
	pos := make([]Position, n)
	for i := range pos {
		pos[i] = Position{
			X: rng.Float64()*(fdl.config.Width-2*fdl.config.Padding) + fdl.config.Padding,
			Y: rng.Float64()*(fdl.config.Height-2*fdl.config.Padding) + fdl.config.Padding,
		}
	}

	adj := g.Adjacency()

	k := math.Sqrt((fdl.config.Width * fdl.config.Height) / float64(n)) // optimal distance
	temperature := fdl.config.Width / 10.0
	forces := make([]Position, n)

	for iter := 0; iter < fdl.config.Iterations; iter++ {
		clear(forces)

		// Repulsion between all nodes
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := pos[i].X - pos[j].X
				dy := pos[i].Y - pos[j].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					dist = 0.01
				}

				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force

				forces[i].X += fx
				forces[i].Y += fy
				forces[j].X -= fx
				forces[j].Y -= fy
			}
		}

		// Attraction along edges
		for i, row := range adj {
			for _, j := range row {
				dx := pos[i].X - pos[j].X
				dy := pos[i].Y - pos[j].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					continue
				}

				force := (dist * dist) / k
				forces[i].X -= (dx / dist) * force
				forces[i].Y -= (dy / dist) * force
			}
		}

		cool := 1.0 - float64(iter)/float64(fdl.config.Iterations)
		for i := range pos {
			fx, fy := forces[i].X, forces[i].Y
			force := math.Sqrt(fx*fx + fy*fy)
			if force > 0 {
				step := math.Min(force, temperature) * cool
				pos[i].X += (fx / force) * step
				pos[i].Y += (fy / force) * step
			}
		}

		temperature *= 0.95
	}

	positions := make(map[string]Position, n)
	for i, key := range keys {
		positions[key] = pos[i]
	}
	return normalizePositions(positions, fdl.config.Width, fdl.config.Height, fdl.config.Padding), nil
}
