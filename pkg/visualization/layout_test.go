package visualization

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

func pathGraph(t *testing.T, keys ...string) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, k := range keys {
		_, err := g.AddNode(k, graph.KindNode)
		require.NoError(t, err)
	}
	for i := 1; i < len(keys); i++ {
		require.NoError(t, g.AddEdge(keys[i-1], keys[i]))
	}
	return g
}

// TestForceDirectedLayout tests the force-directed layout algorithm
func TestForceDirectedLayout(t *testing.T) {
	g := pathGraph(t, "alice", "bob", "charlie")

	layout := NewForceDirectedLayout(&LayoutConfig{
		Width:      800,
		Height:     600,
		Iterations: 50,
		Seed:       7,
	})

	positions, err := layout.ComputeLayout(g)
	require.NoError(t, err)
	require.Len(t, positions, 3)

	for key, pos := range positions {
		if pos.X < 0 || pos.X > 800 {
			t.Errorf("Node %s X position %f out of bounds", key, pos.X)
		}
		if pos.Y < 0 || pos.Y > 600 {
			t.Errorf("Node %s Y position %f out of bounds", key, pos.Y)
		}
	}

	dist12 := distance(positions["alice"], positions["bob"])
	dist23 := distance(positions["bob"], positions["charlie"])
	dist13 := distance(positions["alice"], positions["charlie"])

	// alice and charlie are not adjacent and should end furthest apart
	if dist13 < dist12 || dist13 < dist23 {
		t.Error("Force-directed layout did not separate unconnected nodes properly")
	}
}

func TestForceDirectedLayoutReproducible(t *testing.T) {
	g := pathGraph(t, "a", "b", "c", "d", "e")
	cfg := LayoutConfig{Width: 400, Height: 400, Iterations: 30, Seed: 11}

	first, err := NewForceDirectedLayout(&cfg).ComputeLayout(g)
	require.NoError(t, err)
	second, err := NewForceDirectedLayout(&cfg).ComputeLayout(g)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestCircularLayout tests circular layout algorithm
func TestCircularLayout(t *testing.T) {
	g := pathGraph(t, "n0", "n1", "n2", "n3", "n4")

	layout := NewCircularLayout(&LayoutConfig{
		Width:  400,
		Height: 400,
	})

	positions, err := layout.ComputeLayout(g)
	require.NoError(t, err)

	centerX, centerY := 200.0, 200.0
	for key, pos := range positions {
		d := math.Hypot(pos.X-centerX, pos.Y-centerY)
		assert.InDelta(t, 150.0, d, 1e-9, "node %s", key)
	}
}

// TestCircularLayoutKindSectors checks that each kind occupies one arc in
// kind order with a gap between arcs.
func TestCircularLayoutKindSectors(t *testing.T) {
	g := graph.NewHeterogeneous()
	for key, kind := range map[string]graph.Kind{
		"PRV1":  graph.KindProvider,
		"PRV2":  graph.KindProvider,
		"BENE1": graph.KindPatient,
		"CLM1":  graph.KindClaim,
		"CLM2":  graph.KindClaim,
	} {
		_, err := g.AddNode(key, kind)
		require.NoError(t, err)
	}

	positions, err := NewCircularLayout(&LayoutConfig{Width: 400, Height: 400}).ComputeLayout(g)
	require.NoError(t, err)
	require.Len(t, positions, 5)

	// 5 nodes + 3 sector gaps = 8 slots of 45 degrees.
	angle := func(key string) float64 {
		a := math.Atan2(positions[key].Y-200, positions[key].X-200) * 180 / math.Pi
		if a < -1e-9 {
			a += 360
		}
		return a
	}
	for key, want := range map[string]float64{
		"PRV1": 0, "PRV2": 45, "BENE1": 135, "CLM1": 225, "CLM2": 270,
	} {
		assert.InDelta(t, want, angle(key), 1e-6, key)
	}
}

// TestHierarchicalLayout checks provider, claim and participant bands on a
// claims-shaped graph.
func TestHierarchicalLayout(t *testing.T) {
	g := graph.NewHeterogeneous()
	for key, kind := range map[string]graph.Kind{
		"PRV1": graph.KindProvider,
		"CLM1": graph.KindClaim,
		"CLM2": graph.KindClaim,
		"BENE": graph.KindPatient,
		"PHY1": graph.KindPhysician,
	} {
		_, err := g.AddNode(key, kind)
		require.NoError(t, err)
	}
	require.NoError(t, g.AddEdge("CLM1", "PRV1"))
	require.NoError(t, g.AddEdge("CLM2", "PRV1"))
	require.NoError(t, g.AddEdge("CLM1", "BENE"))
	require.NoError(t, g.AddEdge("CLM2", "PHY1"))

	layout := NewHierarchicalLayout(&LayoutConfig{
		Width:  600,
		Height: 400,
	})

	positions, err := layout.ComputeLayout(g)
	require.NoError(t, err)
	require.Len(t, positions, 5)

	rootY := positions["PRV1"].Y
	for key, pos := range positions {
		if key != "PRV1" && pos.Y <= rootY {
			t.Errorf("Node %s has Y=%f, should be below provider Y=%f", key, pos.Y, rootY)
		}
	}
	assert.InDelta(t, positions["CLM1"].Y, positions["CLM2"].Y, 1.0)
	assert.InDelta(t, positions["BENE"].Y, positions["PHY1"].Y, 1.0)
	assert.Greater(t, positions["BENE"].Y, positions["CLM1"].Y)
}

// TestLayoutNormalization tests that coordinates are normalized to bounds
func TestLayoutNormalization(t *testing.T) {
	g := graph.New()
	for _, k := range []string{"x", "y", "z"} {
		_, err := g.AddNode(k, graph.KindNode)
		require.NoError(t, err)
	}

	layout := NewForceDirectedLayout(&LayoutConfig{
		Width:      100,
		Height:     100,
		Iterations: 10,
	})

	positions, err := layout.ComputeLayout(g)
	require.NoError(t, err)

	for key, pos := range positions {
		if pos.X < 0 || pos.X > 100 {
			t.Errorf("Node %s X=%f out of bounds [0, 100]", key, pos.X)
		}
		if pos.Y < 0 || pos.Y > 100 {
			t.Errorf("Node %s Y=%f out of bounds [0, 100]", key, pos.Y)
		}
	}
}

// TestEmptyGraph tests layout on empty graph
func TestEmptyGraph(t *testing.T) {
	for _, name := range []string{"force", "circular", "hierarchical"} {
		layout, err := ByName(name, &LayoutConfig{Width: 800, Height: 600})
		require.NoError(t, err)

		positions, err := layout.ComputeLayout(graph.New())
		require.NoError(t, err, name)
		assert.Empty(t, positions, name)
	}
}

// TestSingleNodeLayout tests layout with single node
func TestSingleNodeLayout(t *testing.T) {
	g := pathGraph(t, "only")

	layout := NewForceDirectedLayout(&LayoutConfig{
		Width:  800,
		Height: 600,
	})

	positions, err := layout.ComputeLayout(g)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, Position{X: 400, Y: 300}, positions["only"])
}

func TestByNameUnknown(t *testing.T) {
	_, err := ByName("spiral", &LayoutConfig{})
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

// TestVisualizationExport tests the JSON document
func TestVisualizationExport(t *testing.T) {
	g := graph.NewHeterogeneous()
	_, err := g.AddNode("PRV1", graph.KindProvider)
	require.NoError(t, err)
	_, err = g.AddNode("CLM1", graph.KindClaim)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge("CLM1", "PRV1"))

	cfg := DefaultLayoutConfig()
	cfg.Iterations = 20
	viz, err := Build(g, "force", cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "hetero_layout.json")
	require.NoError(t, viz.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Visualization
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "force", decoded.Layout)
	require.Len(t, decoded.Nodes, 2)
	assert.Equal(t, "PRV1", decoded.Nodes[0].Key)
	assert.Equal(t, graph.KindProvider, decoded.Nodes[0].Kind)
	assert.Equal(t, KindColors[graph.KindProvider], decoded.Nodes[0].Color)
	assert.Equal(t, 1, decoded.Nodes[1].Degree)
	assert.Equal(t, []EdgeViz{{From: "PRV1", To: "CLM1"}}, decoded.Edges)
}

func distance(p1, p2 Position) float64 {
	return math.Hypot(p1.X-p2.X, p1.Y-p2.Y)
}
