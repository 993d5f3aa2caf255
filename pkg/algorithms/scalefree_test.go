package algorithms

import (
	"errors"
	"testing"

	"github.com/dd0wney/cluso-fraudgraph/pkg/generator"
)

func TestDegreeDistribution(t *testing.T) {
	g := starGraph(t, 3)
	points := DegreeDistribution(g)

	if len(points) != 2 {
		t.Fatalf("Expected 2 distinct degrees, got %d", len(points))
	}
	if points[0].Degree != 1 || points[0].Count != 3 || !almostEqual(points[0].Density, 0.75) {
		t.Errorf("Unexpected leaf point: %+v", points[0])
	}
	if points[1].Degree != 3 || points[1].Count != 1 {
		t.Errorf("Unexpected hub point: %+v", points[1])
	}
}

func TestFitPowerLaw_InsufficientData(t *testing.T) {
	_, err := FitPowerLaw(DegreeDistribution(starGraph(t, 3)), BinningNone)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestFitPowerLaw_ExactLine(t *testing.T) {
	// density = degree^-2 exactly
	points := []DegreePoint{
		{Degree: 1, Density: 1},
		{Degree: 2, Density: 0.25},
		{Degree: 4, Density: 0.0625},
		{Degree: 8, Density: 0.015625},
	}
	fit, err := FitPowerLaw(points, BinningNone)
	if err != nil {
		t.Fatalf("FitPowerLaw failed: %v", err)
	}
	if !almostEqual(fit.Slope, -2) {
		t.Errorf("Expected slope -2, got %f", fit.Slope)
	}
	if !almostEqual(fit.RSquared, 1) {
		t.Errorf("Expected R² 1, got %f", fit.RSquared)
	}
}

// TestScaleFree_PreferentialAttachment checks that a 200-node graph grown
// with one edge per node has an approximately linear log-log degree density.
func TestScaleFree_PreferentialAttachment(t *testing.T) {
	g, err := generator.PreferentialAttachment(200, 1, 42)
	if err != nil {
		t.Fatalf("PreferentialAttachment failed: %v", err)
	}

	result, err := ComputeAll(g, DefaultMetricsOptions())
	if err != nil {
		t.Fatalf("ComputeAll failed: %v", err)
	}
	if len(result.Degree) != 200 {
		t.Fatalf("Expected 200 degrees, got %d", len(result.Degree))
	}

	fit, err := FitPowerLaw(DegreeDistribution(g), BinningLog)
	if err != nil {
		t.Fatalf("FitPowerLaw failed: %v", err)
	}
	if fit.Slope >= -1 {
		t.Errorf("Expected a steeply decreasing density, slope = %f", fit.Slope)
	}
	if fit.RSquared < 0.8 {
		t.Errorf("Expected R² >= 0.8 for a scale-free graph, got %f", fit.RSquared)
	}
}
