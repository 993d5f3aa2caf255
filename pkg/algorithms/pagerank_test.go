package algorithms

import (
	"errors"
	"math"
	"testing"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

func TestPageRank_EmptyGraph(t *testing.T) {
	scores, err := PageRank(graph.New(), DefaultPageRankOptions())
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("Expected 0 scores, got %d", len(scores))
	}
}

func TestPageRank_InvalidDamping(t *testing.T) {
	for _, d := range []float64{0, 1, -0.5, 1.5} {
		_, err := PageRank(graph.New(), PageRankOptions{DampingFactor: d, Tolerance: 1e-6})
		if !errors.Is(err, ErrInvalidDamping) {
			t.Errorf("damping %v: expected ErrInvalidDamping, got %v", d, err)
		}
	}
}

func TestPageRank_StarSumsToOne(t *testing.T) {
	g := starGraph(t, 5)
	scores, err := PageRank(g, DefaultPageRankOptions())
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}

	sum := 0.0
	for _, s := range scores {
		if s <= 0 {
			t.Errorf("Expected positive scores, got %f", s)
		}
		sum += s
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("Expected scores to sum to 1, got %f", sum)
	}

	for k, s := range scores {
		if k != "hub" && s >= scores["hub"] {
			t.Errorf("Expected hub to outrank %s (%f >= %f)", k, s, scores["hub"])
		}
	}
	if math.Abs(scores["leaf0"]-scores["leaf4"]) > 1e-4 {
		t.Errorf("Expected symmetric leaves to score equally: %f vs %f", scores["leaf0"], scores["leaf4"])
	}
}

func TestTopNodes_OrderAndTies(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, nil)
	scores := map[string]float64{"a": 0.1, "b": 0.5, "c": 0.5, "d": 0.9, "ghost": 1.0}

	top := TopNodes(g, scores, 3)
	if len(top) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(top))
	}
	want := []string{"d", "b", "c"}
	for i, k := range want {
		if top[i].Key != k {
			t.Errorf("top[%d] = %s, want %s", i, top[i].Key, k)
		}
	}

	if TopNodes(g, scores, 0) != nil {
		t.Error("Expected nil for n=0")
	}
	if got := TopNodes(g, scores, 10); len(got) != 4 {
		t.Errorf("Expected 4 known nodes, got %d", len(got))
	}
}
