package algorithms

import "testing"

func TestCountTriangles_Triangle(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}})

	res := CountTriangles(g)
	if res.GlobalCount != 1 {
		t.Errorf("GlobalCount = %d, want 1", res.GlobalCount)
	}
	for _, k := range []string{"a", "b", "c"} {
		if res.PerNode[k] != 1 {
			t.Errorf("PerNode[%s] = %d, want 1", k, res.PerNode[k])
		}
		if !almostEqual(res.Clustering[k], 1.0) {
			t.Errorf("Clustering[%s] = %f, want 1.0", k, res.Clustering[k])
		}
	}
}

func TestCountTriangles_StarHasNoClustering(t *testing.T) {
	g := starGraph(t, 4)

	res := CountTriangles(g)
	if res.GlobalCount != 0 {
		t.Errorf("GlobalCount = %d, want 0", res.GlobalCount)
	}
	if res.Clustering["hub"] != 0.0 {
		t.Errorf("hub clustering = %f, want 0", res.Clustering["hub"])
	}
	if res.Clustering["leaf0"] != 0.0 {
		t.Errorf("leaf clustering = %f, want 0", res.Clustering["leaf0"])
	}
}

func TestClusteringCoefficient_PartialNeighbourhood(t *testing.T) {
	// hub has neighbours a, b, c; only a-b is linked: 1 of 3 pairs.
	g := buildGraph(t, []string{"hub", "a", "b", "c"},
		[][2]string{{"hub", "a"}, {"hub", "b"}, {"hub", "c"}, {"a", "b"}})

	c := ClusteringCoefficient(g)
	if !almostEqual(c["hub"], 1.0/3.0) {
		t.Errorf("hub clustering = %f, want 1/3", c["hub"])
	}
	if !almostEqual(c["a"], 1.0) {
		t.Errorf("a clustering = %f, want 1.0", c["a"])
	}
	if c["c"] != 0.0 {
		t.Errorf("c clustering = %f, want 0", c["c"])
	}
}

func TestComputeAll_IncludesClustering(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}})

	res, err := ComputeAll(g, DefaultMetricsOptions())
	if err != nil {
		t.Fatalf("ComputeAll failed: %v", err)
	}
	if len(res.Clustering) != 3 || !almostEqual(res.Clustering["a"], 1.0) {
		t.Errorf("Clustering = %v, want 1.0 for every node", res.Clustering)
	}
}
