package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/dd0wney/cluso-fraudgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-fraudgraph/pkg/generator"
	"github.com/dd0wney/cluso-fraudgraph/pkg/visualization"
)

func main() {
	nodes := flag.Int("nodes", 200, "Number of nodes to generate")
	m := flag.Int("m", 1, "Edges attached by each new node")
	seed := flag.Uint64("seed", 42, "Random seed")
	top := flag.Int("top", 5, "Number of top nodes to list per metric")
	closeness := flag.String("closeness", string(algorithms.ClosenessExcludeUnreachable), "Closeness policy (exclude|wasserman-faust|infinite)")
	binning := flag.String("binning", string(algorithms.BinningLog), "Degree binning for the power-law fit (none|log)")
	layoutPath := flag.String("layout", "", "Write a layout of the graph to this JSON file")
	layoutAlgo := flag.String("layout-algo", visualization.LayoutForce, "Layout algorithm (force|circular|hierarchical)")
	flag.Parse()

	fmt.Printf("Scale-free graph check\n")
	fmt.Printf("======================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Nodes: %d\n", *nodes)
	fmt.Printf("  m:     %d\n", *m)
	fmt.Printf("  Seed:  %d\n\n", *seed)

	start := time.Now()
	g, err := generator.PreferentialAttachment(*nodes, *m, *seed)
	if err != nil {
		log.Fatalf("Failed to generate graph: %v", err)
	}
	fmt.Printf("Generated %d nodes and %d edges in %v\n", g.NodeCount(), g.EdgeCount(), time.Since(start))

	opts := algorithms.DefaultMetricsOptions()
	opts.Closeness = algorithms.ClosenessPolicy(*closeness)
	opts.TopN = *top

	start = time.Now()
	res, err := algorithms.ComputeAll(g, opts)
	if err != nil {
		log.Fatalf("Metric computation failed: %v", err)
	}
	fmt.Printf("Computed centrality metrics in %v\n", time.Since(start))

	for _, section := range []struct {
		name  string
		nodes []algorithms.RankedNode
	}{
		{"Degree", res.TopByDegree},
		{"Betweenness", res.TopByBetweenness},
		{"Closeness", res.TopByCloseness},
		{"PageRank", res.TopByPageRank},
	} {
		fmt.Printf("\nTop %d nodes by %s:\n", *top, section.name)
		for i, n := range section.nodes {
			fmt.Printf("  %d. %s (score: %.6f)\n", i+1, n.Key, n.Score)
		}
	}

	components := algorithms.ConnectedComponents(g)
	fmt.Printf("\nConnected components: %d\n", len(components.Components))
	if largest := components.Largest(); largest != nil {
		fmt.Printf("  Largest component size: %d nodes\n", largest.Size)
	}

	points := algorithms.DegreeDistribution(g)
	fit, err := algorithms.FitPowerLaw(points, algorithms.Binning(*binning))
	if err != nil {
		log.Fatalf("Power-law fit failed: %v", err)
	}
	fmt.Printf("\nDegree distribution (%d distinct degrees):\n", len(points))
	for _, p := range points {
		fmt.Printf("  k=%-4.0f count=%-4d P(k)=%.4f\n", p.Degree, p.Count, p.Density)
	}
	fmt.Printf("\nlog-log fit (%s binning, %d points):\n", *binning, fit.Points)
	fmt.Printf("  slope:     %.4f\n", fit.Slope)
	fmt.Printf("  intercept: %.4f\n", fit.Intercept)
	fmt.Printf("  R^2:       %.4f\n", fit.RSquared)

	if *layoutPath != "" {
		viz, err := visualization.Build(g, *layoutAlgo, visualization.DefaultLayoutConfig())
		if err != nil {
			log.Fatalf("Layout failed: %v", err)
		}
		if err := viz.WriteFile(*layoutPath); err != nil {
			log.Fatalf("Failed to write layout: %v", err)
		}
		fmt.Printf("\n%s layout written to %s\n", viz.Layout, *layoutPath)
	}
}
