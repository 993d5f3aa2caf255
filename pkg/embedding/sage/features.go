package sage

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/dd0wney/cluso-fraudgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

// StructuralFeatureNames lists the columns synthesised for featureless nodes.
var StructuralFeatureNames = []string{"degree", "betweenness"}

// Features returns the standardised input matrix of g, one row per node in
// ID order. When no node carries features, degree and betweenness are used.
// Otherwise every node must carry the same number of features.
func Features(g *graph.Graph) (*mat.Dense, error) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: empty graph", ErrDimensionMismatch)
	}

	width := 0
	for _, n := range nodes {
		if len(n.Features) > 0 {
			width = len(n.Features)
			break
		}
	}

	var x *mat.Dense
	if width == 0 {
		x = structuralFeatures(g)
	} else {
		x = mat.NewDense(len(nodes), width, nil)
		for _, n := range nodes {
			if len(n.Features) != width {
				return nil, fmt.Errorf("%w: node %q has %d features, want %d", ErrDimensionMismatch, n.Key, len(n.Features), width)
			}
			x.SetRow(int(n.ID), n.Features)
		}
	}
	standardize(x)
	return x, nil
}

func structuralFeatures(g *graph.Graph) *mat.Dense {
	degree, _ := algorithms.DegreeCentrality(g)
	betweenness := algorithms.BetweennessCentrality(g)
	x := mat.NewDense(g.NodeCount(), len(StructuralFeatureNames), nil)
	for _, n := range g.Nodes() {
		x.Set(int(n.ID), 0, float64(degree[n.Key]))
		x.Set(int(n.ID), 1, betweenness[n.Key])
	}
	return x
}

// standardize rescales every column to zero mean and unit variance. Constant
// columns are only centred.
func standardize(x *mat.Dense) {
	rows, cols := x.Dims()
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i := 0; i < rows; i++ {
			x.Set(i, j, (col[i]-mean)/std)
		}
	}
}
