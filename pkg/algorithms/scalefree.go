package algorithms

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

var ErrInsufficientData = errors.New("not enough distinct degrees to fit")

// Binning selects how degrees are grouped before the log-log fit.
type Binning string

const (
	// BinningNone fits one point per observed degree.
	BinningNone Binning = "none"
	// BinningLog groups degrees into [2^k, 2^(k+1)) bins and divides each
	// count by the bin width, which removes the noisy single-node tail.
	BinningLog Binning = "log"
)

// DegreePoint is one point of a degree distribution.
type DegreePoint struct {
	Degree  float64 `json:"degree"`
	Count   int     `json:"count"`
	Density float64 `json:"density"`
}

// PowerLawFit is a least-squares line through log10(density) vs log10(degree).
type PowerLawFit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	Points    int     `json:"points"`
}

// DegreeDistribution returns, for every observed degree, the node count and
// the fraction of nodes with that degree, ascending by degree.
func DegreeDistribution(g *graph.Graph) []DegreePoint {
	counts := make(map[int]int)
	for _, node := range g.Nodes() {
		counts[len(g.NeighborIDs(node.ID))]++
	}

	n := float64(g.NodeCount())
	points := make([]DegreePoint, 0, len(counts))
	for d, c := range counts {
		points = append(points, DegreePoint{Degree: float64(d), Count: c, Density: float64(c) / n})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Degree < points[j].Degree })
	return points
}

// logBins regroups a raw distribution into power-of-two bins. Each bin is
// placed at the geometric centre of its integer range.
func logBins(points []DegreePoint) []DegreePoint {
	type bin struct {
		count   int
		density float64
	}
	bins := make(map[int]*bin)
	for _, p := range points {
		if p.Degree < 1 {
			continue
		}
		k := int(math.Floor(math.Log2(p.Degree)))
		b, ok := bins[k]
		if !ok {
			b = &bin{}
			bins[k] = b
		}
		b.count += p.Count
		b.density += p.Density
	}

	out := make([]DegreePoint, 0, len(bins))
	for k, b := range bins {
		lo := math.Exp2(float64(k))
		hi := math.Exp2(float64(k+1)) - 1
		width := hi - lo + 1
		out = append(out, DegreePoint{
			Degree:  math.Sqrt(lo * hi),
			Count:   b.count,
			Density: b.density / width,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Degree < out[j].Degree })
	return out
}

// FitPowerLaw regresses log10(density) on log10(degree). Zero degrees are
// skipped. A scale-free graph gives a negative slope and an R² near 1.
func FitPowerLaw(points []DegreePoint, binning Binning) (*PowerLawFit, error) {
	switch binning {
	case BinningLog:
		points = logBins(points)
	case BinningNone, "":
	default:
		return nil, fmt.Errorf("unknown binning %q", binning)
	}

	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Degree <= 0 || p.Density <= 0 {
			continue
		}
		xs = append(xs, math.Log10(p.Degree))
		ys = append(ys, math.Log10(p.Density))
	}
	if len(xs) < 3 {
		return nil, fmt.Errorf("%w: %d points", ErrInsufficientData, len(xs))
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return &PowerLawFit{
		Slope:     beta,
		Intercept: alpha,
		RSquared:  stat.RSquared(xs, ys, nil, alpha, beta),
		Points:    len(xs),
	}, nil
}
