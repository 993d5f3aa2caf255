package classify

import (
	"math/rand/v2"
	"slices"
)

// treeNode is a CART node. Leaves have feature == -1.
type treeNode struct {
	Feature   int
	Threshold float64
	Prob      float64 // fraction of positive samples reaching the node
	Left      *treeNode
	Right     *treeNode
}

func (n *treeNode) predict(x []float64) float64 {
	for n.Feature >= 0 {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Prob
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	maxDepth    int
	minLeaf     int
	maxFeatures int
	rng         *rand.Rand
}

func gini(pos, total int) float64 {
	if total == 0 {
		return 0
	}
	p := float64(pos) / float64(total)
	return 2 * p * (1 - p)
}

func (b *treeBuilder) build(samples []int, depth int) *treeNode {
	pos := 0
	for _, s := range samples {
		pos += b.y[s]
	}
	leaf := &treeNode{Feature: -1, Prob: float64(pos) / float64(len(samples))}
	if pos == 0 || pos == len(samples) || len(samples) < 2*b.minLeaf ||
		(b.maxDepth > 0 && depth >= b.maxDepth) {
		return leaf
	}

	feature, threshold, ok := b.bestSplit(samples, pos)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Prob:      leaf.Prob,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

// bestSplit tries maxFeatures randomly chosen features and returns the split
// with the lowest weighted Gini impurity.
func (b *treeBuilder) bestSplit(samples []int, pos int) (int, float64, bool) {
	nFeatures := len(b.x[0])
	candidates := b.rng.Perm(nFeatures)[:min(b.maxFeatures, nFeatures)]

	n := len(samples)
	best := gini(pos, n)
	bestFeature, bestThreshold, found := -1, 0.0, false
	order := slices.Clone(samples)

	for _, f := range candidates {
		slices.SortFunc(order, func(a, c int) int {
			switch va, vc := b.x[a][f], b.x[c][f]; {
			case va < vc:
				return -1
			case va > vc:
				return 1
			}
			return a - c
		})

		leftPos := 0
		for i := 0; i < n-1; i++ {
			leftPos += b.y[order[i]]
			leftN := i + 1
			v, next := b.x[order[i]][f], b.x[order[i+1]][f]
			if v == next || leftN < b.minLeaf || n-leftN < b.minLeaf {
				continue
			}
			rightN := n - leftN
			impurity := (float64(leftN)*gini(leftPos, leftN) + float64(rightN)*gini(pos-leftPos, rightN)) / float64(n)
			if impurity < best-1e-12 {
				best = impurity
				bestFeature = f
				bestThreshold = (v + next) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}
