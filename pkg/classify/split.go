package classify

import (
	"math"
	"math/rand/v2"
	"slices"
)

// Split shuffles 0..n-1 with a seeded generator and cuts it into disjoint
// train and test positions. With n >= 2 both sides get at least one item.
// Both slices are returned sorted.
func Split(n int, trainFraction float64, seed uint64) (train, test []int) {
	if n <= 0 {
		return nil, nil
	}
	perm := rand.New(rand.NewPCG(seed, uint64(n))).Perm(n)
	cut := int(math.Round(trainFraction * float64(n)))
	if n >= 2 {
		cut = min(max(cut, 1), n-1)
	} else {
		cut = min(max(cut, 0), n)
	}
	train = slices.Clone(perm[:cut])
	test = slices.Clone(perm[cut:])
	slices.Sort(train)
	slices.Sort(test)
	return train, test
}
