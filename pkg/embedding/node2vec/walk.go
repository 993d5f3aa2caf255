package node2vec

import (
	"context"
	"math/rand/v2"
	"slices"

	"github.com/dd0wney/cluso-fraudgraph/pkg/parallel"
)

// walkRNG derives the generator of one walk from the run seed, the start
// node and the round, so a walk does not depend on which worker runs it.
func walkRNG(seed uint64, node, round int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(node)<<32|uint64(round)))
}

// walker samples second-order biased random walks over an adjacency list
// whose rows are sorted ascending.
type walker struct {
	adj     [][]int
	length  int
	invP    float64
	invQ    float64
	uniform bool // p == q == 1
}

func newWalker(adj [][]int, cfg Config) *walker {
	return &walker{
		adj:     adj,
		length:  cfg.WalkLength,
		invP:    1 / cfg.P,
		invQ:    1 / cfg.Q,
		uniform: cfg.P == 1 && cfg.Q == 1,
	}
}

func (w *walker) walk(start int, rng *rand.Rand) []int {
	path := make([]int, 1, w.length)
	path[0] = start
	weights := make([]float64, 0)

	for len(path) < w.length {
		cur := path[len(path)-1]
		nbrs := w.adj[cur]
		if len(nbrs) == 0 {
			break
		}
		if len(path) == 1 || w.uniform {
			path = append(path, nbrs[rng.IntN(len(nbrs))])
			continue
		}

		prev := path[len(path)-2]
		weights = weights[:0]
		total := 0.0
		for _, x := range nbrs {
			var wt float64
			switch {
			case x == prev:
				wt = w.invP
			case w.linked(prev, x):
				wt = 1
			default:
				wt = w.invQ
			}
			weights = append(weights, wt)
			total += wt
		}

		r := rng.Float64() * total
		next := nbrs[len(nbrs)-1]
		for i, wt := range weights {
			if r < wt {
				next = nbrs[i]
				break
			}
			r -= wt
		}
		path = append(path, next)
	}
	return path
}

func (w *walker) linked(a, b int) bool {
	_, ok := slices.BinarySearch(w.adj[a], b)
	return ok
}

// generateWalks returns WalksPerNode rounds of one walk per node. The corpus
// is ordered round by round, then by node.
func generateWalks(ctx context.Context, adj [][]int, cfg Config) ([][]int, error) {
	n := len(adj)
	w := newWalker(adj, cfg)
	walks := make([][]int, n*cfg.WalksPerNode)

	err := parallel.ForEach(ctx, cfg.Workers, len(walks), func(_ context.Context, i int) error {
		round, node := i/n, i%n
		walks[i] = w.walk(node, walkRNG(cfg.Seed, node, round))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return walks, nil
}
