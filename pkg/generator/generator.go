// Package generator builds synthetic graphs used to illustrate scale-free
// structure.
package generator

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

var ErrInvalidParameter = errors.New("invalid generator parameter")

// PreferentialAttachment grows a Barabási–Albert graph of n nodes. It starts
// from a star of m+1 nodes and adds every further node with m edges to
// distinct existing nodes picked with probability proportional to degree.
// The result has (n-m)*m edges and no isolated nodes. Node keys are the
// decimal node indices.
func PreferentialAttachment(n, m int, seed uint64) (*graph.Graph, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: node count %d must be positive", ErrInvalidParameter, n)
	}
	if m <= 0 {
		return nil, fmt.Errorf("%w: attachment count %d must be positive", ErrInvalidParameter, m)
	}
	if m >= n {
		return nil, fmt.Errorf("%w: attachment count %d must be below node count %d", ErrInvalidParameter, m, n)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	g := graph.New()
	for i := 0; i < n; i++ {
		if _, err := g.AddNode(strconv.Itoa(i), graph.KindNode); err != nil {
			return nil, err
		}
	}

	// repeated holds every node once per incident edge, so a uniform draw
	// from it is a degree-proportional draw.
	repeated := make([]int, 0, 2*(n-m)*m)
	for leaf := 1; leaf <= m; leaf++ {
		if err := g.AddEdge("0", strconv.Itoa(leaf)); err != nil {
			return nil, err
		}
		repeated = append(repeated, 0, leaf)
	}

	targets := make([]int, 0, m)
	chosen := make(map[int]bool, m)
	for source := m + 1; source < n; source++ {
		targets = targets[:0]
		clear(chosen)
		for len(targets) < m {
			t := repeated[rng.IntN(len(repeated))]
			if chosen[t] {
				continue
			}
			chosen[t] = true
			targets = append(targets, t)
		}
		for _, t := range targets {
			if err := g.AddEdge(strconv.Itoa(source), strconv.Itoa(t)); err != nil {
				return nil, err
			}
			repeated = append(repeated, t, source)
		}
	}

	return g, nil
}
