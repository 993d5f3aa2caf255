package vector

import (
	"container/heap"
	"strings"
)

// Result is one neighbour returned by Nearest.
type Result struct {
	Key      string  `json:"key"`
	Distance float64 `json:"distance"`
}

// resultHeap is a max-heap on distance so the worst kept result sits on top.
type resultHeap []Result

func (h resultHeap) Len() int { return len(h) }
func (h resultHeap) Less(i, j int) bool {
	return worse(h[i], h[j])
}
func (h resultHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x any)   { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// worse orders by larger distance first, then larger key.
func worse(a, b Result) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return strings.Compare(a.Key, b.Key) > 0
}

// Nearest scans candidates exhaustively and returns the k closest to query,
// closest first. Ties break on key. Keys listed in exclude are skipped.
func Nearest(query []float64, keys []string, vectors [][]float64, k int, metric DistanceMetric, exclude ...string) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}

	h := make(resultHeap, 0, k+1)
	for i, key := range keys {
		if skip[key] {
			continue
		}
		d, err := Distance(query, vectors[i], metric)
		if err != nil {
			return nil, err
		}
		r := Result{Key: key, Distance: d}
		if h.Len() < k {
			heap.Push(&h, r)
		} else if worse(h[0], r) {
			h[0] = r
			heap.Fix(&h, 0)
		}
	}

	out := make([]Result, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Result)
	}
	return out, nil
}
