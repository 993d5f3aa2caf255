// Package embedding defines the learner capability shared by the shallow
// and deep representation learners, and the table they produce.
package embedding

import (
	"context"

	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

// Input is what a learner trains on. Labels are ignored by unsupervised
// learners.
type Input struct {
	Graph  *graph.Graph
	Labels map[string]int
}

// Learner maps every node of a graph to a fixed-length vector.
type Learner interface {
	Name() string
	Embed(ctx context.Context, in Input) (*Table, error)
}
