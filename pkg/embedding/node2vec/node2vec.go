// Package node2vec learns unsupervised node embeddings from second-order
// biased random walks fed to a skip-gram model with negative sampling.
package node2vec

import (
	"context"

	"github.com/dd0wney/cluso-fraudgraph/pkg/embedding"
	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
)

// Learner implements embedding.Learner.
type Learner struct {
	cfg    Config
	logger logging.Logger
}

// New validates cfg and returns a learner. A nil logger disables logging.
func New(cfg Config, logger logging.Logger) (*Learner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Learner{cfg: cfg, logger: logger.With(logging.Learner("node2vec"))}, nil
}

func (l *Learner) Name() string { return "node2vec" }

// Embed returns one vector per node, keyed and ordered like the graph's
// nodes. Labels are ignored.
func (l *Learner) Embed(ctx context.Context, in embedding.Input) (*embedding.Table, error) {
	adj := in.Graph.Adjacency()

	timer := logging.StartTimer(l.logger, "random walks generated",
		logging.Nodes(len(adj)), logging.Int("workers", l.cfg.Workers))
	walks, err := generateWalks(ctx, adj, l.cfg)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	timer.End(logging.Int("walks", len(walks)))

	sg := newSkipGram(len(adj), walks, l.cfg)
	timer = logging.StartTimer(l.logger, "skip-gram trained",
		logging.Int("tokens", sg.tokens), logging.Int("epochs", l.cfg.Epochs))
	if err := sg.train(ctx, walks); err != nil {
		timer.EndError(err)
		return nil, err
	}
	timer.End()

	table := embedding.NewTable(l.cfg.Dimensions)
	for i, key := range in.Graph.Keys() {
		if err := table.Set(key, sg.vector(i)); err != nil {
			return nil, err
		}
	}
	return table, nil
}
