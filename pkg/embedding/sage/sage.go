// Package sage trains a two-layer GraphSAGE-style encoder with mean
// aggregation against binary node labels and exposes its second-layer
// activations as embeddings.
package sage

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/dd0wney/cluso-fraudgraph/pkg/classify"
	"github.com/dd0wney/cluso-fraudgraph/pkg/embedding"
	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
)

// Result is everything one training run produces.
type Result struct {
	Model         *Model
	Embeddings    *embedding.Table
	Probabilities map[string]float64 // positive class, every node
	Train         []string
	Test          []string
	Loss          float64 // final train loss
	Eval          classify.Metrics
}

// Learner implements embedding.Learner.
type Learner struct {
	cfg    Config
	logger logging.Logger
	last   *Result
}

// New validates cfg and returns a learner. A nil logger disables logging.
func New(cfg Config, logger logging.Logger) (*Learner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Learner{cfg: cfg, logger: logger.With(logging.Learner("sage"))}, nil
}

func (l *Learner) Name() string { return "sage" }

// Embed trains and returns the embedding table. The full result stays
// available through Last.
func (l *Learner) Embed(ctx context.Context, in embedding.Input) (*embedding.Table, error) {
	res, err := l.Train(ctx, in)
	if err != nil {
		return nil, err
	}
	return res.Embeddings, nil
}

// Last returns the result of the most recent successful Embed or Train.
func (l *Learner) Last() *Result { return l.last }

// labelled resolves label keys to node rows, sorted by key. Every label
// must name a node of g.
func labelled(g *graph.Graph, labels map[string]int) ([]string, []int, []int, error) {
	ix := graph.IndexOf(g)
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	rows := make([]int, len(keys))
	byRow := make([]int, g.NodeCount())
	for i, k := range keys {
		pos, err := ix.Pos(k)
		if err != nil {
			return nil, nil, nil, err
		}
		if v := labels[k]; v != 0 && v != 1 {
			return nil, nil, nil, fmt.Errorf("%w: node %q has %d", classify.ErrInvalidLabel, k, v)
		}
		rows[i] = pos
		byRow[pos] = labels[k]
	}
	return keys, rows, byRow, nil
}

// Train fits the encoder on a seeded random split of the labelled nodes and
// evaluates it on the held-out part.
func (l *Learner) Train(ctx context.Context, in embedding.Input) (*Result, error) {
	g := in.Graph
	x, err := Features(g)
	if err != nil {
		return nil, err
	}
	keys, rows, y, err := labelled(g, in.Labels)
	if err != nil {
		return nil, err
	}
	if len(keys) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughLabels, len(keys))
	}

	trainPos, testPos := classify.Split(len(keys), l.cfg.TrainFraction, l.cfg.Seed)
	train := pick(rows, trainPos)
	test := pick(rows, testPos)

	_, inputDim := x.Dims()
	rng := rand.New(rand.NewPCG(l.cfg.Seed, 0x73616765))
	model := newModel(inputDim, l.cfg, rng)
	agg := meanAgg{adj: g.Adjacency()}
	opt := newAdam(model.params(), l.cfg.LearningRate, l.cfg.WeightDecay)

	timer := logging.StartTimer(l.logger, "sage trained",
		logging.Nodes(g.NodeCount()), logging.Int("train", len(train)), logging.Int("test", len(test)))
	var loss float64
	for epoch := 1; epoch <= l.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			timer.EndError(err)
			return nil, err
		}
		p := model.forward(agg, x)
		loss = p.loss(train, y)
		opt.update(model.params(), model.backward(agg, p, train, y))
		if epoch%50 == 0 {
			l.logger.Debug("sage epoch", logging.Int("epoch", epoch), logging.Float64("loss", loss))
		}
	}

	final := model.forward(agg, x)
	res := &Result{
		Model:         model,
		Embeddings:    embedding.NewTable(l.cfg.Dimensions),
		Probabilities: make(map[string]float64, g.NodeCount()),
		Loss:          final.loss(train, y),
	}
	for _, n := range g.Nodes() {
		if err := res.Embeddings.Set(n.Key, final.h2.RawRowView(int(n.ID))); err != nil {
			return nil, err
		}
		res.Probabilities[n.Key] = final.probs.At(int(n.ID), 1)
	}
	for _, i := range trainPos {
		res.Train = append(res.Train, keys[i])
	}
	for _, i := range testPos {
		res.Test = append(res.Test, keys[i])
	}

	yTest := make([]int, len(test))
	scores := make([]float64, len(test))
	for i, r := range test {
		yTest[i] = y[r]
		scores[i] = final.probs.At(r, 1)
	}
	if res.Eval, err = classify.Evaluate(yTest, scores, 0.5); err != nil {
		timer.EndError(err)
		return nil, err
	}
	timer.End(logging.Float64("loss", res.Loss), logging.Float64("test_auc", res.Eval.AUC))

	l.last = res
	return res, nil
}

func pick(rows, pos []int) []int {
	out := make([]int, len(pos))
	for i, p := range pos {
		out[i] = rows[p]
	}
	return out
}

// Predict scores every node of g with the positive-class probability. Node
// features are built the same way as during training.
func (m *Model) Predict(g *graph.Graph) (map[string]float64, error) {
	x, err := Features(g)
	if err != nil {
		return nil, err
	}
	return m.predict(g, x)
}

func (m *Model) predict(g *graph.Graph, x *mat.Dense) (map[string]float64, error) {
	if err := m.checkInput(x); err != nil {
		return nil, err
	}
	p := m.forward(meanAgg{adj: g.Adjacency()}, x)
	out := make(map[string]float64, g.NodeCount())
	for _, n := range g.Nodes() {
		out[n.Key] = p.probs.At(int(n.ID), 1)
	}
	return out, nil
}
