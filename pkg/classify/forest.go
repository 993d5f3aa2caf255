package classify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/dd0wney/cluso-fraudgraph/pkg/parallel"
)

var ErrNotFitted = errors.New("forest not fitted")

// ForestConfig configures a random forest.
type ForestConfig struct {
	Trees          int     `yaml:"trees" json:"trees" validate:"gte=1"`
	MaxDepth       int     `yaml:"max_depth" json:"max_depth" validate:"gte=0"` // 0 = unlimited
	MinSamplesLeaf int     `yaml:"min_samples_leaf" json:"min_samples_leaf" validate:"gte=1"`
	MaxFeatures    int     `yaml:"max_features" json:"max_features" validate:"gte=0"` // 0 = sqrt(features)
	Threshold      float64 `yaml:"threshold" json:"threshold"`
	Workers        int     `yaml:"workers" json:"workers" validate:"gte=1"`
	Seed           uint64  `yaml:"seed" json:"seed"`
}

// DefaultForestConfig returns 100 bagged trees with sqrt feature sampling.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:          100,
		MaxDepth:       12,
		MinSamplesLeaf: 1,
		Threshold:      0.5,
		Workers:        4,
		Seed:           42,
	}
}

// Forest is a bagged ensemble of CART trees on Gini impurity.
type Forest struct {
	cfg   ForestConfig
	dim   int
	trees []*treeNode
}

// NewForest returns an unfitted forest.
func NewForest(cfg ForestConfig) *Forest {
	return &Forest{cfg: cfg}
}

// Fit trains every tree on a bootstrap sample of (x, y). Trees are built in
// parallel; each owns a generator derived from the seed and its index.
func (f *Forest) Fit(ctx context.Context, x [][]float64, y []int) error {
	if len(x) == 0 {
		return ErrEmptyInput
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrLengthMismatch, len(x), len(y))
	}
	dim := len(x[0])
	for i, row := range x {
		if len(row) != dim {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), dim)
		}
		if y[i] != 0 && y[i] != 1 {
			return fmt.Errorf("%w: row %d has %d", ErrInvalidLabel, i, y[i])
		}
	}

	maxFeatures := f.cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(dim))))
	}
	minLeaf := max(1, f.cfg.MinSamplesLeaf)
	trees := make([]*treeNode, max(1, f.cfg.Trees))

	err := parallel.ForEach(ctx, max(1, f.cfg.Workers), len(trees), func(_ context.Context, t int) error {
		rng := rand.New(rand.NewPCG(f.cfg.Seed, uint64(t)+1))
		bag := make([]int, len(x))
		for i := range bag {
			bag[i] = rng.IntN(len(x))
		}
		b := &treeBuilder{x: x, y: y, maxDepth: f.cfg.MaxDepth, minLeaf: minLeaf, maxFeatures: maxFeatures, rng: rng}
		trees[t] = b.build(bag, 0)
		return nil
	})
	if err != nil {
		return err
	}
	f.dim = dim
	f.trees = trees
	return nil
}

// PredictProba returns the mean positive-class probability over trees.
func (f *Forest) PredictProba(x []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != f.dim {
		return 0, fmt.Errorf("sample has %d features, forest expects %d", len(x), f.dim)
	}
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees)), nil
}

// PredictAll scores every row.
func (f *Forest) PredictAll(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		p, err := f.PredictProba(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Threshold is the decision threshold used by FitEvaluate.
func (f *Forest) Threshold() float64 { return f.cfg.Threshold }

// FitEvaluate fits on the train rows and evaluates on the test rows.
func (f *Forest) FitEvaluate(ctx context.Context, x [][]float64, y []int, train, test []int) (Metrics, []float64, error) {
	pick := func(idx []int) ([][]float64, []int) {
		xs := make([][]float64, len(idx))
		ys := make([]int, len(idx))
		for i, j := range idx {
			xs[i], ys[i] = x[j], y[j]
		}
		return xs, ys
	}
	xTrain, yTrain := pick(train)
	xTest, yTest := pick(test)

	if err := f.Fit(ctx, xTrain, yTrain); err != nil {
		return Metrics{}, nil, err
	}
	scores, err := f.PredictAll(xTest)
	if err != nil {
		return Metrics{}, nil, err
	}
	m, err := Evaluate(yTest, scores, f.cfg.Threshold)
	return m, scores, err
}
