package classify

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	y := []int{1, 1, 0, 0, 1, 0}
	scores := []float64{0.9, 0.4, 0.6, 0.1, 0.8, 0.2}

	m, err := Evaluate(y, scores, 0.5)
	require.NoError(t, err)

	// predictions 1 0 1 0 1 0: tp=2 fn=1 fp=1 tn=2
	assert.Equal(t, 6, m.Support)
	assert.Equal(t, 3, m.Positives)
	assert.InDelta(t, 4.0/6, m.Accuracy, 1e-12)
	assert.InDelta(t, 2.0/3, m.Precision, 1e-12)
	assert.InDelta(t, 2.0/3, m.Recall, 1e-12)
	assert.InDelta(t, 2.0/3, m.F1, 1e-12)
	// positives outrank negatives in 8 of 9 pairs
	assert.InDelta(t, 8.0/9, m.AUC, 1e-12)
}

func TestEvaluate_AUCTiesAndSingleClass(t *testing.T) {
	m, err := Evaluate([]int{1, 0}, []float64{0.5, 0.5}, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, m.AUC, 1e-12)

	m, err = Evaluate([]int{1, 1}, []float64{0.2, 0.9}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.AUC)
	assert.Equal(t, 1.0, m.Precision)
	assert.Equal(t, 0.5, m.Recall)
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := Evaluate([]int{1}, []float64{0.1, 0.2}, 0.5)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = Evaluate(nil, nil, 0.5)
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = Evaluate([]int{2}, []float64{0.1}, 0.5)
	assert.ErrorIs(t, err, ErrInvalidLabel)
}

func TestSplit(t *testing.T) {
	train, test := Split(10, 0.8, 42)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d in both sides", i)
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train2, test2 := Split(10, 0.8, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	train, test = Split(2, 1.0, 1)
	assert.Len(t, train, 1)
	assert.Len(t, test, 1)
}

// separable returns two gaussian blobs, label = blob.
func separable(n int, seed uint64) ([][]float64, []int) {
	rng := rand.New(rand.NewPCG(seed, 1))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		y[i] = i % 2
		centre := -2.0
		if y[i] == 1 {
			centre = 2
		}
		x[i] = []float64{centre + rng.NormFloat64(), rng.NormFloat64(), centre + rng.NormFloat64()}
	}
	return x, y
}

func TestForest_LearnsSeparableData(t *testing.T) {
	x, y := separable(200, 3)
	train, test := Split(len(x), 0.75, 9)

	f := NewForest(DefaultForestConfig())
	m, scores, err := f.FitEvaluate(context.Background(), x, y, train, test)
	require.NoError(t, err)
	assert.Len(t, scores, len(test))
	assert.Greater(t, m.Accuracy, 0.9)
	assert.Greater(t, m.AUC, 0.95)
}

func TestForest_Deterministic(t *testing.T) {
	x, y := separable(80, 5)
	cfg := DefaultForestConfig()
	cfg.Trees = 20

	a := NewForest(cfg)
	require.NoError(t, a.Fit(context.Background(), x, y))
	cfg.Workers = 1
	b := NewForest(cfg)
	require.NoError(t, b.Fit(context.Background(), x, y))

	pa, err := a.PredictAll(x)
	require.NoError(t, err)
	pb, err := b.PredictAll(x)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestForest_Errors(t *testing.T) {
	f := NewForest(DefaultForestConfig())
	_, err := f.PredictProba([]float64{1})
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.ErrorIs(t, f.Fit(context.Background(), nil, nil), ErrEmptyInput)
	assert.ErrorIs(t, f.Fit(context.Background(), [][]float64{{1}}, []int{1, 0}), ErrLengthMismatch)
	assert.ErrorIs(t, f.Fit(context.Background(), [][]float64{{1}}, []int{3}), ErrInvalidLabel)

	require.NoError(t, f.Fit(context.Background(), [][]float64{{1, 2}, {3, 4}}, []int{0, 1}))
	_, err = f.PredictProba([]float64{1})
	assert.Error(t, err)
}
