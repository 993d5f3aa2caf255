// Package classify scores providers from their embeddings with a random
// forest and evaluates binary predictions.
package classify

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrLengthMismatch = errors.New("labels and scores differ in length")
	ErrEmptyInput     = errors.New("no samples")
	ErrInvalidLabel   = errors.New("label must be 0 or 1")
)

// Metrics summarises binary predictions against true labels.
type Metrics struct {
	Support   int     `json:"support"`
	Positives int     `json:"positives"`
	Threshold float64 `json:"threshold"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	AUC       float64 `json:"roc_auc"`
}

// Evaluate thresholds scores (score >= threshold predicts 1) and computes
// the confusion-based metrics plus ROC AUC. Ratios with an empty
// denominator are 0; AUC is 0.5 when only one class is present.
func Evaluate(yTrue []int, scores []float64, threshold float64) (Metrics, error) {
	if len(yTrue) != len(scores) {
		return Metrics{}, fmt.Errorf("%w: %d labels, %d scores", ErrLengthMismatch, len(yTrue), len(scores))
	}
	if len(yTrue) == 0 {
		return Metrics{}, ErrEmptyInput
	}

	var tp, fp, tn, fn int
	for i, y := range yTrue {
		pred := scores[i] >= threshold
		switch {
		case y != 0 && y != 1:
			return Metrics{}, fmt.Errorf("%w: sample %d has %d", ErrInvalidLabel, i, y)
		case y == 1 && pred:
			tp++
		case y == 1:
			fn++
		case pred:
			fp++
		default:
			tn++
		}
	}

	m := Metrics{
		Support:   len(yTrue),
		Positives: tp + fn,
		Threshold: threshold,
		Accuracy:  float64(tp+tn) / float64(len(yTrue)),
		Precision: ratio(tp, tp+fp),
		Recall:    ratio(tp, tp+fn),
		AUC:       rocAUC(yTrue, scores),
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// rocAUC computes the Mann-Whitney statistic with average ranks for ties.
func rocAUC(yTrue []int, scores []float64) float64 {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case scores[a] < scores[b]:
			return -1
		case scores[a] > scores[b]:
			return 1
		}
		return 0
	})

	var pos, neg int
	rankSum := 0.0
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && scores[idx[j]] == scores[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			if yTrue[idx[k]] == 1 {
				rankSum += avg
				pos++
			} else {
				neg++
			}
		}
		i = j
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}
	return (rankSum - float64(pos*(pos+1))/2) / float64(pos*neg)
}
