// Package vector holds distance helpers and exact nearest-neighbour search
// over embedding vectors.
package vector

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrDimensionMismatch is returned when vector dimensions don't match
var ErrDimensionMismatch = fmt.Errorf("vector dimensions mismatch")

// DistanceMetric represents the type of distance calculation
type DistanceMetric string

const (
	MetricCosine     DistanceMetric = "cosine"
	MetricEuclidean  DistanceMetric = "euclidean"
	MetricDotProduct DistanceMetric = "dot_product"
)

func checkDims(a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	return nil
}

// CosineSimilarity calculates the cosine similarity between two vectors
// Returns a value between -1 (opposite) and 1 (identical), 0 for a zero vector.
func CosineSimilarity(a, b []float64) (float64, error) {
	if err := checkDims(a, b); err != nil {
		return 0, err
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return floats.Dot(a, b) / (normA * normB), nil
}

// CosineDistance calculates 1 - cosine_similarity(a, b), in [0, 2].
func CosineDistance(a, b []float64) (float64, error) {
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}
	return 1.0 - sim, nil
}

// Distance calculates the distance between two vectors using the specified metric
func Distance(a, b []float64, metric DistanceMetric) (float64, error) {
	switch metric {
	case MetricEuclidean:
		if err := checkDims(a, b); err != nil {
			return 0, err
		}
		return floats.Distance(a, b, 2), nil
	case MetricDotProduct:
		if err := checkDims(a, b); err != nil {
			return 0, err
		}
		// Negated so that smaller still means closer
		return -floats.Dot(a, b), nil
	default:
		return CosineDistance(a, b)
	}
}

// ToFloat32 narrows a vector for stores that keep single precision.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
