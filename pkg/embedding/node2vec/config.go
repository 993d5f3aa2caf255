package node2vec

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is returned for a configuration that cannot train.
var ErrInvalidParameter = errors.New("invalid node2vec parameter")

// Config holds every walk and training parameter. Zero values are not
// defaults; start from DefaultConfig.
type Config struct {
	WalksPerNode    int     `yaml:"walks_per_node" json:"walks_per_node" validate:"gte=1"`
	WalkLength      int     `yaml:"walk_length" json:"walk_length" validate:"gte=1"`
	WindowSize      int     `yaml:"window_size" json:"window_size" validate:"gte=1"`
	Dimensions      int     `yaml:"dimensions" json:"dimensions" validate:"gte=1"`
	P               float64 `yaml:"p" json:"p" validate:"gt=0"` // return parameter
	Q               float64 `yaml:"q" json:"q" validate:"gt=0"` // in-out parameter
	Workers         int     `yaml:"workers" json:"workers" validate:"gte=1"`
	Epochs          int     `yaml:"epochs" json:"epochs" validate:"gte=1"`
	NegativeSamples int     `yaml:"negative_samples" json:"negative_samples" validate:"gte=0"`
	LearningRate    float64 `yaml:"learning_rate" json:"learning_rate" validate:"gt=0"`
	MinLearningRate float64 `yaml:"min_learning_rate" json:"min_learning_rate" validate:"gte=0"`
	Seed            uint64  `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		WalksPerNode:    10,
		WalkLength:      80,
		WindowSize:      10,
		Dimensions:      64,
		P:               1,
		Q:               1,
		Workers:         4,
		Epochs:          1,
		NegativeSamples: 5,
		LearningRate:    0.025,
		MinLearningRate: 0.0001,
		Seed:            42,
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	switch {
	case c.WalksPerNode < 1:
		return fmt.Errorf("%w: walks per node %d", ErrInvalidParameter, c.WalksPerNode)
	case c.WalkLength < 1:
		return fmt.Errorf("%w: walk length %d", ErrInvalidParameter, c.WalkLength)
	case c.WindowSize < 1:
		return fmt.Errorf("%w: window size %d", ErrInvalidParameter, c.WindowSize)
	case c.Dimensions < 1:
		return fmt.Errorf("%w: dimensions %d", ErrInvalidParameter, c.Dimensions)
	case c.P <= 0 || c.Q <= 0:
		return fmt.Errorf("%w: p=%g q=%g must be positive", ErrInvalidParameter, c.P, c.Q)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers %d", ErrInvalidParameter, c.Workers)
	case c.Epochs < 1:
		return fmt.Errorf("%w: epochs %d", ErrInvalidParameter, c.Epochs)
	case c.NegativeSamples < 0:
		return fmt.Errorf("%w: negative samples %d", ErrInvalidParameter, c.NegativeSamples)
	case c.LearningRate <= 0 || c.MinLearningRate < 0 || c.MinLearningRate > c.LearningRate:
		return fmt.Errorf("%w: learning rate %g..%g", ErrInvalidParameter, c.LearningRate, c.MinLearningRate)
	}
	return nil
}
