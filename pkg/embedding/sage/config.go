package sage

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when a feature vector does not match
	// the declared input width.
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
	ErrInvalidParameter  = errors.New("invalid sage parameter")
	ErrNotEnoughLabels   = errors.New("at least two labelled nodes are required")
)

// Config holds the encoder shape and training schedule.
type Config struct {
	Hidden        int     `yaml:"hidden" json:"hidden" validate:"gte=1"`
	Dimensions    int     `yaml:"dimensions" json:"dimensions" validate:"gte=1"`
	Epochs        int     `yaml:"epochs" json:"epochs" validate:"gte=1"`
	LearningRate  float64 `yaml:"learning_rate" json:"learning_rate" validate:"gt=0"`
	WeightDecay   float64 `yaml:"weight_decay" json:"weight_decay" validate:"gte=0"`
	TrainFraction float64 `yaml:"train_fraction" json:"train_fraction" validate:"gt=0,lt=1"`
	Seed          uint64  `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Hidden:        32,
		Dimensions:    16,
		Epochs:        200,
		LearningRate:  0.01,
		WeightDecay:   5e-4,
		TrainFraction: 0.8,
		Seed:          42,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Hidden < 1 || c.Dimensions < 1:
		return fmt.Errorf("%w: hidden %d, dimensions %d", ErrInvalidParameter, c.Hidden, c.Dimensions)
	case c.Epochs < 1:
		return fmt.Errorf("%w: epochs %d", ErrInvalidParameter, c.Epochs)
	case c.LearningRate <= 0 || c.WeightDecay < 0:
		return fmt.Errorf("%w: learning rate %g, weight decay %g", ErrInvalidParameter, c.LearningRate, c.WeightDecay)
	case c.TrainFraction <= 0 || c.TrainFraction >= 1:
		return fmt.Errorf("%w: train fraction %g", ErrInvalidParameter, c.TrainFraction)
	}
	return nil
}
