package matcher

import (
	"fmt"
	"math"
)

// Weights are the shares of the weighted sub-scores. They must sum to 1.
type Weights struct {
	Concrete float64 `mapstructure:"concrete" json:"concrete"`
	Theme    float64 `mapstructure:"theme" json:"theme"`
	Emotion  float64 `mapstructure:"emotion" json:"emotion"`
	Genre    float64 `mapstructure:"genre" json:"genre"`
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		Concrete: 0.35,
		Theme:    0.30,
		Emotion:  0.25,
		Genre:    0.10,
	}
}

// Validate checks that every weight is non-negative and that they sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"concrete": w.Concrete,
		"theme":    w.Theme,
		"emotion":  w.Emotion,
		"genre":    w.Genre,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, v)
		}
	}
	sum := w.Concrete + w.Theme + w.Emotion + w.Genre
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("weights must sum to 1, got %.4f", sum)
	}
	return nil
}
