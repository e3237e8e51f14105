package scoring

import (
	"fmt"
	"math"
)

// weightTolerance is the allowed deviation of the weight sum from 1.0.
const weightTolerance = 0.001

// WeightSet defines the relative importance of the four sub-scores.
// All weights must lie in [0,1] and sum to 1.0 (±0.001 tolerance).
type WeightSet struct {
	Skill       float64 `json:"skill" yaml:"skill"`
	Experience  float64 `json:"experience" yaml:"experience"`
	Progression float64 `json:"progression" yaml:"progression"`
	Context     float64 `json:"context" yaml:"context"`
}

// DefaultWeights returns the standard 0.5/0.2/0.15/0.15 distribution.
func DefaultWeights() WeightSet {
	return WeightSet{
		Skill:       0.50,
		Experience:  0.20,
		Progression: 0.15,
		Context:     0.15,
	}
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	return w.Skill + w.Experience + w.Progression + w.Context
}

// Validate checks the range of every weight and that they sum to 1.0.
func (w WeightSet) Validate() error {
	for _, f := range w.fields() {
		if math.IsNaN(f.value) || f.value < 0 || f.value > 1 {
			return &ValidationError{Field: "weights." + f.name, Reason: fmt.Sprintf("%.4f outside [0,1]", f.value)}
		}
	}
	if sum := w.Sum(); sum < 1-weightTolerance || sum > 1+weightTolerance {
		return &ValidationError{Field: "weights", Reason: fmt.Sprintf("sum to %.4f, must sum to 1.0", sum)}
	}
	return nil
}

type namedWeight struct {
	name  string
	value float64
}

func (w WeightSet) fields() []namedWeight {
	return []namedWeight{
		{"skill", w.Skill},
		{"experience", w.Experience},
		{"progression", w.Progression},
		{"context", w.Context},
	}
}
