package scoring

import (
	"context"
	"strings"
)

// Objective names a maximised dimension of the Pareto view.
type Objective string

const (
	ObjectiveSkill       Objective = "skill"
	ObjectiveExperience  Objective = "experience"
	ObjectiveProgression Objective = "progression"
	ObjectiveContext     Objective = "context"
	ObjectiveTotal       Objective = "total"
	ObjectiveStrategy    Objective = "strategy"
)

// DefaultObjectives are the four sub-scores.
func DefaultObjectives() []Objective {
	return []Objective{ObjectiveSkill, ObjectiveExperience, ObjectiveProgression, ObjectiveContext}
}

// ParseObjectives maps names to objectives, failing on unknown names.
func ParseObjectives(names []string) ([]Objective, error) {
	out := make([]Objective, 0, len(names))
	for _, n := range names {
		o := Objective(strings.ToLower(strings.TrimSpace(n)))
		if _, ok := objectiveValue(o); !ok {
			return nil, &ConfigurationError{Setting: "objective", Value: n}
		}
		out = append(out, o)
	}
	return out, nil
}

func objectiveValue(o Objective) (func(Candidate) float64, bool) {
	switch o {
	case ObjectiveSkill:
		return func(c Candidate) float64 { return c.Breakdown.SkillScore }, true
	case ObjectiveExperience:
		return func(c Candidate) float64 { return c.Breakdown.ExperienceScore }, true
	case ObjectiveProgression:
		return func(c Candidate) float64 { return c.Breakdown.ProgressionScore }, true
	case ObjectiveContext:
		return func(c Candidate) float64 { return c.Breakdown.ContextScore }, true
	case ObjectiveTotal:
		return ByTotal, true
	case ObjectiveStrategy:
		return ByStrategy, true
	}
	return nil, false
}

// FrontMember is a non-dominated candidate with its objective vector.
type FrontMember struct {
	Candidate Candidate `json:"candidate"`
	Vector    []float64 `json:"vector"`
}

// Vector evaluates a candidate on the given objectives.
func Vector(c Candidate, objectives []Objective) ([]float64, error) {
	v := make([]float64, len(objectives))
	for i, o := range objectives {
		f, ok := objectiveValue(o)
		if !ok {
			return nil, &ConfigurationError{Setting: "objective", Value: string(o)}
		}
		v[i] = f(c)
	}
	return v, nil
}

// ParetoFront returns the candidates dominated by no other candidate, in input
// order. The O(n²) dominance scan checks ctx between comparisons and returns
// ctx.Err() without a partial result once cancelled. Empty objectives mean
// DefaultObjectives.
func ParetoFront(ctx context.Context, cands []Candidate, objectives []Objective) ([]FrontMember, error) {
	if len(objectives) == 0 {
		objectives = DefaultObjectives()
	}
	vectors := make([][]float64, len(cands))
	for i, c := range cands {
		v, err := Vector(c, objectives)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}

	done := ctx.Done()
	var front []FrontMember
	for i := range cands {
		dominated := false
		for j := range cands {
			select {
			case <-done:
				return nil, ctx.Err()
			default:
			}
			if i == j {
				continue
			}
			if Dominates(vectors[j], vectors[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, FrontMember{Candidate: cands[i], Vector: vectors[i]})
		}
	}
	return front, nil
}

// Dominates reports whether a is >= b on every objective and > b on at least one.
func Dominates(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	strictly := false
	for i := range a {
		if a[i] < b[i] {
			return false
		}
		if a[i] > b[i] {
			strictly = true
		}
	}
	return strictly
}
