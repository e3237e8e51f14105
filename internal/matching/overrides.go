package matching

import (
	"github.com/MikeSquared-Agency/Matcher/internal/recommend"
	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
	"github.com/MikeSquared-Agency/Matcher/internal/strategy"
)

// Overrides are per-request adjustments to the configured options. Nil and
// empty fields keep the configured value.
type Overrides struct {
	Strategy        string             `json:"strategy,omitempty"`
	Weights         *scoring.WeightSet `json:"weights,omitempty"`
	ExpertFraction  *float64           `json:"expert_fraction,omitempty"`
	DepartmentLimit *int               `json:"department_limit,omitempty"`
	Availability    *bool              `json:"check_availability,omitempty"`
	Pareto          *bool              `json:"pareto,omitempty"`
	Objectives      []string           `json:"objectives,omitempty"`
}

// Apply validates the overrides and merges them onto base.
func (o Overrides) Apply(base recommend.Options) (recommend.Options, error) {
	opts := base
	if o.Strategy != "" {
		name, err := strategy.ParseName(o.Strategy)
		if err != nil {
			return recommend.Options{}, err
		}
		opts.Strategy = string(name)
	}
	if o.Weights != nil {
		if err := o.Weights.Validate(); err != nil {
			return recommend.Options{}, err
		}
		opts.Weights = *o.Weights
	}
	if o.ExpertFraction != nil {
		if f := *o.ExpertFraction; f <= 0 || f > 1 {
			return recommend.Options{}, &scoring.ValidationError{Field: "expert_fraction", Reason: "must be in (0,1]"}
		}
		opts.Params.ExpertFraction = *o.ExpertFraction
	}
	if o.DepartmentLimit != nil {
		if *o.DepartmentLimit < 0 {
			return recommend.Options{}, &scoring.ValidationError{Field: "department_limit", Reason: "must be >= 0"}
		}
		opts.Constraints.DepartmentLimit = *o.DepartmentLimit
	}
	if o.Availability != nil {
		opts.Constraints.CheckAvailability = *o.Availability
	}
	if o.Pareto != nil {
		opts.Pareto = *o.Pareto
	}
	if len(o.Objectives) > 0 {
		objs, err := scoring.ParseObjectives(o.Objectives)
		if err != nil {
			return recommend.Options{}, err
		}
		opts.Objectives = objs
		opts.Pareto = true
	}
	return opts, nil
}
