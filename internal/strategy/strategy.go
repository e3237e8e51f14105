// Package strategy reorders eligible candidates according to a selection policy.
package strategy

import (
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

// Name identifies one of the closed set of optimization policies.
type Name string

const (
	Upskilling Name = "upskilling"
	Expertise  Name = "expertise"
	Balanced   Name = "balanced"
	Diversity  Name = "diversity"
)

// Roles assigned by the balanced strategy.
const (
	RoleExpert    = "expert"
	RoleDeveloper = "developer"
)

// DefaultExpertFraction is the share of the balanced selection drawn from the expert pool.
const DefaultExpertFraction = 0.3

// Info describes a strategy for listing endpoints.
type Info struct {
	Name        Name   `json:"name"`
	Description string `json:"description"`
}

var catalog = []Info{
	{Upskilling, "favours moderate skill gaps, recent progression and recent engagement"},
	{Expertise, "favours held skill level, experience and certifications"},
	{Balanced, "top fraction by expertise, remainder by development potential"},
	{Diversity, "greedy selection maximising skill, department and experience spread"},
}

// Catalog lists the supported strategies.
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// ParseName resolves a strategy name. Unknown names fail with a
// *scoring.ConfigurationError rather than falling back to a default.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, info := range catalog {
		if info.Name == n {
			return n, nil
		}
	}
	return "", &scoring.ConfigurationError{Setting: "strategy", Value: s}
}

// Params carries strategy-specific tuning.
type Params struct {
	// ExpertFraction is the balanced expert share; zero means DefaultExpertFraction.
	ExpertFraction float64 `json:"expert_fraction,omitempty"`
	// Seats is the size of the final selection. It sizes the balanced expert
	// pool and bounds the diversity greedy loop; zero means the whole eligible set.
	Seats int `json:"seats,omitempty"`
	// Now is the reference time for recent engagement. When zero the
	// activity start date is used.
	Now time.Time `json:"now,omitempty"`
}

func (p Params) seats(n int) int {
	if p.Seats <= 0 {
		return n
	}
	return p.Seats
}

func (p Params) expertFraction() float64 {
	if p.ExpertFraction <= 0 || p.ExpertFraction > 1 {
		return DefaultExpertFraction
	}
	return p.ExpertFraction
}

func (p Params) reference(act *store.Activity) time.Time {
	if !p.Now.IsZero() {
		return p.Now
	}
	return act.Dates.Start
}

// Optimize orders eligible candidates under the named strategy. Every returned
// candidate carries its StrategyScore, already reduced by any soft-constraint
// penalty. The input slice is not modified.
func Optimize(cands []scoring.Candidate, act *store.Activity, name Name, p Params) ([]scoring.Candidate, error) {
	switch name {
	case Upskilling:
		return rank(cands, func(c scoring.Candidate) float64 { return UpskillingScore(c, act, p.reference(act)) }), nil
	case Expertise:
		return rank(cands, func(c scoring.Candidate) float64 { return ExpertiseScore(c, act) }), nil
	case Balanced:
		return balance(cands, act, p), nil
	case Diversity:
		return diversify(cands, p.Seats), nil
	}
	return nil, &scoring.ConfigurationError{Setting: "strategy", Value: string(name)}
}

// rank scores every candidate and sorts descending with the tie-break chain.
func rank(cands []scoring.Candidate, score func(scoring.Candidate) float64) []scoring.Candidate {
	scored := make([]scoring.Candidate, len(cands))
	for i, c := range cands {
		c.StrategyScore = score(c) - c.Penalty
		scored[i] = c
	}
	return scoring.SortBy(scored, scoring.ByStrategy)
}
