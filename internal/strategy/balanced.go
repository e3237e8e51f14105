package strategy

import (
	"math"

	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

// ExpertCount is ceil(fraction*n), at least one when n > 0.
func ExpertCount(n int, fraction float64) int {
	if n <= 0 {
		return 0
	}
	k := int(math.Ceil(fraction*float64(n) - 1e-9))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// balance ranks everyone by expertise, takes the top fraction of the seats as
// experts, and ranks only the remaining candidates by upskilling potential.
// Experts come first.
func balance(cands []scoring.Candidate, act *store.Activity, p Params) []scoring.Candidate {
	byExpertise := rank(cands, func(c scoring.Candidate) float64 { return ExpertiseScore(c, act) })
	k := ExpertCount(min(p.seats(len(byExpertise)), len(byExpertise)), p.expertFraction())

	out := make([]scoring.Candidate, 0, len(cands))
	for _, c := range byExpertise[:k] {
		c.Role = RoleExpert
		out = append(out, c)
	}

	ref := p.reference(act)
	developers := rank(byExpertise[k:], func(c scoring.Candidate) float64 { return UpskillingScore(c, act, ref) })
	for _, c := range developers {
		c.Role = RoleDeveloper
		out = append(out, c)
	}
	return out
}
