package scoring

import (
	"math"
	"sort"
)

// ScoreEpsilon is the resolution at which scores are compared.
const ScoreEpsilon = 1e-6

// Quantize maps a score onto the ScoreEpsilon grid. Scores on the same grid
// step count as tied, which keeps the ordering transitive.
func Quantize(x float64) float64 { return math.Round(x / ScoreEpsilon) }

// ScoreKey selects the primary ordering score of a candidate.
type ScoreKey func(Candidate) float64

// ByTotal orders by composite score.
func ByTotal(c Candidate) float64 { return c.Breakdown.TotalScore }

// ByStrategy orders by the score the active strategy assigned.
func ByStrategy(c Candidate) float64 { return c.StrategyScore }

// Compare returns a negative value when a ranks before b. Primary scores are
// compared descending; on the same ScoreEpsilon step the precedence is higher progression,
// higher context, older last-activity date (never active counts as oldest),
// then employee id and activity id ascending.
func Compare(a, b Candidate, key ScoreKey) int {
	if c := compareDesc(key(a), key(b)); c != 0 {
		return c
	}
	if c := compareDesc(a.Breakdown.ProgressionScore, b.Breakdown.ProgressionScore); c != 0 {
		return c
	}
	if c := compareDesc(a.Breakdown.ContextScore, b.Breakdown.ContextScore); c != 0 {
		return c
	}

	at, aok := a.lastActivityUnix()
	bt, bok := b.lastActivityUnix()
	switch {
	case !aok && bok:
		return -1
	case aok && !bok:
		return 1
	case aok && bok && at != bt:
		if at < bt {
			return -1
		}
		return 1
	}

	if a.EmployeeID != b.EmployeeID {
		if a.EmployeeID < b.EmployeeID {
			return -1
		}
		return 1
	}
	switch {
	case a.ActivityID < b.ActivityID:
		return -1
	case a.ActivityID > b.ActivityID:
		return 1
	}
	return 0
}

func compareDesc(a, b float64) int {
	a, b = Quantize(a), Quantize(b)
	if a == b {
		return 0
	}
	if a > b {
		return -1
	}
	return 1
}

// SortBy returns a totally ordered copy of cands.
func SortBy(cands []Candidate, key ScoreKey) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		return Compare(out[i], out[j], key) < 0
	})
	return out
}

// BreakTies orders candidates by total score with the deterministic tie-break chain.
func BreakTies(cands []Candidate) []Candidate {
	return SortBy(cands, ByTotal)
}
