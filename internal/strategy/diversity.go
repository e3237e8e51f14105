package strategy

import (
	"math"

	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
)

// Selection is the immutable running state of the diversity fold. It carries
// the covered skills, department counts and years total the diversity terms read.
type Selection struct {
	picked   []scoring.Candidate
	from     map[int]bool
	covered  map[string]bool
	depts    map[string]int
	yearsSum float64
}

// With returns a new selection extended by pool[i]=c; s is unchanged.
func (s Selection) With(c scoring.Candidate, i int) Selection {
	next := Selection{
		picked:   make([]scoring.Candidate, len(s.picked), len(s.picked)+1),
		from:     make(map[int]bool, len(s.from)+1),
		covered:  make(map[string]bool, len(s.covered)),
		depts:    make(map[string]int, len(s.depts)+1),
		yearsSum: s.yearsSum + years(c),
	}
	copy(next.picked, s.picked)
	next.picked = append(next.picked, c)
	for k := range s.from {
		next.from[k] = true
	}
	next.from[i] = true
	for k := range s.covered {
		next.covered[k] = true
	}
	if c.Employee != nil {
		for _, sk := range c.Employee.Skills {
			next.covered[sk.SkillID] = true
		}
	}
	for k, v := range s.depts {
		next.depts[k] = v
	}
	next.depts[department(c)]++
	return next
}

func (s Selection) Len() int { return len(s.picked) }

// Picked returns a copy of the selected candidates in pick order.
func (s Selection) Picked() []scoring.Candidate {
	out := make([]scoring.Candidate, len(s.picked))
	copy(out, s.picked)
	return out
}

func (s Selection) contains(i int) bool { return s.from[i] }

// DiversityScore = skill*0.4 + department*0.3 + experience*0.3, measured
// against the current selection. Every term is 100 for an empty selection.
func DiversityScore(c scoring.Candidate, sel Selection) float64 {
	return SkillDiversity(c, sel)*0.4 +
		DepartmentDiversity(c, sel)*0.3 +
		ExperienceDiversity(c, sel)*0.3
}

// SkillDiversity is the share of the candidate's skills not yet covered by the selection.
func SkillDiversity(c scoring.Candidate, sel Selection) float64 {
	if sel.Len() == 0 {
		return 100
	}
	if c.Employee == nil || len(c.Employee.Skills) == 0 {
		return 0
	}
	fresh := 0
	for _, s := range c.Employee.Skills {
		if !sel.covered[s.SkillID] {
			fresh++
		}
	}
	return float64(fresh) / float64(len(c.Employee.Skills)) * 100
}

// DepartmentDiversity is 100 minus the selection share already from the candidate's department.
func DepartmentDiversity(c scoring.Candidate, sel Selection) float64 {
	if sel.Len() == 0 {
		return 100
	}
	same := sel.depts[department(c)]
	return 100 * (1 - float64(same)/float64(sel.Len()))
}

// ExperienceDiversity grows with the distance from the selection's mean
// years of experience, saturating at ten years.
func ExperienceDiversity(c scoring.Candidate, sel Selection) float64 {
	if sel.Len() == 0 {
		return 100
	}
	mean := sel.yearsSum / float64(sel.Len())
	return math.Min(math.Abs(years(c)-mean)/10, 1) * 100
}

func department(c scoring.Candidate) string {
	if c.Employee == nil {
		return ""
	}
	return c.Employee.Department
}

func years(c scoring.Candidate) float64 {
	if c.Employee == nil {
		return 0
	}
	return c.Employee.YearsOfExperience
}

// Step picks the best remaining candidate against sel and returns the
// extended selection. ok is false when nothing remains.
func Step(sel Selection, pool []scoring.Candidate) (next Selection, ok bool) {
	var best scoring.Candidate
	at := -1
	for i, c := range pool {
		if sel.contains(i) {
			continue
		}
		c.StrategyScore = DiversityScore(c, sel) - c.Penalty
		if at < 0 || better(c, best) {
			best, at = c, i
		}
	}
	if at < 0 {
		return sel, false
	}
	return sel.With(best, at), true
}

// better orders by diversity score, then total score, then the tie-break chain.
func better(a, b scoring.Candidate) bool {
	if qa, qb := scoring.Quantize(a.StrategyScore), scoring.Quantize(b.StrategyScore); qa != qb {
		return qa > qb
	}
	return scoring.Compare(a, b, scoring.ByTotal) < 0
}

// diversify folds Step over the pool until seats run out. Candidates left
// unpicked follow in tie-break order, scored against the final selection.
func diversify(cands []scoring.Candidate, seats int) []scoring.Candidate {
	if seats <= 0 || seats > len(cands) {
		seats = len(cands)
	}
	sel := Selection{}
	for sel.Len() < seats {
		next, ok := Step(sel, cands)
		if !ok {
			break
		}
		sel = next
	}

	out := sel.Picked()
	var rest []scoring.Candidate
	for i, c := range cands {
		if sel.contains(i) {
			continue
		}
		c.StrategyScore = DiversityScore(c, sel) - c.Penalty
		rest = append(rest, c)
	}
	return append(out, scoring.BreakTies(rest)...)
}
