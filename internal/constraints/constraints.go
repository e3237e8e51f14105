// Package constraints evaluates seat, skill, availability and department rules
// against scored candidates.
package constraints

import (
	"fmt"
	"sort"

	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

// Category separates exclusion rules from priority rules.
type Category string

const (
	CategoryHard Category = "hard"
	CategorySoft Category = "soft"
)

// Reason codes.
const (
	CodeNoSeats        = "no_seats_available"
	CodeMandatorySkill = scoring.CodeMissingMandatorySkill
	CodeUnavailable    = "unavailable"
	CodeDepartmentCap  = "department_cap"
)

// DefaultDeptPenalty is the strategy-score penalty for exceeding the department cap.
const DefaultDeptPenalty = 15.0

// Config selects which constraints run.
type Config struct {
	CheckMandatory    bool    `json:"check_mandatory" yaml:"check_mandatory"`
	CheckAvailability bool    `json:"check_availability" yaml:"check_availability"`
	DepartmentLimit   int     `json:"department_limit,omitempty" yaml:"department_limit"`
	DepartmentPenalty float64 `json:"department_penalty,omitempty" yaml:"department_penalty"`
}

// DefaultConfig enables the mandatory and availability checks and no department cap.
func DefaultConfig() Config {
	return Config{
		CheckMandatory:    true,
		CheckAvailability: true,
		DepartmentPenalty: DefaultDeptPenalty,
	}
}

// Context is the shared, read-only input of one evaluation pass.
type Context struct {
	Activity *store.Activity
	Config   Config

	// deptRank is the 1-based position of each eligible employee within its
	// department, filled after the hard pass.
	deptRank map[string]int
}

// Constraint is an independent predicate with a reason code. Check returns
// ok=false with a message when the candidate violates it; soft constraints
// also return the priority penalty to apply.
type Constraint interface {
	Code() string
	Category() Category
	Check(ctx *Context, c scoring.Candidate) (ok bool, penalty float64, message string)
}

// Seat fails every candidate when the activity has no open seats. The
// selection-size bound itself is enforced by Truncate.
type Seat struct{}

func (Seat) Code() string       { return CodeNoSeats }
func (Seat) Category() Category { return CategoryHard }

func (Seat) Check(ctx *Context, _ scoring.Candidate) (bool, float64, string) {
	if ctx.Activity.OpenSeats() > 0 {
		return true, 0, ""
	}
	return false, 0, fmt.Sprintf("activity %s has no open seats", ctx.Activity.ID)
}

// MandatorySkill re-checks mandatory skill presence independently of the scorer.
type MandatorySkill struct{}

func (MandatorySkill) Code() string       { return CodeMandatorySkill }
func (MandatorySkill) Category() Category { return CategoryHard }

func (MandatorySkill) Check(ctx *Context, c scoring.Candidate) (bool, float64, string) {
	if c.Employee == nil || c.HasViolation(CodeMandatorySkill) {
		return true, 0, ""
	}
	for _, req := range ctx.Activity.RequiredSkills {
		if !req.Mandatory {
			continue
		}
		if _, ok := c.Employee.Skill(req.SkillID); !ok {
			return false, 0, fmt.Sprintf("missing mandatory skill %s", req.Label())
		}
	}
	return true, 0, ""
}

// Availability fails when a committed activity overlaps the target's dates.
type Availability struct{}

func (Availability) Code() string       { return CodeUnavailable }
func (Availability) Category() Category { return CategoryHard }

func (Availability) Check(ctx *Context, c scoring.Candidate) (bool, float64, string) {
	if c.Employee == nil {
		return true, 0, ""
	}
	if conflict, ok := Conflict(c.Employee, ctx.Activity); ok {
		return false, 0, fmt.Sprintf("committed to %s during %s", conflict.ActivityID, formatRange(conflict.Dates))
	}
	return true, 0, ""
}

// Conflict returns the first committed history record overlapping act.
func Conflict(emp *store.Employee, act *store.Activity) (store.ActivityRecord, bool) {
	for _, rec := range emp.History {
		if !rec.Committed() || rec.ActivityID == act.ID {
			continue
		}
		if rec.Dates.Overlaps(act.Dates) {
			return rec, true
		}
	}
	return store.ActivityRecord{}, false
}

func formatRange(r store.DateRange) string {
	const layout = "2006-01-02"
	if r.End.IsZero() {
		return r.Start.Format(layout) + "..."
	}
	return r.Start.Format(layout) + ".." + r.End.Format(layout)
}

// DepartmentCap deprioritises candidates ranked beyond Limit within their department.
type DepartmentCap struct{}

func (DepartmentCap) Code() string       { return CodeDepartmentCap }
func (DepartmentCap) Category() Category { return CategorySoft }

func (DepartmentCap) Check(ctx *Context, c scoring.Candidate) (bool, float64, string) {
	limit := ctx.Config.DepartmentLimit
	if limit <= 0 || c.Employee == nil || c.Employee.Department == "" {
		return true, 0, ""
	}
	rank, ok := ctx.deptRank[c.EmployeeID]
	if !ok || rank <= limit {
		return true, 0, ""
	}
	penalty := ctx.Config.DepartmentPenalty
	if penalty <= 0 {
		penalty = DefaultDeptPenalty
	}
	return false, penalty, fmt.Sprintf("department %s already has %d higher-ranked candidates", c.Employee.Department, limit)
}

// Set returns the constraints enabled by cfg, hard ones first.
func Set(cfg Config) []Constraint {
	set := []Constraint{Seat{}}
	if cfg.CheckMandatory {
		set = append(set, MandatorySkill{})
	}
	if cfg.CheckAvailability {
		set = append(set, Availability{})
	}
	if cfg.DepartmentLimit > 0 {
		set = append(set, DepartmentCap{})
	}
	return set
}

// Result is the outcome of Apply.
type Result struct {
	// All holds every input candidate, annotated, in input order.
	All []scoring.Candidate `json:"all"`
	// Eligible holds the candidates without hard violations, in input order.
	Eligible []scoring.Candidate `json:"eligible"`
	// Violations maps employee id to its recorded violations.
	Violations map[string][]scoring.Violation `json:"violations"`
}

// Apply evaluates the enabled constraints. Hard constraints run first; soft
// constraints then see only the candidates still eligible. Inputs are not modified.
func Apply(cands []scoring.Candidate, act *store.Activity, cfg Config) Result {
	return Evaluate(cands, act, cfg, Set(cfg))
}

// Evaluate is Apply with an explicit constraint set.
func Evaluate(cands []scoring.Candidate, act *store.Activity, cfg Config, set []Constraint) Result {
	ctx := &Context{Activity: act, Config: cfg}
	all := make([]scoring.Candidate, len(cands))
	copy(all, cands)

	for _, con := range set {
		if con.Category() == CategoryHard {
			for i := range all {
				all[i] = check(ctx, con, all[i])
			}
		}
	}

	ctx.deptRank = departmentRanks(all)
	for _, con := range set {
		if con.Category() == CategorySoft {
			for i := range all {
				if all[i].Eligible {
					all[i] = check(ctx, con, all[i])
				}
			}
		}
	}

	res := Result{All: all, Violations: make(map[string][]scoring.Violation)}
	for _, c := range all {
		if c.Eligible {
			res.Eligible = append(res.Eligible, c)
		}
		if len(c.Violations) > 0 {
			res.Violations[c.EmployeeID] = c.Violations
		}
	}
	return res
}

func check(ctx *Context, con Constraint, c scoring.Candidate) scoring.Candidate {
	ok, penalty, msg := con.Check(ctx, c)
	if ok {
		return c
	}
	out := c.WithViolation(scoring.Violation{
		Code:    con.Code(),
		Message: msg,
		Hard:    con.Category() == CategoryHard,
	})
	out.Penalty += penalty
	return out
}

// departmentRanks orders eligible candidates by total score within each department.
func departmentRanks(cands []scoring.Candidate) map[string]int {
	byDept := make(map[string][]scoring.Candidate)
	for _, c := range cands {
		if !c.Eligible || c.Employee == nil || c.Employee.Department == "" {
			continue
		}
		byDept[c.Employee.Department] = append(byDept[c.Employee.Department], c)
	}
	depts := make([]string, 0, len(byDept))
	for d := range byDept {
		depts = append(depts, d)
	}
	sort.Strings(depts)

	ranks := make(map[string]int)
	for _, d := range depts {
		for i, c := range scoring.BreakTies(byDept[d]) {
			ranks[c.EmployeeID] = i + 1
		}
	}
	return ranks
}

// Limit is the maximum selection size for act.
func Limit(act *store.Activity) int {
	return act.OpenSeats()
}

// Truncate splits an ordered list at the activity's open-seat count.
func Truncate(ordered []scoring.Candidate, act *store.Activity) (selected, rest []scoring.Candidate) {
	n := Limit(act)
	if n > len(ordered) {
		n = len(ordered)
	}
	if n < 0 {
		n = 0
	}
	return ordered[:n], ordered[n:]
}
