package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

// Reason codes recorded by the calculator itself.
const (
	CodeMissingMandatorySkill = "missing_mandatory_skill"
	CodeInvalidProfile        = "invalid_profile"
)

// ScoreBreakdown holds the four sub-scores and the composite, each in [0,100].
type ScoreBreakdown struct {
	SkillScore       float64 `json:"skill_score"`
	ExperienceScore  float64 `json:"experience_score"`
	ProgressionScore float64 `json:"progression_score"`
	ContextScore     float64 `json:"context_score"`
	TotalScore       float64 `json:"total_score"`
}

// Factors expands the breakdown into per-factor contributions for explain output.
func (b ScoreBreakdown) Factors(w WeightSet) []FactorResult {
	return []FactorResult{
		{Name: "skill", Score: b.SkillScore, Weight: w.Skill, Weighted: b.SkillScore * w.Skill, Reason: "weighted required-skill match"},
		{Name: "experience", Score: b.ExperienceScore, Weight: w.Experience, Weighted: b.ExperienceScore * w.Experience, Reason: "tenure plus same-type history"},
		{Name: "progression", Score: b.ProgressionScore, Weight: w.Progression, Weighted: b.ProgressionScore * w.Progression, Reason: "recent skill deltas"},
		{Name: "context", Score: b.ContextScore, Weight: w.Context, Weighted: b.ContextScore * w.Context, Reason: "distance to target level"},
	}
}

// Violation is a reason code attached to a candidate. Hard violations make the
// candidate ineligible; soft ones only lower its priority.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hard    bool   `json:"hard"`
}

// Candidate is the per-request (employee, activity) scoring record.
type Candidate struct {
	EmployeeID string          `json:"employee_id"`
	ActivityID string          `json:"activity_id"`
	Employee   *store.Employee `json:"-"`

	Breakdown  ScoreBreakdown `json:"breakdown"`
	Matches    []SkillMatch   `json:"matches,omitempty"`
	Violations []Violation    `json:"violations,omitempty"`
	Eligible   bool           `json:"eligible"`

	// Penalty is subtracted from strategy scores by soft constraints.
	Penalty       float64 `json:"penalty,omitempty"`
	StrategyScore float64 `json:"strategy_score"`
	Role          string  `json:"role,omitempty"`
	Rank          int     `json:"rank,omitempty"`

	// Err annotates a malformed input record; scoring of the batch continues.
	Err error `json:"-"`
}

// WithViolation returns a copy of c carrying v. A hard violation clears eligibility.
func (c Candidate) WithViolation(v Violation) Candidate {
	out := c
	out.Violations = make([]Violation, len(c.Violations), len(c.Violations)+1)
	copy(out.Violations, c.Violations)
	out.Violations = append(out.Violations, v)
	if v.Hard {
		out.Eligible = false
	}
	return out
}

// HasViolation reports whether a violation with the given code is recorded.
func (c Candidate) HasViolation(code string) bool {
	for _, v := range c.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// ViolationCodes lists the recorded reason codes in order.
func (c Candidate) ViolationCodes() []string {
	codes := make([]string, 0, len(c.Violations))
	for _, v := range c.Violations {
		codes = append(codes, v.Code)
	}
	return codes
}

// lastActivityUnix returns the employee's last activity date, if known.
func (c Candidate) lastActivityUnix() (int64, bool) {
	if c.Employee == nil || c.Employee.LastActivityDate == nil {
		return 0, false
	}
	return c.Employee.LastActivityDate.UnixNano(), true
}

// CalculateScore computes the breakdown for one employee-activity pair. It
// fails only on invalid weights.
func CalculateScore(emp *store.Employee, act *store.Activity, w WeightSet) (ScoreBreakdown, error) {
	c, err := Assess(emp, act, w)
	if err != nil {
		return ScoreBreakdown{}, err
	}
	return c.Breakdown, nil
}

// Assess scores one employee against an activity and returns the candidate
// with skill matches and any disqualification recorded.
func Assess(emp *store.Employee, act *store.Activity, w WeightSet) (Candidate, error) {
	if err := w.Validate(); err != nil {
		return Candidate{}, err
	}
	return assess(emp, act, w), nil
}

// assess assumes validated weights.
func assess(emp *store.Employee, act *store.Activity, w WeightSet) Candidate {
	if emp == nil {
		err := errors.New("nil employee record")
		c := Candidate{ActivityID: act.ID, Err: err}
		return c.WithViolation(Violation{Code: CodeInvalidProfile, Message: err.Error(), Hard: true})
	}
	c := Candidate{
		EmployeeID: emp.ID,
		ActivityID: act.ID,
		Employee:   emp,
		Eligible:   true,
	}

	if err := emp.Validate(); err != nil {
		c.Err = err
		return c.WithViolation(Violation{Code: CodeInvalidProfile, Message: err.Error(), Hard: true})
	}

	skill, matches, missing := SkillFactor(emp, act)
	b := ScoreBreakdown{
		SkillScore:       skill,
		ExperienceScore:  ExperienceFactor(emp, act),
		ProgressionScore: ProgressionFactor(emp),
		ContextScore:     ContextFactor(emp, act),
	}
	b.TotalScore = clamp(
		b.SkillScore*w.Skill+
			b.ExperienceScore*w.Experience+
			b.ProgressionScore*w.Progression+
			b.ContextScore*w.Context,
		0, 100)

	c.Matches = matches
	c.Breakdown = b

	// Mandatory-skill absence overrides the weighted result unconditionally.
	if len(missing) > 0 {
		c.Breakdown.TotalScore = 0
		labels := make([]string, 0, len(missing))
		for _, m := range missing {
			labels = append(labels, m.Label)
		}
		c = c.WithViolation(Violation{
			Code:    CodeMissingMandatorySkill,
			Message: fmt.Sprintf("missing mandatory skill %s", strings.Join(labels, ", ")),
			Hard:    true,
		})
	}
	return c
}

// NewCandidates scores a batch sequentially. Callers wanting parallelism shard
// the employee slice and call ScoreOne per worker.
func NewCandidates(emps []*store.Employee, act *store.Activity, w WeightSet) ([]Candidate, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	out := make([]Candidate, len(emps))
	for i, e := range emps {
		out[i] = assess(e, act, w)
	}
	return out, nil
}

// ScoreOne scores a single employee with weights the caller has already validated.
func ScoreOne(emp *store.Employee, act *store.Activity, w WeightSet) Candidate {
	return assess(emp, act, w)
}
