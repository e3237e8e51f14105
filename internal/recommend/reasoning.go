package recommend

import (
	"fmt"

	"github.com/MikeSquared-Agency/Matcher/internal/constraints"
	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
	"github.com/MikeSquared-Agency/Matcher/internal/strategy"
)

// Reasoning renders human-readable explanations for a candidate.
func Reasoning(c scoring.Candidate, act *store.Activity) []string {
	if c.Err != nil {
		return []string{"disqualified: invalid profile: " + c.Err.Error()}
	}

	var out []string
	for _, m := range c.Matches {
		switch {
		case !m.Present && m.Mandatory:
			out = append(out, fmt.Sprintf("disqualified: missing mandatory skill %s", m.Label))
		case !m.Present:
			out = append(out, fmt.Sprintf("missing optional skill %s", m.Label))
		case m.Actual > m.Required:
			out = append(out, fmt.Sprintf("exceeds required level for skill %s (%s > %s)", m.Label, m.Actual, m.Required))
		case m.Actual == m.Required:
			out = append(out, fmt.Sprintf("meets required level for skill %s", m.Label))
		default:
			out = append(out, fmt.Sprintf("below required level for skill %s (%s < %s)", m.Label, m.Actual, m.Required))
		}
		if m.BelowMin {
			out = append(out, fmt.Sprintf("score below minimum for skill %s", m.Label))
		}
	}

	for _, v := range c.Violations {
		switch {
		case v.Code == scoring.CodeMissingMandatorySkill:
			// already explained per skill above
		case v.Hard:
			out = append(out, "disqualified: "+v.Message)
		case v.Code == constraints.CodeDepartmentCap:
			out = append(out, fmt.Sprintf("deprioritised: %s (-%.0f)", v.Message, c.Penalty))
		default:
			out = append(out, "deprioritised: "+v.Message)
		}
	}

	if c.Employee != nil && c.Eligible {
		out = append(out, fmt.Sprintf("overall level %s vs target %s", c.Employee.OverallLevel(), act.TargetLevel))
	}
	switch c.Role {
	case strategy.RoleExpert:
		out = append(out, "ranked in the expert pool")
	case strategy.RoleDeveloper:
		out = append(out, "ranked in the development pool")
	}
	return out
}
