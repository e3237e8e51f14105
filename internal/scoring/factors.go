package scoring

import (
	"math"
	"time"

	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

const (
	// partialCreditFactor scales the level ratio of a present but under-leveled skill.
	partialCreditFactor = 0.7

	// progressionWindow bounds how many recent skill deltas feed the progression score.
	progressionWindow = 5

	neutralProgression = 50.0
	yearLength         = 365.25 * 24 * time.Hour
)

// FactorResult captures one sub-score's contribution to the total score.
type FactorResult struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	Reason   string  `json:"reason"`
}

// SkillMatch explains how one required skill was scored.
type SkillMatch struct {
	SkillID    string           `json:"skill_id"`
	Label      string           `json:"label"`
	Required   store.SkillLevel `json:"required"`
	Actual     store.SkillLevel `json:"actual,omitempty"`
	Present    bool             `json:"present"`
	Mandatory  bool             `json:"mandatory"`
	Weight     float64          `json:"weight"`
	LevelScore float64          `json:"level_score"`
	BelowMin   bool             `json:"below_min_score,omitempty"`
}

// LevelScore returns 1.0 when the employee level reaches the required level,
// otherwise (employee/required)*0.7.
func LevelScore(employee, required store.SkillLevel) float64 {
	req := required.Ordinal()
	if req == 0 {
		return 1.0
	}
	emp := employee.Ordinal()
	if emp >= req {
		return 1.0
	}
	return float64(emp) / float64(req) * partialCreditFactor
}

// SkillFactor computes the weighted skill match on a 0..100 scale. Missing optional
// skills drop out of the denominator; missing mandatory skills are reported back
// so the caller can disqualify.
func SkillFactor(emp *store.Employee, act *store.Activity) (score float64, matches []SkillMatch, missingMandatory []SkillMatch) {
	var weighted, total float64
	matches = make([]SkillMatch, 0, len(act.RequiredSkills))

	for _, req := range act.RequiredSkills {
		m := SkillMatch{
			SkillID:   req.SkillID,
			Label:     req.Label(),
			Required:  req.RequiredLevel,
			Mandatory: req.Mandatory,
			Weight:    req.Weight,
		}
		held, ok := emp.Skill(req.SkillID)
		if !ok {
			if req.Mandatory {
				missingMandatory = append(missingMandatory, m)
			}
			matches = append(matches, m)
			continue
		}

		m.Present = true
		m.Actual = held.Level
		m.LevelScore = LevelScore(held.Level, req.RequiredLevel)
		// Below min_score is reported in the reasoning, not scored.
		m.BelowMin = req.MinScore != nil && held.Score < *req.MinScore
		matches = append(matches, m)

		weighted += m.LevelScore * req.Weight
		total += req.Weight
	}

	if total == 0 {
		return 0, matches, missingMandatory
	}
	return clamp(100*weighted/total, 0, 100), matches, missingMandatory
}

// ExperienceFactor rewards overall tenure (capped at 50) plus experience on
// activities of the same type (capped at 50).
func ExperienceFactor(emp *store.Employee, act *store.Activity) float64 {
	base := math.Min(emp.YearsOfExperience*5, 50)
	relevant := math.Min(RelevantExperienceYears(emp, act)*10, 50)
	return clamp(base+relevant, 0, 100)
}

// RelevantExperienceYears sums the duration of completed history entries whose
// type matches the activity type.
func RelevantExperienceYears(emp *store.Employee, act *store.Activity) float64 {
	if act.Type == "" {
		return 0
	}
	var d time.Duration
	for _, h := range emp.History {
		if h.Type != act.Type || h.Status != store.RecordCompleted || h.ActivityID == act.ID {
			continue
		}
		d += h.Dates.Duration()
	}
	return float64(d) / float64(yearLength)
}

// ProgressionFactor maps the mean of the last five skill deltas to 50+avg*2,
// or 50 when there is no history.
func ProgressionFactor(emp *store.Employee) float64 {
	deltas := emp.RecentDeltas(progressionWindow)
	if len(deltas) == 0 {
		return neutralProgression
	}
	var sum float64
	for _, d := range deltas {
		sum += d.Delta()
	}
	avg := sum / float64(len(deltas))
	return clamp(neutralProgression+avg*2, 0, 100)
}

// ContextFactor scores the ordinal distance between the activity target level
// and the employee's overall level.
func ContextFactor(emp *store.Employee, act *store.Activity) float64 {
	return ContextScore(act.TargetLevel, emp.OverallLevel())
}

func ContextScore(target, employee store.SkillLevel) float64 {
	d := target.Ordinal() - employee.Ordinal()
	if d < 0 {
		d = -d
	}
	switch d {
	case 0:
		return 100
	case 1:
		return 80
	case 2:
		return 50
	default:
		return 20
	}
}

func clamp(v, min, max float64) float64 {
	if math.IsNaN(v) {
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
