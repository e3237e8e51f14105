package strategy

import (
	"math"
	"time"

	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

const maxOrdinal = float64(store.LevelExpert)

// UpskillingScore = gap*0.4 + progression*0.4 + engagement*0.2.
func UpskillingScore(c scoring.Candidate, act *store.Activity, ref time.Time) float64 {
	return GapScore(MeanGap(c.Employee, act))*0.4 +
		c.Breakdown.ProgressionScore*0.4 +
		EngagementScore(c.Employee, ref)*0.2
}

// MeanGap is the average number of levels the employee is below each
// requirement, counting a missing skill as a full gap. Without requirements
// it is the distance from the overall level up to the target level.
func MeanGap(emp *store.Employee, act *store.Activity) float64 {
	if emp == nil {
		return 0
	}
	if len(act.RequiredSkills) == 0 {
		return math.Max(0, float64(act.TargetLevel.Ordinal()-emp.OverallLevel().Ordinal()))
	}
	var total float64
	for _, req := range act.RequiredSkills {
		held := 0
		if s, ok := emp.Skill(req.SkillID); ok {
			held = s.Level.Ordinal()
		}
		total += math.Max(0, float64(req.RequiredLevel.Ordinal()-held))
	}
	return total / float64(len(act.RequiredSkills))
}

// GapScore peaks for a gap of about one level. No gap leaves little to learn
// and a gap above two levels is too steep.
func GapScore(gap float64) float64 {
	switch {
	case gap <= 0:
		return 20
	case gap <= 1:
		return 100
	case gap <= 2:
		return 60
	default:
		return 20
	}
}

// EngagementScore decays with the time since the employee's last activity.
func EngagementScore(emp *store.Employee, ref time.Time) float64 {
	if emp == nil || emp.LastActivityDate == nil {
		return 10
	}
	if ref.IsZero() {
		return 50
	}
	days := ref.Sub(*emp.LastActivityDate).Hours() / 24
	switch {
	case days <= 90:
		return 100
	case days <= 180:
		return 70
	case days <= 365:
		return 40
	default:
		return 10
	}
}

// ExpertiseScore = skillLevel*0.5 + experience*0.3 + certifications*0.2.
func ExpertiseScore(c scoring.Candidate, act *store.Activity) float64 {
	return HeldLevelScore(c.Employee, act)*0.5 +
		c.Breakdown.ExperienceScore*0.3 +
		CertificationScore(c.Employee, act)*0.2
}

// HeldLevelScore maps the mean held level on the required skills to [0,100].
func HeldLevelScore(emp *store.Employee, act *store.Activity) float64 {
	if emp == nil {
		return 0
	}
	if len(act.RequiredSkills) == 0 {
		return float64(emp.OverallLevel().Ordinal()) / maxOrdinal * 100
	}
	var sum float64
	for _, req := range act.RequiredSkills {
		if s, ok := emp.Skill(req.SkillID); ok {
			sum += float64(s.Level.Ordinal())
		}
	}
	return sum / float64(len(act.RequiredSkills)) / maxOrdinal * 100
}

// CertificationScore gives 20 points per certification on relevant skills, capped at 100.
func CertificationScore(emp *store.Employee, act *store.Activity) float64 {
	if emp == nil {
		return 0
	}
	n := 0
	if len(act.RequiredSkills) == 0 {
		for _, s := range emp.Skills {
			n += s.CertificationCount
		}
	} else {
		for _, req := range act.RequiredSkills {
			if s, ok := emp.Skill(req.SkillID); ok {
				n += s.CertificationCount
			}
		}
	}
	return math.Min(float64(n)*20, 100)
}
