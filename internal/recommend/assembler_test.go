package recommend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Matcher/internal/constraints"
	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
	"github.com/MikeSquared-Agency/Matcher/internal/strategy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func referenceActivity(seats int) *store.Activity {
	return &store.Activity{
		ID:   "act-1",
		Type: store.ActivityCertification,
		RequiredSkills: []store.SkillRequirement{
			{SkillID: "A", Name: "Kubernetes", RequiredLevel: store.LevelHigh, Weight: 0.6, Mandatory: true},
			{SkillID: "B", Name: "Terraform", RequiredLevel: store.LevelMedium, Weight: 0.4},
		},
		TargetLevel:    store.LevelHigh,
		AvailableSeats: seats,
	}
}

func referenceEmployee(id string) *store.Employee {
	return &store.Employee{
		ID:                id,
		Department:        "platform",
		YearsOfExperience: 5,
		Skills: []store.EmployeeSkill{
			{SkillID: "A", Level: store.LevelExpert, Score: 92},
			{SkillID: "B", Level: store.LevelLow, Score: 35},
		},
	}
}

func expertiseOptions() Options {
	opts := DefaultOptions()
	opts.Strategy = string(strategy.Expertise)
	return opts
}

func recIDs(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.EmployeeID
	}
	return out
}

func TestRecommendEndToEnd(t *testing.T) {
	a := New(discardLogger(), 2)
	res, err := a.Recommend(context.Background(), referenceActivity(1), []*store.Employee{referenceEmployee("e1")}, expertiseOptions())
	require.NoError(t, err)

	require.Len(t, res.Recommendations, 1)
	r := res.Recommendations[0]
	assert.Equal(t, "e1", r.EmployeeID)
	assert.Equal(t, 1, r.Rank)
	assert.True(t, r.Eligible)
	assert.InDelta(t, 74.0, r.Breakdown.SkillScore, 1e-9)
	assert.InDelta(t, 25.0, r.Breakdown.ExperienceScore, 1e-9)
	assert.InDelta(t, 50.0, r.Breakdown.ProgressionScore, 1e-9)
	assert.InDelta(t, 80.0, r.Breakdown.ContextScore, 1e-9)
	assert.InDelta(t, 61.5, r.TotalScore, 1e-9)
	assert.Contains(t, r.Reasoning, "exceeds required level for skill Kubernetes (EXPERT > HIGH)")
	assert.Contains(t, r.Reasoning, "below required level for skill Terraform (LOW < MEDIUM)")
	assert.Len(t, r.Factors, 4)

	assert.Equal(t, Stats{
		TotalCandidates: 1,
		Qualified:       1,
		Recommended:     1,
		OpenSeats:       1,
		AverageScore:    r.TotalScore,
	}, res.Stats)
}

func TestRecommendMissingMandatorySkill(t *testing.T) {
	noA := &store.Employee{ID: "e2", YearsOfExperience: 20, Skills: []store.EmployeeSkill{{SkillID: "B", Level: store.LevelExpert, Score: 99}}}
	a := New(discardLogger(), 1)
	res, err := a.Recommend(context.Background(), referenceActivity(3), []*store.Employee{noA, referenceEmployee("e1")}, expertiseOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"e1"}, recIDs(res.Recommendations))
	require.Len(t, res.Ineligible, 1)
	bad := res.Ineligible[0]
	assert.Equal(t, "e2", bad.EmployeeID)
	assert.False(t, bad.Eligible)
	assert.Equal(t, 0.0, bad.TotalScore)
	assert.Contains(t, bad.Reasoning, "disqualified: missing mandatory skill Kubernetes")
	assert.Equal(t, 1, res.Stats.Disqualified)
	assert.Equal(t, 2, res.Stats.TotalCandidates)
}

func TestRecommendSeatTruncation(t *testing.T) {
	var emps []*store.Employee
	for i := 0; i < 9; i++ {
		emps = append(emps, referenceEmployee(fmt.Sprintf("e%d", i)))
	}
	act := referenceActivity(5)
	act.FilledSeats = 2

	for _, info := range strategy.Catalog() {
		t.Run(string(info.Name), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Strategy = string(info.Name)
			res, err := New(discardLogger(), 4).Recommend(context.Background(), act, emps, opts)
			require.NoError(t, err)
			assert.Len(t, res.Recommendations, 3)
			assert.Len(t, res.Alternatives, 6)
			for i, r := range append(res.Recommendations, res.Alternatives...) {
				assert.Equal(t, i+1, r.Rank)
			}
		})
	}
}

func TestRecommendNoOpenSeats(t *testing.T) {
	act := referenceActivity(2)
	act.FilledSeats = 2
	res, err := New(discardLogger(), 1).Recommend(context.Background(), act, []*store.Employee{referenceEmployee("e1")}, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Recommendations)
	require.Len(t, res.Ineligible, 1)
	assert.Equal(t, []string{constraints.CodeNoSeats}, codes(res.Ineligible[0].Violations))
}

func codes(vs []scoring.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Code
	}
	return out
}

func TestRecommendRejectsInvalidWeights(t *testing.T) {
	opts := DefaultOptions()
	opts.Weights = scoring.WeightSet{Skill: 1, Experience: 1}
	_, err := New(discardLogger(), 1).Recommend(context.Background(), referenceActivity(1), []*store.Employee{referenceEmployee("e1")}, opts)
	assert.ErrorIs(t, err, scoring.ErrValidation)
}

func TestRecommendRejectsUnknownStrategy(t *testing.T) {
	opts := DefaultOptions()
	opts.Strategy = "seniority"
	_, err := New(discardLogger(), 1).Recommend(context.Background(), referenceActivity(1), nil, opts)
	assert.ErrorIs(t, err, scoring.ErrConfiguration)
}

func TestRecommendRejectsInvalidActivity(t *testing.T) {
	act := referenceActivity(1)
	act.FilledSeats = 4
	_, err := New(discardLogger(), 1).Recommend(context.Background(), act, nil, DefaultOptions())
	assert.ErrorIs(t, err, scoring.ErrValidation)
}

func TestRecommendIsolatesMalformedEmployee(t *testing.T) {
	broken := referenceEmployee("broken")
	broken.Skills = append(broken.Skills, store.EmployeeSkill{SkillID: "A", Level: store.LevelLow})
	emps := []*store.Employee{broken, nil, referenceEmployee("ok")}

	res, err := New(discardLogger(), 2).Recommend(context.Background(), referenceActivity(3), emps, expertiseOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, recIDs(res.Recommendations))
	assert.Len(t, res.Ineligible, 2)
	assert.Equal(t, 2, res.Stats.Errors)
	for _, r := range res.Ineligible {
		assert.NotEmpty(t, r.Error)
		assert.True(t, strings.HasPrefix(r.Reasoning[0], "disqualified: invalid profile"))
	}
}

func TestScoreParallelMatchesSequential(t *testing.T) {
	act := referenceActivity(10)
	var emps []*store.Employee
	levels := []store.SkillLevel{store.LevelLow, store.LevelMedium, store.LevelHigh, store.LevelExpert}
	for i := 0; i < 57; i++ {
		e := referenceEmployee(fmt.Sprintf("e%02d", i))
		e.Skills[0].Level = levels[i%4]
		e.YearsOfExperience = float64(i % 13)
		emps = append(emps, e)
	}

	want, err := scoring.NewCandidates(emps, act, scoring.DefaultWeights())
	require.NoError(t, err)

	for _, workers := range []int{1, 3, 8, 100} {
		got, err := New(discardLogger(), workers).Score(context.Background(), act, emps, scoring.DefaultWeights())
		require.NoError(t, err)
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].EmployeeID, got[i].EmployeeID)
			assert.Equal(t, want[i].Breakdown, got[i].Breakdown)
		}
	}
}

func TestScoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(discardLogger(), 2).Score(ctx, referenceActivity(1), []*store.Employee{referenceEmployee("e1")}, scoring.DefaultWeights())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecommendParetoView(t *testing.T) {
	strong := referenceEmployee("strong")
	strong.YearsOfExperience = 10
	weak := referenceEmployee("weak")
	weak.YearsOfExperience = 1
	climber := referenceEmployee("climber")
	climber.YearsOfExperience = 1
	climber.SkillDeltas = []store.SkillDelta{{PreviousScore: 40, NewScore: 60}}

	opts := expertiseOptions()
	opts.Pareto = true
	res, err := New(discardLogger(), 2).Recommend(context.Background(), referenceActivity(3), []*store.Employee{strong, weak, climber}, opts)
	require.NoError(t, err)
	require.NotNil(t, res.Pareto)
	assert.False(t, res.Pareto.Cancelled)
	assert.Equal(t, scoring.DefaultObjectives(), res.Pareto.Objectives)

	front := map[string]bool{}
	for _, e := range res.Pareto.Front {
		front[e.EmployeeID] = true
	}
	assert.Equal(t, map[string]bool{"strong": true, "climber": true}, front)
}

func TestRecommendDepartmentCap(t *testing.T) {
	a1 := referenceEmployee("a1")
	a1.YearsOfExperience = 9
	a2 := referenceEmployee("a2")
	a2.YearsOfExperience = 8
	b1 := referenceEmployee("b1")
	b1.Department = "data"
	b1.YearsOfExperience = 2

	opts := expertiseOptions()
	opts.Constraints.DepartmentLimit = 1
	res, err := New(discardLogger(), 1).Recommend(context.Background(), referenceActivity(2), []*store.Employee{a1, a2, b1}, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "b1"}, recIDs(res.Recommendations))
	require.Len(t, res.Alternatives, 1)
	alt := res.Alternatives[0]
	assert.Equal(t, "a2", alt.EmployeeID)
	assert.True(t, alt.Eligible)
	assert.Contains(t, codes(alt.Violations), constraints.CodeDepartmentCap)
}
