package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

func float64Ptr(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// referenceActivity requires A (mandatory, HIGH, 0.6) and B (optional, MEDIUM, 0.4).
func referenceActivity() *store.Activity {
	return &store.Activity{
		ID:   "act-1",
		Type: store.ActivityTraining,
		RequiredSkills: []store.SkillRequirement{
			{SkillID: "A", RequiredLevel: store.LevelHigh, Weight: 0.6, Mandatory: true},
			{SkillID: "B", RequiredLevel: store.LevelMedium, Weight: 0.4},
		},
		TargetLevel:    store.LevelHigh,
		AvailableSeats: 3,
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := DefaultWeights()
	if err := w.Validate(); err != nil {
		t.Errorf("default weights invalid: %v", err)
	}
	if math.Abs(w.Sum()-1.0) > 0.001 {
		t.Errorf("default weights sum to %f, expected 1.0", w.Sum())
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name string
		w    WeightSet
	}{
		{"negative", WeightSet{Skill: -0.1, Experience: 0.5, Progression: 0.3, Context: 0.3}},
		{"above one", WeightSet{Skill: 1.2, Experience: 0, Progression: 0, Context: 0}},
		{"bad sum", WeightSet{Skill: 0.5, Experience: 0.5, Progression: 0.5, Context: 0.5}},
		{"nan", WeightSet{Skill: math.NaN(), Experience: 0.5, Progression: 0.25, Context: 0.25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var ve *ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestCalculateScoreRejectsInvalidWeights(t *testing.T) {
	emp := &store.Employee{ID: "e1"}
	_, err := CalculateScore(emp, referenceActivity(), WeightSet{Skill: 0.9, Experience: 0.9})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLevelScore(t *testing.T) {
	tests := []struct {
		name     string
		employee store.SkillLevel
		required store.SkillLevel
		want     float64
	}{
		{"equal", store.LevelHigh, store.LevelHigh, 1.0},
		{"above", store.LevelExpert, store.LevelMedium, 1.0},
		{"low vs expert", store.LevelLow, store.LevelExpert, 0.175},
		{"low vs medium", store.LevelLow, store.LevelMedium, 0.35},
		{"high vs expert", store.LevelHigh, store.LevelExpert, 0.525},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LevelScore(tt.employee, tt.required), 1e-9)
		})
	}

	// Reaching the required level is exactly 1.0, not approximately.
	if LevelScore(store.LevelExpert, store.LevelHigh) != 1.0 {
		t.Error("expected exact 1.0 for over-qualified skill")
	}
}

func TestContextScore(t *testing.T) {
	assert.Equal(t, 20.0, ContextScore(store.LevelExpert, store.LevelLow))
	assert.Equal(t, 100.0, ContextScore(store.LevelHigh, store.LevelHigh))
	assert.Equal(t, 80.0, ContextScore(store.LevelHigh, store.LevelExpert))
	assert.Equal(t, 50.0, ContextScore(store.LevelLow, store.LevelHigh))
}

func TestProgressionFactor(t *testing.T) {
	t.Run("no history is neutral", func(t *testing.T) {
		assert.Equal(t, 50.0, ProgressionFactor(&store.Employee{ID: "e"}))
	})

	t.Run("uses last five deltas", func(t *testing.T) {
		emp := &store.Employee{ID: "e", SkillDeltas: []store.SkillDelta{
			{PreviousScore: 0, NewScore: 100}, // outside the window
			{PreviousScore: 50, NewScore: 55},
			{PreviousScore: 55, NewScore: 60},
			{PreviousScore: 60, NewScore: 65},
			{PreviousScore: 65, NewScore: 70},
			{PreviousScore: 70, NewScore: 75},
		}}
		// avg delta 5 -> 50 + 10
		assert.InDelta(t, 60.0, ProgressionFactor(emp), 1e-9)
	})

	t.Run("clamped", func(t *testing.T) {
		emp := &store.Employee{ID: "e", SkillDeltas: []store.SkillDelta{{PreviousScore: 90, NewScore: 10}}}
		assert.Equal(t, 0.0, ProgressionFactor(emp))
	})
}

func TestExperienceFactor(t *testing.T) {
	act := referenceActivity()

	t.Run("base capped at 50", func(t *testing.T) {
		emp := &store.Employee{ID: "e", YearsOfExperience: 20}
		assert.Equal(t, 50.0, ExperienceFactor(emp, act))
	})

	t.Run("relevant history adds bonus", func(t *testing.T) {
		emp := &store.Employee{ID: "e", YearsOfExperience: 2, History: []store.ActivityRecord{
			{ActivityID: "old", Type: store.ActivityTraining, Status: store.RecordCompleted,
				Dates: store.DateRange{Start: date(2020, 1, 1), End: date(2022, 1, 1)}},
			{ActivityID: "other", Type: store.ActivityAudit, Status: store.RecordCompleted,
				Dates: store.DateRange{Start: date(2019, 1, 1), End: date(2023, 1, 1)}},
		}}
		got := ExperienceFactor(emp, act)
		// 10 base + ~2 years * 10
		assert.InDelta(t, 30.0, got, 0.1)
	})
}

func TestCalculateScoreReferenceExample(t *testing.T) {
	emp := &store.Employee{
		ID:                "e1",
		YearsOfExperience: 5,
		Skills: []store.EmployeeSkill{
			{SkillID: "A", Level: store.LevelExpert, Score: 90},
			{SkillID: "B", Level: store.LevelLow, Score: 30},
		},
	}

	b, err := CalculateScore(emp, referenceActivity(), DefaultWeights())
	require.NoError(t, err)

	assert.InDelta(t, 74.0, b.SkillScore, 1e-9)
	assert.InDelta(t, 25.0, b.ExperienceScore, 1e-9)
	assert.InDelta(t, 50.0, b.ProgressionScore, 1e-9)
	assert.InDelta(t, 80.0, b.ContextScore, 1e-9)
	assert.InDelta(t, 61.5, b.TotalScore, 1e-9)
}

func TestAssessMissingMandatorySkill(t *testing.T) {
	emp := &store.Employee{
		ID:                "e2",
		YearsOfExperience: 10,
		Skills:            []store.EmployeeSkill{{SkillID: "B", Level: store.LevelExpert, Score: 99}},
	}

	c, err := Assess(emp, referenceActivity(), DefaultWeights())
	require.NoError(t, err)

	assert.False(t, c.Eligible)
	assert.Equal(t, 0.0, c.Breakdown.TotalScore)
	require.Len(t, c.Violations, 1)
	assert.Equal(t, CodeMissingMandatorySkill, c.Violations[0].Code)
	assert.Contains(t, c.Violations[0].Message, "A")
	assert.True(t, c.Violations[0].Hard)
}

func TestAssessMissingOptionalSkillLeavesDenominator(t *testing.T) {
	emp := &store.Employee{
		ID:     "e3",
		Skills: []store.EmployeeSkill{{SkillID: "A", Level: store.LevelHigh, Score: 80}},
	}
	c, err := Assess(emp, referenceActivity(), DefaultWeights())
	require.NoError(t, err)
	assert.True(t, c.Eligible)
	assert.InDelta(t, 100.0, c.Breakdown.SkillScore, 1e-9)
}

func TestAssessNoRequirementsScoresZeroSkill(t *testing.T) {
	act := &store.Activity{ID: "free", TargetLevel: store.LevelLow, AvailableSeats: 1}
	emp := &store.Employee{ID: "e", Skills: []store.EmployeeSkill{{SkillID: "x", Level: store.LevelLow}}}
	c, err := Assess(emp, act, DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Breakdown.SkillScore)
	assert.True(t, c.Eligible)
}

func TestAssessMinScoreOnlyFlags(t *testing.T) {
	act := &store.Activity{
		ID: "act", TargetLevel: store.LevelHigh, AvailableSeats: 1,
		RequiredSkills: []store.SkillRequirement{
			{SkillID: "A", RequiredLevel: store.LevelHigh, Weight: 1, MinScore: float64Ptr(80)},
		},
	}
	emp := &store.Employee{ID: "e", Skills: []store.EmployeeSkill{{SkillID: "A", Level: store.LevelExpert, Score: 40}}}
	c, err := Assess(emp, act, DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.Matches[0].LevelScore)
	assert.True(t, c.Matches[0].BelowMin)
	assert.InDelta(t, 100.0, c.Breakdown.SkillScore, 1e-9)

	emp.Skills[0].Score = 85
	c, err = Assess(emp, act, DefaultWeights())
	require.NoError(t, err)
	assert.False(t, c.Matches[0].BelowMin)
}

func TestAssessMalformedEmployee(t *testing.T) {
	emp := &store.Employee{
		ID: "bad",
		Skills: []store.EmployeeSkill{
			{SkillID: "A", Level: store.LevelHigh, Score: 150},
		},
	}
	c, err := Assess(emp, referenceActivity(), DefaultWeights())
	require.NoError(t, err, "per-candidate errors must not abort scoring")
	assert.Error(t, c.Err)
	assert.False(t, c.Eligible)
	assert.True(t, c.HasViolation(CodeInvalidProfile))
}

func TestTotalScoreBounded(t *testing.T) {
	levels := []store.SkillLevel{store.LevelLow, store.LevelMedium, store.LevelHigh, store.LevelExpert}
	act := referenceActivity()
	for _, la := range levels {
		for _, lb := range levels {
			for _, years := range []float64{0, 3, 40} {
				emp := &store.Employee{
					ID:                "e",
					YearsOfExperience: years,
					Skills: []store.EmployeeSkill{
						{SkillID: "A", Level: la, Score: 100},
						{SkillID: "B", Level: lb, Score: 0},
					},
					SkillDeltas: []store.SkillDelta{{PreviousScore: 0, NewScore: 100}},
				}
				b, err := CalculateScore(emp, act, DefaultWeights())
				require.NoError(t, err)
				for _, v := range []float64{b.SkillScore, b.ExperienceScore, b.ProgressionScore, b.ContextScore, b.TotalScore} {
					if v < 0 || v > 100 {
						t.Fatalf("score %f out of bounds for %v/%v/%v", v, la, lb, years)
					}
				}
			}
		}
	}
}

func TestBreakdownFactors(t *testing.T) {
	b := ScoreBreakdown{SkillScore: 80, ExperienceScore: 50, ProgressionScore: 50, ContextScore: 100}
	factors := b.Factors(DefaultWeights())
	require.Len(t, factors, 4)
	var sum float64
	for _, f := range factors {
		sum += f.Weighted
	}
	assert.InDelta(t, 72.5, sum, 1e-9)
}
