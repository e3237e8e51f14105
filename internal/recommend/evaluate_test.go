package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

func TestEvaluateOrdersAllCandidates(t *testing.T) {
	senior := referenceEmployee("senior")
	senior.YearsOfExperience = 10
	junior := referenceEmployee("junior")
	junior.YearsOfExperience = 1
	missing := referenceEmployee("missing")
	missing.Skills = missing.Skills[1:]

	recs, err := New(discardLogger(), 2).Evaluate(context.Background(), referenceActivity(1),
		[]*store.Employee{junior, missing, senior}, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, []string{"senior", "junior", "missing"}, recIDs(recs))
	for i, r := range recs {
		assert.Equal(t, i+1, r.Rank)
		assert.NotEmpty(t, r.Reasoning)
	}
	assert.False(t, recs[2].Eligible)
	assert.Equal(t, 0.0, recs[2].TotalScore)
	assert.Equal(t, recs[0].TotalScore, recs[0].StrategyScore)
}

func TestEvaluateRejectsInvalidActivity(t *testing.T) {
	_, err := New(discardLogger(), 1).Evaluate(context.Background(), &store.Activity{ID: "x"}, nil, DefaultOptions())
	assert.ErrorIs(t, err, scoring.ErrValidation)

	_, err = New(discardLogger(), 1).Evaluate(context.Background(), nil, nil, DefaultOptions())
	assert.ErrorIs(t, err, scoring.ErrValidation)
}

func TestParetoOnly(t *testing.T) {
	strong := referenceEmployee("strong")
	strong.YearsOfExperience = 10
	climber := referenceEmployee("climber")
	climber.YearsOfExperience = 1
	climber.SkillDeltas = []store.SkillDelta{{PreviousScore: 40, NewScore: 60}}
	missing := referenceEmployee("missing")
	missing.Skills = missing.Skills[1:]
	missing.SkillDeltas = []store.SkillDelta{{PreviousScore: 0, NewScore: 100}}

	view, err := New(discardLogger(), 2).Pareto(context.Background(), referenceActivity(1),
		[]*store.Employee{strong, climber, missing}, DefaultOptions())
	require.NoError(t, err)

	front := map[string]bool{}
	for _, e := range view.Front {
		front[e.EmployeeID] = true
	}
	assert.Equal(t, map[string]bool{"strong": true, "climber": true}, front)
	assert.Equal(t, scoring.DefaultObjectives(), view.Objectives)
}
