package scoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paretoCandidate(id string, skill, exp, prog, ctx float64) Candidate {
	return Candidate{
		EmployeeID: id,
		Eligible:   true,
		Breakdown: ScoreBreakdown{
			SkillScore:       skill,
			ExperienceScore:  exp,
			ProgressionScore: prog,
			ContextScore:     ctx,
		},
	}
}

func TestParetoFront(t *testing.T) {
	candidates := []Candidate{
		paretoCandidate("a", 90, 80, 70, 80),
		paretoCandidate("b", 70, 90, 80, 70),
		paretoCandidate("c", 50, 50, 50, 50), // dominated by a and b
	}

	front, err := ParetoFront(context.Background(), candidates, nil)
	require.NoError(t, err)

	got := map[string]bool{}
	for _, m := range front {
		got[m.Candidate.EmployeeID] = true
		assert.Len(t, m.Vector, 4)
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, got)
}

func TestParetoFrontSingleCandidate(t *testing.T) {
	front, err := ParetoFront(context.Background(), []Candidate{paretoCandidate("only", 1, 1, 1, 1)}, nil)
	require.NoError(t, err)
	assert.Len(t, front, 1)
}

func TestParetoFrontEqualVectorsBothSurvive(t *testing.T) {
	front, err := ParetoFront(context.Background(), []Candidate{
		paretoCandidate("a", 5, 5, 5, 5),
		paretoCandidate("b", 5, 5, 5, 5),
	}, nil)
	require.NoError(t, err)
	assert.Len(t, front, 2)
}

func TestParetoFrontProperties(t *testing.T) {
	var cands []Candidate
	for i := 0; i < 40; i++ {
		cands = append(cands, paretoCandidate(
			fmt.Sprintf("e%02d", i),
			float64((i*37)%100), float64((i*53)%100), float64((i*17)%100), float64((i*71)%100),
		))
	}
	objectives := DefaultObjectives()
	front, err := ParetoFront(context.Background(), cands, objectives)
	require.NoError(t, err)
	require.NotEmpty(t, front)

	inFront := map[string][]float64{}
	for _, m := range front {
		inFront[m.Candidate.EmployeeID] = m.Vector
	}

	for _, m := range front {
		for _, c := range cands {
			v, _ := Vector(c, objectives)
			assert.False(t, Dominates(v, m.Vector), "%s dominated by %s", m.Candidate.EmployeeID, c.EmployeeID)
		}
	}
	for _, c := range cands {
		if _, ok := inFront[c.EmployeeID]; ok {
			continue
		}
		v, _ := Vector(c, objectives)
		dominated := false
		for _, fv := range inFront {
			if Dominates(fv, v) {
				dominated = true
				break
			}
		}
		assert.True(t, dominated, "%s is off the front but no front member dominates it", c.EmployeeID)
	}
}

func TestParetoFrontCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	front, err := ParetoFront(ctx, []Candidate{paretoCandidate("a", 1, 1, 1, 1), paretoCandidate("b", 2, 2, 2, 2)}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, front)
}

func TestParseObjectives(t *testing.T) {
	objs, err := ParseObjectives([]string{"Skill", " total "})
	require.NoError(t, err)
	assert.Equal(t, []Objective{ObjectiveSkill, ObjectiveTotal}, objs)

	_, err = ParseObjectives([]string{"charisma"})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDominates(t *testing.T) {
	assert.True(t, Dominates([]float64{2, 2}, []float64{1, 2}))
	assert.False(t, Dominates([]float64{2, 2}, []float64{2, 2}))
	assert.False(t, Dominates([]float64{3, 1}, []float64{1, 3}))
	assert.False(t, Dominates([]float64{3}, []float64{1, 3}))
}
