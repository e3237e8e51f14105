package recommend

import (
	"context"
	"fmt"

	"github.com/MikeSquared-Agency/Matcher/internal/constraints"
	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

// evaluate scores and constrains the roster without applying a strategy.
func (a *Assembler) evaluate(ctx context.Context, act *store.Activity, emps []*store.Employee, opts Options) (constraints.Result, error) {
	if act == nil {
		return constraints.Result{}, &scoring.ValidationError{Field: "activity", Reason: "missing"}
	}
	if err := act.Validate(); err != nil {
		return constraints.Result{}, &scoring.ValidationError{Field: "activity", Reason: err.Error()}
	}
	cands, err := a.Score(ctx, act, emps, opts.Weights)
	if err != nil {
		return constraints.Result{}, fmt.Errorf("scoring activity %s: %w", act.ID, err)
	}
	return constraints.Apply(cands, act, opts.Constraints), nil
}

// Evaluate returns every candidate with its breakdown, violations and
// reasoning, ordered by total score with ties broken.
func (a *Assembler) Evaluate(ctx context.Context, act *store.Activity, emps []*store.Employee, opts Options) ([]Recommendation, error) {
	res, err := a.evaluate(ctx, act, emps, opts)
	if err != nil {
		return nil, err
	}
	ordered := scoring.BreakTies(res.All)
	out := make([]Recommendation, len(ordered))
	for i, c := range ordered {
		c.Rank = i + 1
		c.StrategyScore = c.Breakdown.TotalScore - c.Penalty
		out[i] = present(c, act, opts.Weights)
	}
	return out, nil
}

// Pareto computes only the Pareto view over the eligible candidates.
func (a *Assembler) Pareto(ctx context.Context, act *store.Activity, emps []*store.Employee, opts Options) (*ParetoView, error) {
	res, err := a.evaluate(ctx, act, emps, opts)
	if err != nil {
		return nil, err
	}
	return a.pareto(ctx, scoring.BreakTies(res.Eligible), opts)
}
