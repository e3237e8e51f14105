// Package recommend assembles scoring, constraint evaluation, strategy ordering
// and seat truncation into a ranked, explained recommendation result.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Matcher/internal/constraints"
	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
	"github.com/MikeSquared-Agency/Matcher/internal/strategy"
)

// Options configures one recommendation request. Weights are passed per call.
type Options struct {
	Weights     scoring.WeightSet  `json:"weights"`
	Strategy    string             `json:"strategy"`
	Params      strategy.Params    `json:"params"`
	Constraints constraints.Config `json:"constraints"`

	Pareto        bool                `json:"pareto,omitempty"`
	Objectives    []scoring.Objective `json:"objectives,omitempty"`
	ParetoTimeout time.Duration       `json:"-"`
}

// DefaultOptions returns the default weights, the balanced strategy and the
// default constraint set.
func DefaultOptions() Options {
	return Options{
		Weights:     scoring.DefaultWeights(),
		Strategy:    string(strategy.Balanced),
		Params:      strategy.Params{ExpertFraction: strategy.DefaultExpertFraction},
		Constraints: constraints.DefaultConfig(),
	}
}

// Recommendation is one candidate as presented to callers.
type Recommendation struct {
	EmployeeID    string                 `json:"employee_id"`
	Name          string                 `json:"name,omitempty"`
	Department    string                 `json:"department,omitempty"`
	TotalScore    float64                `json:"total_score"`
	StrategyScore float64                `json:"strategy_score"`
	Breakdown     scoring.ScoreBreakdown `json:"breakdown"`
	Factors       []scoring.FactorResult `json:"factors,omitempty"`
	Rank          int                    `json:"rank,omitempty"`
	Role          string                 `json:"role,omitempty"`
	Reasoning     []string               `json:"reasoning"`
	Eligible      bool                   `json:"eligible"`
	Violations    []scoring.Violation    `json:"violations,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// Stats aggregates one run.
type Stats struct {
	TotalCandidates int     `json:"total_candidates"`
	Qualified       int     `json:"qualified"`
	Recommended     int     `json:"recommended"`
	Alternatives    int     `json:"alternatives"`
	Disqualified    int     `json:"disqualified"`
	Errors          int     `json:"errors"`
	OpenSeats       int     `json:"open_seats"`
	AverageScore    float64 `json:"average_score"`
}

// ParetoEntry is one member of the optional Pareto view.
type ParetoEntry struct {
	EmployeeID string    `json:"employee_id"`
	Vector     []float64 `json:"vector"`
}

// ParetoView is the non-dominated subset of the eligible candidates.
type ParetoView struct {
	Objectives []scoring.Objective `json:"objectives"`
	Front      []ParetoEntry       `json:"front,omitempty"`
	Cancelled  bool                `json:"cancelled,omitempty"`
	Duration   time.Duration       `json:"duration_ns"`
}

// Result is the full output for one activity.
type Result struct {
	ActivityID      string           `json:"activity_id"`
	Strategy        strategy.Name    `json:"strategy"`
	Recommendations []Recommendation `json:"recommendations"`
	Alternatives    []Recommendation `json:"alternatives"`
	Ineligible      []Recommendation `json:"ineligible"`
	Stats           Stats            `json:"stats"`
	Pareto          *ParetoView      `json:"pareto,omitempty"`
	ScoringDuration time.Duration    `json:"scoring_duration_ns"`
}

// Assembler runs the engine over resident snapshots. It holds no per-request
// state and is safe for concurrent use.
type Assembler struct {
	logger  *slog.Logger
	workers int
}

// New creates an assembler. workers <= 0 means GOMAXPROCS.
func New(logger *slog.Logger, workers int) *Assembler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Assembler{logger: logger, workers: workers}
}

// Score computes candidates for every employee in parallel shards and merges
// them back in input order. Malformed employees yield annotated candidates;
// only invalid weights or cancellation fail the call.
func (a *Assembler) Score(ctx context.Context, act *store.Activity, emps []*store.Employee, w scoring.WeightSet) ([]scoring.Candidate, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	out := make([]scoring.Candidate, len(emps))
	if len(emps) == 0 {
		return out, nil
	}

	shards := a.workers
	if shards > len(emps) {
		shards = len(emps)
	}
	size := (len(emps) + shards - 1) / shards

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(emps); lo += size {
		hi := lo + size
		if hi > len(emps) {
			hi = len(emps)
		}
		lo := lo
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				// Each shard writes only its own index range.
				out[i] = scoring.ScoreOne(emps[i], act, w)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Recommend runs the whole pipeline for one activity.
func (a *Assembler) Recommend(ctx context.Context, act *store.Activity, emps []*store.Employee, opts Options) (*Result, error) {
	if act == nil {
		return nil, &scoring.ValidationError{Field: "activity", Reason: "missing"}
	}
	if err := act.Validate(); err != nil {
		return nil, &scoring.ValidationError{Field: "activity", Reason: err.Error()}
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	name, err := strategy.ParseName(opts.Strategy)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cands, err := a.Score(ctx, act, emps, opts.Weights)
	if err != nil {
		return nil, fmt.Errorf("scoring activity %s: %w", act.ID, err)
	}
	for _, c := range cands {
		if c.Err != nil {
			a.logger.Warn("malformed employee record", "activity_id", act.ID, "employee_id", c.EmployeeID, "error", c.Err)
		}
	}

	evaluated := constraints.Apply(cands, act, opts.Constraints)

	params := opts.Params
	if params.Seats == 0 {
		params.Seats = act.OpenSeats()
	}
	ordered, err := strategy.Optimize(evaluated.Eligible, act, name, params)
	if err != nil {
		return nil, err
	}
	selected, rest := constraints.Truncate(ordered, act)

	res := &Result{
		ActivityID:      act.ID,
		Strategy:        name,
		Recommendations: make([]Recommendation, 0, len(selected)),
		Alternatives:    make([]Recommendation, 0, len(rest)),
		Ineligible:      []Recommendation{},
	}
	for i, c := range selected {
		c.Rank = i + 1
		res.Recommendations = append(res.Recommendations, present(c, act, opts.Weights))
	}
	for i, c := range rest {
		c.Rank = len(selected) + i + 1
		res.Alternatives = append(res.Alternatives, present(c, act, opts.Weights))
	}
	for _, c := range scoring.BreakTies(evaluated.All) {
		if !c.Eligible {
			res.Ineligible = append(res.Ineligible, present(c, act, opts.Weights))
		}
	}
	res.ScoringDuration = time.Since(start)
	res.Stats = stats(evaluated.All, res, act)

	if opts.Pareto {
		view, err := a.pareto(ctx, ordered, opts)
		if err != nil {
			return nil, err
		}
		res.Pareto = view
	}
	return res, nil
}

// pareto computes the front under ParetoTimeout. A timeout marks the view
// cancelled; cancellation of the parent context fails the request.
func (a *Assembler) pareto(ctx context.Context, eligible []scoring.Candidate, opts Options) (*ParetoView, error) {
	objectives := opts.Objectives
	if len(objectives) == 0 {
		objectives = scoring.DefaultObjectives()
	}
	pctx := ctx
	if opts.ParetoTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, opts.ParetoTimeout)
		defer cancel()
	}

	start := time.Now()
	front, err := scoring.ParetoFront(pctx, eligible, objectives)
	view := &ParetoView{Objectives: objectives, Duration: time.Since(start)}
	switch {
	case err == nil:
	case ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded):
		a.logger.Warn("pareto front timed out", "candidates", len(eligible), "timeout", opts.ParetoTimeout)
		view.Cancelled = true
		return view, nil
	default:
		return nil, err
	}

	view.Front = make([]ParetoEntry, 0, len(front))
	for _, m := range front {
		view.Front = append(view.Front, ParetoEntry{EmployeeID: m.Candidate.EmployeeID, Vector: m.Vector})
	}
	return view, nil
}

func present(c scoring.Candidate, act *store.Activity, w scoring.WeightSet) Recommendation {
	r := Recommendation{
		EmployeeID:    c.EmployeeID,
		TotalScore:    c.Breakdown.TotalScore,
		StrategyScore: c.StrategyScore,
		Breakdown:     c.Breakdown,
		Rank:          c.Rank,
		Role:          c.Role,
		Reasoning:     Reasoning(c, act),
		Eligible:      c.Eligible,
		Violations:    c.Violations,
	}
	if c.Employee != nil {
		r.Name = c.Employee.Name
		r.Department = c.Employee.Department
	}
	if c.Err == nil {
		r.Factors = c.Breakdown.Factors(w)
	} else {
		r.Error = c.Err.Error()
	}
	return r
}

func stats(all []scoring.Candidate, res *Result, act *store.Activity) Stats {
	s := Stats{
		TotalCandidates: len(all),
		Recommended:     len(res.Recommendations),
		Alternatives:    len(res.Alternatives),
		Disqualified:    len(res.Ineligible),
		OpenSeats:       act.OpenSeats(),
	}
	var sum float64
	for _, c := range all {
		if c.Eligible {
			s.Qualified++
			sum += c.Breakdown.TotalScore
		}
		if c.Err != nil {
			s.Errors++
		}
	}
	if s.Qualified > 0 {
		s.AverageScore = sum / float64(s.Qualified)
	}
	return s
}
