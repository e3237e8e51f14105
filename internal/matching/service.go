// Package matching runs the recommendation engine against the store, persists
// each run and publishes the outcome on hermes.
package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Matcher/internal/config"
	"github.com/MikeSquared-Agency/Matcher/internal/constraints"
	"github.com/MikeSquared-Agency/Matcher/internal/hermes"
	"github.com/MikeSquared-Agency/Matcher/internal/metrics"
	"github.com/MikeSquared-Agency/Matcher/internal/recommend"
	"github.com/MikeSquared-Agency/Matcher/internal/scoring"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
	"github.com/MikeSquared-Agency/Matcher/internal/strategy"
)

// maxParallelActivities bounds RecommendMany fan-out.
const maxParallelActivities = 4

type Service struct {
	store     store.Store
	hermes    hermes.Client
	metrics   *metrics.Manager
	assembler *recommend.Assembler
	defaults  recommend.Options
	interval  time.Duration
	logger    *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// OptionsFromConfig converts the scoring and constraint sections into engine
// options, failing on invalid weights, strategy or objective names.
func OptionsFromConfig(cfg *config.Config) (recommend.Options, error) {
	w := scoring.WeightSet{
		Skill:       cfg.Scoring.Weights.Skill,
		Experience:  cfg.Scoring.Weights.Experience,
		Progression: cfg.Scoring.Weights.Progression,
		Context:     cfg.Scoring.Weights.Context,
	}
	if err := w.Validate(); err != nil {
		return recommend.Options{}, err
	}
	name, err := strategy.ParseName(cfg.Scoring.DefaultStrategy)
	if err != nil {
		return recommend.Options{}, err
	}
	objectives, err := scoring.ParseObjectives(cfg.Scoring.ParetoObjectives)
	if err != nil {
		return recommend.Options{}, err
	}
	return recommend.Options{
		Weights:  w,
		Strategy: string(name),
		Params:   strategy.Params{ExpertFraction: cfg.Scoring.ExpertFraction},
		Constraints: constraints.Config{
			CheckMandatory:    cfg.Constraints.CheckMandatory,
			CheckAvailability: cfg.Constraints.CheckAvailability,
			DepartmentLimit:   cfg.Constraints.DepartmentLimit,
			DepartmentPenalty: cfg.Constraints.DepartmentPenalty,
		},
		Pareto:        cfg.Scoring.ParetoEnabled,
		Objectives:    objectives,
		ParetoTimeout: cfg.ParetoTimeout(),
	}, nil
}

// New wires the service. h and m may be nil.
func New(s store.Store, h hermes.Client, m *metrics.Manager, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	defaults, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:     s,
		hermes:    h,
		metrics:   m,
		assembler: recommend.New(logger, cfg.Scoring.Workers),
		defaults:  defaults,
		interval:  cfg.RefreshInterval(),
		logger:    logger,
		stopCh:    make(chan struct{}),
	}, nil
}

// Defaults returns a copy of the configured engine options.
func (s *Service) Defaults() recommend.Options {
	opts := s.defaults
	opts.Objectives = append([]scoring.Objective(nil), s.defaults.Objectives...)
	return opts
}

// Assembler exposes the engine for stateless requests.
func (s *Service) Assembler() *recommend.Assembler { return s.assembler }

// Outcome is a persisted run together with the full engine result.
type Outcome struct {
	Run    *store.RecommendationRun `json:"run"`
	Result *recommend.Result        `json:"result"`
}

// Recommend ranks the stored roster for one activity, persists the run and
// publishes a completion event.
func (s *Service) Recommend(ctx context.Context, activityID string, ov Overrides) (*Outcome, error) {
	opts, err := ov.Apply(s.Defaults())
	if err != nil {
		return nil, err
	}

	act, err := s.store.GetActivity(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("load activity %s: %w", activityID, err)
	}
	emps, err := s.store.ListEmployees(ctx, store.EmployeeFilter{})
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}

	res, err := s.Run(ctx, act, emps, opts)
	if err != nil {
		s.publish(hermes.SubjectRecommendationFailed(activityID), hermes.RecommendationFailedEvent{
			ActivityID: activityID,
			Strategy:   opts.Strategy,
			Error:      err.Error(),
		})
		return nil, err
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	run := &store.RecommendationRun{
		ID:         uuid.New(),
		ActivityID: act.ID,
		Strategy:   string(res.Strategy),
		Qualified:  res.Stats.Qualified,
		Selected:   res.Stats.Recommended,
		Result:     payload,
	}
	if err := s.store.SaveRecommendationRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	selected := make([]string, 0, len(res.Recommendations))
	for _, r := range res.Recommendations {
		selected = append(selected, r.EmployeeID)
	}
	s.publish(hermes.SubjectRecommendationCompleted(act.ID), hermes.RecommendationCompletedEvent{
		RunID:       run.ID.String(),
		ActivityID:  act.ID,
		Strategy:    run.Strategy,
		Selected:    selected,
		Qualified:   res.Stats.Qualified,
		Candidates:  res.Stats.TotalCandidates,
		OpenSeats:   res.Stats.OpenSeats,
		CompletedAt: run.CreatedAt,
	})

	s.logger.Info("recommendation completed",
		"run_id", run.ID,
		"activity_id", act.ID,
		"strategy", run.Strategy,
		"candidates", res.Stats.TotalCandidates,
		"qualified", res.Stats.Qualified,
		"selected", res.Stats.Recommended,
	)
	return &Outcome{Run: run, Result: res}, nil
}

// Run executes the engine on caller-supplied data and records metrics. Nothing is persisted.
func (s *Service) Run(ctx context.Context, act *store.Activity, emps []*store.Employee, opts recommend.Options) (*recommend.Result, error) {
	res, err := s.assembler.Recommend(ctx, act, emps, opts)
	if err != nil {
		s.metrics.RunFailed(opts.Strategy)
		return nil, err
	}
	s.metrics.ObserveRun(summarize(res))
	return res, nil
}

func summarize(res *recommend.Result) metrics.RunSummary {
	sum := metrics.RunSummary{
		Strategy:    string(res.Strategy),
		Duration:    res.ScoringDuration,
		Candidates:  res.Stats.TotalCandidates,
		Recommended: res.Stats.Recommended,
	}
	for _, r := range res.Ineligible {
		for _, v := range r.Violations {
			if v.Hard {
				sum.Reasons = append(sum.Reasons, v.Code)
			}
		}
	}
	if res.Pareto != nil {
		sum.Pareto = true
		sum.ParetoTime = res.Pareto.Duration
		sum.ParetoTimedOut = res.Pareto.Cancelled
	}
	return sum
}

// BatchItem is one activity's outcome within RecommendMany.
type BatchItem struct {
	ActivityID string   `json:"activity_id"`
	Outcome    *Outcome `json:"outcome,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// RecommendMany runs independent activities concurrently. A failing activity
// is reported in its item and does not stop the others; only ctx cancellation
// fails the call.
func (s *Service) RecommendMany(ctx context.Context, activityIDs []string, ov Overrides) ([]BatchItem, error) {
	items := make([]BatchItem, len(activityIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelActivities)
	for i, id := range activityIDs {
		i, id := i, id
		g.Go(func() error {
			items[i].ActivityID = id
			out, err := s.Recommend(gctx, id, ov)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				items[i].Error = err.Error()
				return nil
			}
			items[i].Outcome = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetRun returns a stored run.
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*store.RecommendationRun, error) {
	return s.store.GetRecommendationRun(ctx, id)
}

// ListRuns returns stored runs, newest first.
func (s *Service) ListRuns(ctx context.Context, activityID string, limit int) ([]*store.RecommendationRun, error) {
	return s.store.ListRecommendationRuns(ctx, activityID, limit)
}

func (s *Service) publish(subject string, event interface{}) {
	if s.hermes == nil {
		return
	}
	err := s.hermes.Publish(subject, event)
	s.metrics.EventPublished(err)
	if err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
