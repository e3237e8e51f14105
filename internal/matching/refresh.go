package matching

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MikeSquared-Agency/Matcher/internal/hermes"
)

// Start launches the refresh loop when an interval is configured.
func (s *Service) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.wg.Add(1)
	go s.refreshLoop(ctx)
}

// Stop ends the refresh loop and waits for it. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Service) refreshLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RefreshOpen(ctx)
		}
	}
}

// RefreshOpen re-ranks every activity that still has open seats.
func (s *Service) RefreshOpen(ctx context.Context) {
	start := time.Now()
	acts, err := s.store.ListOpenActivities(ctx)
	if err != nil {
		s.logger.Error("failed to list open activities", "error", err)
		return
	}
	if len(acts) == 0 {
		return
	}

	ids := make([]string, len(acts))
	for i, a := range acts {
		ids[i] = a.ID
	}
	items, err := s.RecommendMany(ctx, ids, Overrides{})
	if err != nil {
		s.logger.Warn("refresh interrupted", "error", err)
		return
	}

	failed := 0
	for _, it := range items {
		if it.Error != "" {
			failed++
			s.logger.Warn("refresh failed for activity", "activity_id", it.ActivityID, "error", it.Error)
		}
	}
	s.logger.Info("refreshed open activities", "count", len(items), "failed", failed)
	s.publish(hermes.SubjectRefreshStats, hermes.RefreshStatsEvent{
		Activities: len(items),
		Failed:     failed,
		DurationMs: time.Since(start).Milliseconds(),
		Timestamp:  time.Now(),
	})
}

// SetupSubscriptions re-ranks activities when upstream reports a change.
func (s *Service) SetupSubscriptions() {
	if s.hermes == nil {
		return
	}

	_ = s.hermes.Subscribe(hermes.SubjectActivityChanged, func(subject string, data []byte) {
		var evt hermes.ActivityChangedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			s.logger.Warn("invalid activity changed event", "subject", subject, "error", err)
			return
		}
		if evt.ActivityID == "" {
			return
		}
		if _, err := s.Recommend(context.Background(), evt.ActivityID, Overrides{}); err != nil {
			s.logger.Warn("re-rank after activity change failed", "activity_id", evt.ActivityID, "error", err)
		}
	})

	_ = s.hermes.Subscribe(hermes.SubjectRosterChanged, func(_ string, _ []byte) {
		s.logger.Info("roster changed, refreshing open activities")
		s.RefreshOpen(context.Background())
	})
}
