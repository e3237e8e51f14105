package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/Matcher/internal/matching"
	"github.com/MikeSquared-Agency/Matcher/internal/metrics"
)

func NewRouter(svc *matching.Service, m *metrics.Manager, rateLimit int, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware(m))
	r.Use(RateLimitMiddleware(rateLimit))

	recs := NewRecommendationsHandler(svc)
	engine := NewEngineHandler(svc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommendations", recs.Inline)
		r.Get("/recommendations/{run_id}", recs.GetRun)
		r.Post("/recommendations/batch", recs.Batch)
		r.Post("/recommendations/refresh", recs.Refresh)

		r.Post("/activities/{id}/recommendations", recs.ForActivity)
		r.Get("/activities/{id}/recommendations", recs.ListRuns)

		r.Post("/scores", engine.Scores)
		r.Post("/pareto", engine.Pareto)
		r.Get("/strategies", engine.Strategies)
	})

	return r
}

// NewMetricsRouter serves /health and /metrics from the manager's registry.
func NewMetricsRouter(m *metrics.Manager) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", m.Handler())
	return r
}
