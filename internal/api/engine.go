package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Matcher/internal/matching"
	"github.com/MikeSquared-Agency/Matcher/internal/recommend"
	"github.com/MikeSquared-Agency/Matcher/internal/strategy"
)

// EngineHandler exposes the stateless engine stages for inline snapshots.
type EngineHandler struct {
	svc *matching.Service
}

func NewEngineHandler(svc *matching.Service) *EngineHandler {
	return &EngineHandler{svc: svc}
}

func (h *EngineHandler) options(w http.ResponseWriter, r *http.Request) (*SnapshotRequest, recommend.Options, bool) {
	var req SnapshotRequest
	if !decodeBody(w, r, &req, false) {
		return nil, recommend.Options{}, false
	}
	if msg := req.check(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return nil, recommend.Options{}, false
	}
	opts, err := req.Overrides.Apply(h.svc.Defaults())
	if err != nil {
		writeError(w, err)
		return nil, recommend.Options{}, false
	}
	return &req, opts, true
}

// Scores returns the breakdown and constraint outcome for every employee.
// POST /api/v1/scores
func (h *EngineHandler) Scores(w http.ResponseWriter, r *http.Request) {
	req, opts, ok := h.options(w, r)
	if !ok {
		return
	}
	recs, err := h.svc.Assembler().Evaluate(r.Context(), req.Activity, req.Employees, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// Pareto returns the non-dominated eligible candidates.
// POST /api/v1/pareto
func (h *EngineHandler) Pareto(w http.ResponseWriter, r *http.Request) {
	req, opts, ok := h.options(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Assembler().Pareto(r.Context(), req.Activity, req.Employees, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GET /api/v1/strategies
func (h *EngineHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"default":    h.svc.Defaults().Strategy,
		"strategies": strategy.Catalog(),
	})
}
