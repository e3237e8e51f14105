package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Matcher/internal/matching"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

const (
	maxBodyBytes    = 8 << 20
	defaultRunLimit = 20
)

type RecommendationsHandler struct {
	svc *matching.Service
}

func NewRecommendationsHandler(svc *matching.Service) *RecommendationsHandler {
	return &RecommendationsHandler{svc: svc}
}

// SnapshotRequest carries an activity and its candidate roster inline,
// plus optional overrides of the configured options.
type SnapshotRequest struct {
	Activity  *store.Activity   `json:"activity"`
	Employees []*store.Employee `json:"employees"`
	matching.Overrides
}

func (req *SnapshotRequest) check() string {
	if req.Activity == nil {
		return "activity required"
	}
	return ""
}

// Inline ranks a caller-supplied snapshot without persisting anything.
// POST /api/v1/recommendations
func (h *RecommendationsHandler) Inline(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if msg := req.check(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	opts, err := req.Overrides.Apply(h.svc.Defaults())
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.Run(r.Context(), req.Activity, req.Employees, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ForActivity ranks the stored roster for one activity and persists the run.
// POST /api/v1/activities/{id}/recommendations
func (h *RecommendationsHandler) ForActivity(w http.ResponseWriter, r *http.Request) {
	var ov matching.Overrides
	if !decodeBody(w, r, &ov, true) {
		return
	}
	out, err := h.svc.Recommend(r.Context(), chi.URLParam(r, "id"), ov)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// ListRuns returns stored runs for an activity, newest first.
// GET /api/v1/activities/{id}/recommendations?limit=N
func (h *RecommendationsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	runs, err := h.svc.ListRuns(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*store.RecommendationRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun returns one stored run with its full result and reasoning.
// GET /api/v1/recommendations/{run_id}
func (h *RecommendationsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "run_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run_id"})
		return
	}
	run, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type BatchRequest struct {
	ActivityIDs []string `json:"activity_ids"`
	matching.Overrides
}

// Batch ranks several stored activities concurrently.
// POST /api/v1/recommendations/batch
func (h *RecommendationsHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if len(req.ActivityIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "activity_ids required"})
		return
	}
	if _, err := req.Overrides.Apply(h.svc.Defaults()); err != nil {
		writeError(w, err)
		return
	}
	items, err := h.svc.RecommendMany(r.Context(), req.ActivityIDs, req.Overrides)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Refresh re-ranks every activity with open seats.
// POST /api/v1/recommendations/refresh
func (h *RecommendationsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.svc.RefreshOpen(r.Context())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshed"})
}

// decodeBody reads a JSON body into v. An empty body is accepted when optional.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	return false
}
