package store

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Snapshot is a resident roster: every activity and employee the engine may need.
type Snapshot struct {
	Activities []*Activity `json:"activities" yaml:"activities"`
	Employees  []*Employee `json:"employees" yaml:"employees"`
}

// LoadSnapshot reads a YAML (or JSON) snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}

// MemoryStore serves a snapshot from memory. Used by the offline CLI and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	activities map[string]*Activity
	employees  []*Employee
	runs       map[uuid.UUID]*RecommendationRun
}

func NewMemoryStore(snap *Snapshot) *MemoryStore {
	m := &MemoryStore{
		activities: make(map[string]*Activity),
		runs:       make(map[uuid.UUID]*RecommendationRun),
	}
	if snap != nil {
		for _, a := range snap.Activities {
			m.activities[a.ID] = a
		}
		m.employees = append(m.employees, snap.Employees...)
	}
	return m
}

func (m *MemoryStore) GetActivity(_ context.Context, id string) (*Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.activities[id]
	if !ok {
		return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (m *MemoryStore) ListOpenActivities(_ context.Context) ([]*Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Activity
	for _, a := range m.activities {
		if a.OpenSeats() > 0 {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) ListEmployees(_ context.Context, filter EmployeeFilter) ([]*Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids map[string]bool
	if len(filter.IDs) > 0 {
		ids = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}
	var out []*Employee
	for _, e := range m.employees {
		if filter.Department != "" && e.Department != filter.Department {
			continue
		}
		if ids != nil && !ids[e.ID] {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveRecommendationRun(_ context.Context, run *RecommendationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	m.runs[run.ID] = run
	return nil
}

func (m *MemoryStore) GetRecommendationRun(_ context.Context, id uuid.UUID) (*RecommendationRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, nil
}

func (m *MemoryStore) ListRecommendationRuns(_ context.Context, activityID string, limit int) ([]*RecommendationRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*RecommendationRun
	for _, r := range m.runs {
		if activityID == "" || r.ActivityID == activityID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
