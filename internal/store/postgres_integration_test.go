//go:build integration

package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE recommendation_runs, employees, activities")
		s.Close()
	})

	return s
}

func seed(t *testing.T, s *PostgresStore) {
	t.Helper()
	ctx := context.Background()
	skills, _ := json.Marshal([]SkillRequirement{{SkillID: "go", RequiredLevel: LevelHigh, Weight: 1, Mandatory: true}})
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO activities (activity_id, title, activity_type, required_skills, target_level, available_seats, filled_seats, starts_at)
		VALUES ('open', 'Go guild', 'project', $1, 'HIGH', 3, 1, $2),
		       ('full', 'Audit', 'audit', '[]', 'MEDIUM', 1, 1, NULL)`, skills, start)
	if err != nil {
		t.Fatalf("seed activities: %v", err)
	}

	empSkills, _ := json.Marshal([]EmployeeSkill{{SkillID: "go", Level: LevelExpert, Score: 90}})
	_, err = s.pool.Exec(ctx, `
		INSERT INTO employees (employee_id, name, department, skills, years_of_experience)
		VALUES ('e1', 'Ada', 'eng', $1, 6), ('e2', 'Bo', 'ops', '[]', 1)`, empSkills)
	if err != nil {
		t.Fatalf("seed employees: %v", err)
	}
}

func TestPostgresActivities(t *testing.T) {
	s := setupTestDB(t)
	seed(t, s)
	ctx := context.Background()

	a, err := s.GetActivity(ctx, "open")
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	if a.TargetLevel != LevelHigh || a.OpenSeats() != 2 || len(a.RequiredSkills) != 1 {
		t.Errorf("unexpected activity %+v", a)
	}
	if a.Dates.Start.IsZero() || !a.Dates.End.IsZero() {
		t.Errorf("expected open-ended dates, got %+v", a.Dates)
	}

	if _, err := s.GetActivity(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	open, err := s.ListOpenActivities(ctx)
	if err != nil {
		t.Fatalf("ListOpenActivities: %v", err)
	}
	if len(open) != 1 || open[0].ID != "open" {
		t.Errorf("expected only the open activity, got %d", len(open))
	}
}

func TestPostgresEmployees(t *testing.T) {
	s := setupTestDB(t)
	seed(t, s)
	ctx := context.Background()

	emps, err := s.ListEmployees(ctx, EmployeeFilter{})
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if len(emps) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(emps))
	}
	if sk, ok := emps[0].Skill("go"); !ok || sk.Level != LevelExpert {
		t.Errorf("expected decoded skills for e1, got %+v", emps[0].Skills)
	}

	emps, _ = s.ListEmployees(ctx, EmployeeFilter{Department: "ops"})
	if len(emps) != 1 || emps[0].ID != "e2" {
		t.Errorf("department filter failed: %+v", emps)
	}
	emps, _ = s.ListEmployees(ctx, EmployeeFilter{IDs: []string{"e1"}, Limit: 5})
	if len(emps) != 1 || emps[0].ID != "e1" {
		t.Errorf("id filter failed: %+v", emps)
	}
}

func TestPostgresRecommendationRuns(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	run := &RecommendationRun{
		ActivityID: "open",
		Strategy:   "balanced",
		Qualified:  2,
		Selected:   1,
		Result:     json.RawMessage(`{"recommendations":[]}`),
	}
	if err := s.SaveRecommendationRun(ctx, run); err != nil {
		t.Fatalf("SaveRecommendationRun: %v", err)
	}
	if run.ID == uuid.Nil || run.CreatedAt.IsZero() {
		t.Errorf("expected id and created_at set, got %+v", run)
	}

	got, err := s.GetRecommendationRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRecommendationRun: %v", err)
	}
	if got.Strategy != "balanced" || got.Selected != 1 {
		t.Errorf("unexpected run %+v", got)
	}

	if _, err := s.GetRecommendationRun(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	runs, err := s.ListRecommendationRuns(ctx, "open", 10)
	if err != nil {
		t.Fatalf("ListRecommendationRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Errorf("expected the saved run, got %d runs", len(runs))
	}
}

func TestPostgresImportSnapshot(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	last := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := &Snapshot{
		Activities: []*Activity{{
			ID:             "a1",
			Title:          "Go guild",
			Type:           ActivityTraining,
			TargetLevel:    LevelMedium,
			AvailableSeats: 2,
			RequiredSkills: []SkillRequirement{{SkillID: "go", RequiredLevel: LevelMedium, Weight: 1}},
		}},
		Employees: []*Employee{{
			ID:               "e1",
			Department:       "eng",
			Skills:           []EmployeeSkill{{SkillID: "go", Level: LevelHigh, Score: 75}},
			LastActivityDate: &last,
		}},
	}
	if err := s.ImportSnapshot(ctx, snap); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}

	// Re-importing updates rows in place.
	snap.Activities[0].FilledSeats = 1
	if err := s.ImportSnapshot(ctx, snap); err != nil {
		t.Fatalf("ImportSnapshot again: %v", err)
	}

	a, err := s.GetActivity(ctx, "a1")
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	if a.FilledSeats != 1 || a.Type != ActivityTraining || len(a.RequiredSkills) != 1 {
		t.Errorf("unexpected activity %+v", a)
	}
	if !a.Dates.Start.IsZero() {
		t.Errorf("expected no start date, got %v", a.Dates.Start)
	}

	emps, err := s.ListEmployees(ctx, EmployeeFilter{})
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if len(emps) != 1 || emps[0].LastActivityDate == nil || !emps[0].LastActivityDate.Equal(last) {
		t.Errorf("unexpected employees %+v", emps)
	}
}
