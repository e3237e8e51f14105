package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads roster snapshots from Postgres. Nested profile data
// (skills, deltas, history, requirements) lives in jsonb columns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the matcher tables when they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const activityColumns = `activity_id, title, activity_type, required_skills, target_level,
	available_seats, filled_seats, starts_at, ends_at`

const employeeColumns = `employee_id, name, department, skills, years_of_experience,
	skill_deltas, history, last_activity_at`

func scanActivity(row pgx.Row) (*Activity, error) {
	a := &Activity{}
	var skillsJSON []byte
	var target string
	var start, end *time.Time
	if err := row.Scan(
		&a.ID, &a.Title, &a.Type, &skillsJSON, &target,
		&a.AvailableSeats, &a.FilledSeats, &start, &end,
	); err != nil {
		return nil, err
	}
	lvl, err := ParseSkillLevel(target)
	if err != nil {
		return nil, fmt.Errorf("activity %s: %w", a.ID, err)
	}
	a.TargetLevel = lvl
	if skillsJSON != nil {
		if err := json.Unmarshal(skillsJSON, &a.RequiredSkills); err != nil {
			return nil, fmt.Errorf("activity %s: decode required skills: %w", a.ID, err)
		}
	}
	a.Dates = DateRange{Start: derefTime(start), End: derefTime(end)}
	return a, nil
}

func (s *PostgresStore) GetActivity(ctx context.Context, id string) (*Activity, error) {
	a, err := scanActivity(s.pool.QueryRow(ctx, `
		SELECT `+activityColumns+`
		FROM activities WHERE activity_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) ListOpenActivities(ctx context.Context) ([]*Activity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE filled_seats < available_seats
		ORDER BY activity_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]*Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Department != "" {
		n++
		query += fmt.Sprintf(" AND department = $%d", n)
		args = append(args, filter.Department)
	}
	if len(filter.IDs) > 0 {
		n++
		query += fmt.Sprintf(" AND employee_id = ANY($%d)", n)
		args = append(args, filter.IDs)
	}
	query += " ORDER BY employee_id"
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Employee
	for rows.Next() {
		e := &Employee{}
		var skillsJSON, deltasJSON, historyJSON []byte
		var last *time.Time
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Department, &skillsJSON, &e.YearsOfExperience,
			&deltasJSON, &historyJSON, &last,
		); err != nil {
			return nil, err
		}
		// Malformed nested data is left for Employee.Validate to flag per candidate.
		if skillsJSON != nil {
			_ = json.Unmarshal(skillsJSON, &e.Skills)
		}
		if deltasJSON != nil {
			_ = json.Unmarshal(deltasJSON, &e.SkillDeltas)
		}
		if historyJSON != nil {
			_ = json.Unmarshal(historyJSON, &e.History)
		}
		if last != nil && !last.IsZero() {
			e.LastActivityDate = last
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveRecommendationRun(ctx context.Context, run *RecommendationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO recommendation_runs (run_id, activity_id, strategy, qualified, selected, result)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		run.ID, run.ActivityID, run.Strategy, run.Qualified, run.Selected, []byte(run.Result),
	).Scan(&run.CreatedAt)
}

const runColumns = `run_id, activity_id, strategy, qualified, selected, result, created_at`

func scanRun(row pgx.Row) (*RecommendationRun, error) {
	r := &RecommendationRun{}
	var result []byte
	if err := row.Scan(&r.ID, &r.ActivityID, &r.Strategy, &r.Qualified, &r.Selected, &result, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Result = json.RawMessage(result)
	return r, nil
}

func (s *PostgresStore) GetRecommendationRun(ctx context.Context, id uuid.UUID) (*RecommendationRun, error) {
	r, err := scanRun(s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM recommendation_runs WHERE run_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) ListRecommendationRuns(ctx context.Context, activityID string, limit int) ([]*RecommendationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM recommendation_runs
		WHERE ($1 = '' OR activity_id = $1)
		ORDER BY created_at DESC
		LIMIT $2`, activityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*RecommendationRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ImportSnapshot upserts every activity and employee of snap in one transaction.
func (s *PostgresStore) ImportSnapshot(ctx context.Context, snap *Snapshot) error {
	batch := &pgx.Batch{}
	for _, a := range snap.Activities {
		skills, err := json.Marshal(a.RequiredSkills)
		if err != nil {
			return fmt.Errorf("activity %s: encode required skills: %w", a.ID, err)
		}
		batch.Queue(`
			INSERT INTO activities (`+activityColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (activity_id) DO UPDATE SET
				title = EXCLUDED.title,
				activity_type = EXCLUDED.activity_type,
				required_skills = EXCLUDED.required_skills,
				target_level = EXCLUDED.target_level,
				available_seats = EXCLUDED.available_seats,
				filled_seats = EXCLUDED.filled_seats,
				starts_at = EXCLUDED.starts_at,
				ends_at = EXCLUDED.ends_at`,
			a.ID, a.Title, string(a.Type), skills, a.TargetLevel.String(),
			a.AvailableSeats, a.FilledSeats, nullTime(a.Dates.Start), nullTime(a.Dates.End),
		)
	}
	for _, e := range snap.Employees {
		skills, err := json.Marshal(e.Skills)
		if err != nil {
			return fmt.Errorf("employee %s: encode skills: %w", e.ID, err)
		}
		deltas, _ := json.Marshal(e.SkillDeltas)
		history, _ := json.Marshal(e.History)
		batch.Queue(`
			INSERT INTO employees (`+employeeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (employee_id) DO UPDATE SET
				name = EXCLUDED.name,
				department = EXCLUDED.department,
				skills = EXCLUDED.skills,
				years_of_experience = EXCLUDED.years_of_experience,
				skill_deltas = EXCLUDED.skill_deltas,
				history = EXCLUDED.history,
				last_activity_at = EXCLUDED.last_activity_at`,
			e.ID, e.Name, e.Department, skills, e.YearsOfExperience,
			deltas, history, e.LastActivityDate,
		)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
