package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// SkillLevel is the ordinal proficiency scale LOW < MEDIUM < HIGH < EXPERT.
// The zero value means the level is unknown.
type SkillLevel int

const (
	LevelUnknown SkillLevel = iota
	LevelLow
	LevelMedium
	LevelHigh
	LevelExpert
)

var levelNames = map[SkillLevel]string{
	LevelLow:    "LOW",
	LevelMedium: "MEDIUM",
	LevelHigh:   "HIGH",
	LevelExpert: "EXPERT",
}

func (l SkillLevel) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return "UNKNOWN"
}

// Ordinal returns 1..4 for known levels and 0 otherwise.
func (l SkillLevel) Ordinal() int {
	if l < LevelLow || l > LevelExpert {
		return 0
	}
	return int(l)
}

func (l SkillLevel) Valid() bool { return l >= LevelLow && l <= LevelExpert }

// ParseSkillLevel accepts level names case-insensitively.
func ParseSkillLevel(s string) (SkillLevel, error) {
	for l, n := range levelNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return LevelUnknown, fmt.Errorf("unknown skill level %q", s)
}

func (l SkillLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid skill level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *SkillLevel) UnmarshalText(b []byte) error {
	v, err := ParseSkillLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

type ActivityType string

const (
	ActivityTraining      ActivityType = "training"
	ActivityMission       ActivityType = "mission"
	ActivityCertification ActivityType = "certification"
	ActivityAudit         ActivityType = "audit"
	ActivityProject       ActivityType = "project"
)

type RecordStatus string

const (
	RecordPlanned    RecordStatus = "planned"
	RecordInProgress RecordStatus = "in_progress"
	RecordCompleted  RecordStatus = "completed"
	RecordCancelled  RecordStatus = "cancelled"
)

// DateRange is a closed interval. A zero End means open-ended.
type DateRange struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

func (r DateRange) IsZero() bool { return r.Start.IsZero() && r.End.IsZero() }

// Overlaps reports whether the two ranges share at least one instant.
func (r DateRange) Overlaps(o DateRange) bool {
	if r.IsZero() || o.IsZero() {
		return false
	}
	if !r.End.IsZero() && o.Start.After(r.End) {
		return false
	}
	if !o.End.IsZero() && r.Start.After(o.End) {
		return false
	}
	return true
}

// Duration returns End-Start, or zero when either bound is missing.
func (r DateRange) Duration() time.Duration {
	if r.Start.IsZero() || r.End.IsZero() || r.End.Before(r.Start) {
		return 0
	}
	return r.End.Sub(r.Start)
}

// SkillRequirement is unique per (activity, skill).
type SkillRequirement struct {
	SkillID       string     `json:"skill_id" yaml:"skill_id"`
	Name          string     `json:"name,omitempty" yaml:"name,omitempty"`
	RequiredLevel SkillLevel `json:"required_level" yaml:"required_level"`
	Weight        float64    `json:"weight" yaml:"weight"`
	Mandatory     bool       `json:"mandatory" yaml:"mandatory"`
	MinScore      *float64   `json:"min_score,omitempty" yaml:"min_score,omitempty"`
}

// Label is the human-readable skill name used in reasoning strings.
func (r SkillRequirement) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.SkillID
}

// EmployeeSkill is unique per (employee, skill).
type EmployeeSkill struct {
	SkillID            string     `json:"skill_id" yaml:"skill_id"`
	Level              SkillLevel `json:"level" yaml:"level"`
	Score              float64    `json:"score" yaml:"score"`
	YearsOfExperience  *float64   `json:"years_of_experience,omitempty" yaml:"years_of_experience,omitempty"`
	CertificationCount int        `json:"certification_count" yaml:"certification_count"`
	Verified           bool       `json:"verified" yaml:"verified"`
}

// SkillDelta records one score change; sequences are ordered oldest first.
type SkillDelta struct {
	SkillID       string    `json:"skill_id,omitempty" yaml:"skill_id,omitempty"`
	PreviousScore float64   `json:"previous_score" yaml:"previous_score"`
	NewScore      float64   `json:"new_score" yaml:"new_score"`
	RecordedAt    time.Time `json:"recorded_at,omitempty" yaml:"recorded_at,omitempty"`
}

func (d SkillDelta) Delta() float64 { return d.NewScore - d.PreviousScore }

// ActivityRecord is one entry of an employee's activity history or calendar.
type ActivityRecord struct {
	ActivityID string       `json:"activity_id" yaml:"activity_id"`
	Type       ActivityType `json:"type" yaml:"type"`
	Status     RecordStatus `json:"status" yaml:"status"`
	Dates      DateRange    `json:"dates" yaml:"dates"`
}

// Committed reports whether the record blocks the employee's calendar.
func (a ActivityRecord) Committed() bool {
	return a.Status == RecordPlanned || a.Status == RecordInProgress
}

type Employee struct {
	ID                string           `json:"id" yaml:"id"`
	Name              string           `json:"name,omitempty" yaml:"name,omitempty"`
	Department        string           `json:"department" yaml:"department"`
	Skills            []EmployeeSkill  `json:"skills" yaml:"skills"`
	YearsOfExperience float64          `json:"years_of_experience" yaml:"years_of_experience"`
	SkillDeltas       []SkillDelta     `json:"skill_deltas,omitempty" yaml:"skill_deltas,omitempty"`
	History           []ActivityRecord `json:"history,omitempty" yaml:"history,omitempty"`
	LastActivityDate  *time.Time       `json:"last_activity_date,omitempty" yaml:"last_activity_date,omitempty"`
}

// Skill looks up a skill record by id.
func (e *Employee) Skill(id string) (EmployeeSkill, bool) {
	for _, s := range e.Skills {
		if s.SkillID == id {
			return s, true
		}
	}
	return EmployeeSkill{}, false
}

// OverallLevel is the highest level the employee holds on any skill,
// LOW when the employee has no leveled skills.
func (e *Employee) OverallLevel() SkillLevel {
	best := LevelUnknown
	for _, s := range e.Skills {
		if s.Level.Valid() && s.Level > best {
			best = s.Level
		}
	}
	if best == LevelUnknown {
		return LevelLow
	}
	return best
}

// RecentDeltas returns at most the last n skill deltas.
func (e *Employee) RecentDeltas(n int) []SkillDelta {
	if len(e.SkillDeltas) <= n {
		return e.SkillDeltas
	}
	return e.SkillDeltas[len(e.SkillDeltas)-n:]
}

// Validate rejects malformed records. Scoring isolates the failure to this employee.
func (e *Employee) Validate() error {
	if e.ID == "" {
		return errors.New("employee id is empty")
	}
	if e.YearsOfExperience < 0 {
		return fmt.Errorf("employee %s: negative years of experience", e.ID)
	}
	seen := make(map[string]bool, len(e.Skills))
	for _, s := range e.Skills {
		if s.SkillID == "" {
			return fmt.Errorf("employee %s: skill with empty id", e.ID)
		}
		if seen[s.SkillID] {
			return fmt.Errorf("employee %s: duplicate skill %s", e.ID, s.SkillID)
		}
		seen[s.SkillID] = true
		if !s.Level.Valid() {
			return fmt.Errorf("employee %s: skill %s has invalid level", e.ID, s.SkillID)
		}
		if s.Score < 0 || s.Score > 100 {
			return fmt.Errorf("employee %s: skill %s score %.2f outside [0,100]", e.ID, s.SkillID, s.Score)
		}
		if s.CertificationCount < 0 {
			return fmt.Errorf("employee %s: skill %s has negative certification count", e.ID, s.SkillID)
		}
	}
	return nil
}

type Activity struct {
	ID             string             `json:"id" yaml:"id"`
	Title          string             `json:"title,omitempty" yaml:"title,omitempty"`
	Type           ActivityType       `json:"type" yaml:"type"`
	RequiredSkills []SkillRequirement `json:"required_skills" yaml:"required_skills"`
	TargetLevel    SkillLevel         `json:"target_level" yaml:"target_level"`
	AvailableSeats int                `json:"available_seats" yaml:"available_seats"`
	FilledSeats    int                `json:"filled_seats" yaml:"filled_seats"`
	Dates          DateRange          `json:"dates" yaml:"dates"`
}

// OpenSeats is availableSeats - filledSeats, never negative.
func (a *Activity) OpenSeats() int {
	if n := a.AvailableSeats - a.FilledSeats; n > 0 {
		return n
	}
	return 0
}

func (a *Activity) Validate() error {
	if a.ID == "" {
		return errors.New("activity id is empty")
	}
	if a.AvailableSeats < 0 {
		return fmt.Errorf("activity %s: negative available seats", a.ID)
	}
	if a.FilledSeats < 0 || a.FilledSeats > a.AvailableSeats {
		return fmt.Errorf("activity %s: filled seats %d outside [0,%d]", a.ID, a.FilledSeats, a.AvailableSeats)
	}
	if !a.TargetLevel.Valid() {
		return fmt.Errorf("activity %s: invalid target level", a.ID)
	}
	seen := make(map[string]bool, len(a.RequiredSkills))
	for _, r := range a.RequiredSkills {
		if r.SkillID == "" {
			return fmt.Errorf("activity %s: requirement with empty skill id", a.ID)
		}
		if seen[r.SkillID] {
			return fmt.Errorf("activity %s: duplicate requirement %s", a.ID, r.SkillID)
		}
		seen[r.SkillID] = true
		if !r.RequiredLevel.Valid() {
			return fmt.Errorf("activity %s: requirement %s has invalid level", a.ID, r.SkillID)
		}
		if r.Weight < 0 || r.Weight > 1 {
			return fmt.Errorf("activity %s: requirement %s weight %.3f outside [0,1]", a.ID, r.SkillID, r.Weight)
		}
		if r.MinScore != nil && (*r.MinScore < 0 || *r.MinScore > 100) {
			return fmt.Errorf("activity %s: requirement %s min score outside [0,100]", a.ID, r.SkillID)
		}
	}
	return nil
}

// RecommendationRun is a persisted engine result. Result holds the JSON-encoded output.
type RecommendationRun struct {
	ID         uuid.UUID       `json:"run_id"`
	ActivityID string          `json:"activity_id"`
	Strategy   string          `json:"strategy"`
	Qualified  int             `json:"qualified"`
	Selected   int             `json:"selected"`
	Result     json.RawMessage `json:"result"`
	CreatedAt  time.Time       `json:"created_at"`
}

type EmployeeFilter struct {
	Department string
	IDs        []string
	Limit      int
}

// Store is the persistence collaborator that feeds the engine resident snapshots.
type Store interface {
	GetActivity(ctx context.Context, id string) (*Activity, error)
	ListOpenActivities(ctx context.Context) ([]*Activity, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]*Employee, error)

	SaveRecommendationRun(ctx context.Context, run *RecommendationRun) error
	GetRecommendationRun(ctx context.Context, id uuid.UUID) (*RecommendationRun, error)
	ListRecommendationRuns(ctx context.Context, activityID string, limit int) ([]*RecommendationRun, error)

	Close() error
}
