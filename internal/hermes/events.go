package hermes

import "time"

type RecommendationCompletedEvent struct {
	RunID       string    `json:"run_id"`
	ActivityID  string    `json:"activity_id"`
	Strategy    string    `json:"strategy"`
	Selected    []string  `json:"selected"`
	Qualified   int       `json:"qualified"`
	Candidates  int       `json:"candidates"`
	OpenSeats   int       `json:"open_seats"`
	CompletedAt time.Time `json:"completed_at"`
}

type RecommendationFailedEvent struct {
	ActivityID string `json:"activity_id"`
	Strategy   string `json:"strategy,omitempty"`
	Error      string `json:"error"`
}

// ActivityChangedEvent is consumed, not produced, by the matcher.
type ActivityChangedEvent struct {
	ActivityID string `json:"activity_id"`
	Reason     string `json:"reason,omitempty"`
}

type RefreshStatsEvent struct {
	Activities int       `json:"activities"`
	Failed     int       `json:"failed"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
