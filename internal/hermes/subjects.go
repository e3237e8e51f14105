package hermes

const (
	// SubjectActivityChanged is published by the activity owner when seats,
	// requirements or dates change. The matcher re-ranks on receipt.
	SubjectActivityChanged = "matcher.activity.*.changed"
	SubjectRosterChanged   = "matcher.roster.changed"
	SubjectRefreshStats    = "matcher.refresh.stats"

	StreamName   = "MATCHER_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectActivityUpdated(activityID string) string { return "matcher.activity." + activityID + ".changed" }

func SubjectRecommendationCompleted(activityID string) string {
	return "matcher.recommendation." + activityID + ".completed"
}

func SubjectRecommendationFailed(activityID string) string {
	return "matcher.recommendation." + activityID + ".failed"
}
