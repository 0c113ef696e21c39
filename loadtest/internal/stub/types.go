package stub

import "github.com/KasumiMercury/primind-session-timeline/internal/infra/studyapi"

// SeedRequest installs a study timeline and enrolls cohorts of synthetic
// participants against it.
type SeedRequest struct {
	Timeline *studyapi.TimelineResponse `json:"timeline"`
	Cohorts  []SeedCohort               `json:"cohorts"`
}

// SeedCohort spreads Count enrollments evenly over [start_time, end_time).
type SeedCohort struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Count     int    `json:"count"`
	EventID   string `json:"event_id"`
}

type SeedResponse struct {
	Status         string   `json:"status"`
	StudyID        string   `json:"study_id"`
	CohortCount    int      `json:"cohort_count"`
	ParticipantIDs []string `json:"participant_ids"`
}
