package domain

import (
	"context"
	"time"
)

// TimelineResultRecord summarizes one computation for analytics.
type TimelineResultRecord struct {
	RunID              string
	ParticipantID      string
	ComputedAt         time.Time
	InstanceCount      int
	UpNextCount        int
	AvailableNowCount  int
	CompletedCount     int
	ExpiredCount       int
	NotificationCount  int
	DroppedByCapCount  int
	StaleRecordCount   int
	UnknownRecordCount int
}

type NotificationResultRecord struct {
	RunID         string
	ParticipantID string
	InstanceGuid  string
	TriggerAt     time.Time
	Repeats       bool
	Outcome       string
}

type TimelineResultRecorder interface {
	RecordTimelineResult(ctx context.Context, record TimelineResultRecord) error
	RecordNotificationResults(ctx context.Context, records []NotificationResultRecord) error
	Flush(ctx context.Context) error
	Close() error
}
