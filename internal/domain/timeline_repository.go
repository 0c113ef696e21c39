package domain

import "context"

//go:generate mockgen -source=timeline_repository.go -destination=timeline_repository_mock.go -package=domain

type TimelineRepository interface {
	SaveTimeline(ctx context.Context, timeline *Timeline) error
	GetTimeline(ctx context.Context, studyID string) (*Timeline, error)
	SaveEvent(ctx context.Context, participantID string, event ActivityEvent) error
	ListEvents(ctx context.Context, participantID string) ([]ActivityEvent, error)
	SaveAdherence(ctx context.Context, participantID string, records []AdherenceRecord) error
	ListAdherence(ctx context.Context, participantID string) ([]AdherenceRecord, error)
	SavePendingNotifications(ctx context.Context, participantID, category string, ids []string) error
	GetPendingNotifications(ctx context.Context, participantID, category string) ([]string, error)
}
