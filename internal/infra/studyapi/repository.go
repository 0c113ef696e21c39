package studyapi

import (
	"context"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

//go:generate mockgen -source=repository.go -destination=mock.go -package=studyapi

type StudyRepository interface {
	GetTimeline(ctx context.Context, studyID string) (*domain.Timeline, error)
	GetActivityEvents(ctx context.Context, participantID string) ([]domain.ActivityEvent, error)
	GetAdherence(ctx context.Context, studyID, participantID string) ([]domain.AdherenceRecord, error)
}
