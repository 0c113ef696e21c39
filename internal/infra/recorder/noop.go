package recorder

import (
	"context"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.TimelineResultRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordTimelineResult(_ context.Context, _ domain.TimelineResultRecord) error {
	return nil
}

func (n *noopRecorder) RecordNotificationResults(_ context.Context, _ []domain.NotificationResultRecord) error {
	return nil
}

func (n *noopRecorder) Flush(_ context.Context) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
