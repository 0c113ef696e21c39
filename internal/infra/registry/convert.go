package registry

import (
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

// NewNotificationTask builds the queue payload for one notification
// request. A repeating request is scheduled at its next fire time and
// carries the wall-clock hour and minute for the device to repeat on.
// The task is named per run; the notification id in the payload stays
// stable across runs.
func NewNotificationTask(participantID, runID string, req domain.NotificationRequest) *NotificationTask {
	return &NotificationTask{
		ParticipantID:  participantID,
		TaskName:       TaskName(req.ID, runID),
		ScheduleAt:     req.TriggerAt,
		NotificationID: req.ID,
		ThreadID:       req.InstanceGuid,
		Category:       req.Category,
		Subject:        req.Subject,
		Body:           req.Body,
		AllowSnooze:    req.AllowSnooze,
		Repeats:        req.Repeats,
		Hour:           req.Hour,
		Minute:         req.Minute,
		TriggerAt:      req.TriggerAt.Format(time.RFC3339),
	}
}
