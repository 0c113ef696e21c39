package timeline

import (
	"context"
	"log/slog"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/registry"
	"github.com/KasumiMercury/primind-session-timeline/internal/observability/tracing"
)

const (
	outcomeRegistered = "registered"
	outcomeFailed     = "failed"
)

// RefreshNotifications replaces the participant's pending reminders with a
// freshly built set. The full set is computed before anything is removed,
// then every pending entry of the category is deleted and every new
// request registered. Registry failures are logged and counted; the
// computed schedule is still returned.
func (s *Service) RefreshNotifications(ctx context.Context, req ComputeRequest) (*RefreshResult, error) {
	if s.registry == nil {
		return nil, ErrRegistryDisabled
	}
	if !req.Now.IsZero() {
		return nil, ErrPinnedRefresh
	}
	if req.Trigger == "" {
		req.Trigger = TriggerRefresh
	}

	comp, err := s.Compute(ctx, req)
	if err != nil {
		return nil, err
	}

	category := s.builder.Policy().Category
	result := &RefreshResult{Notifications: comp.Notifications}

	ctx, span := tracing.StartRegistryRefreshSpan(ctx, comp.ParticipantID, category)
	defer span.End()

	pending, err := s.repo.GetPendingNotifications(ctx, comp.ParticipantID, category)
	if err != nil {
		slog.WarnContext(ctx, "failed to read pending notifications",
			slog.String("event", "timeline.registry.pending.fail"),
			slog.String("participant_id", comp.ParticipantID),
			slog.String("error", err.Error()),
		)
	}

	// Pending entries are task names. Entries that could not be removed
	// stay pending so the next refresh retries them.
	stillPending := make([]string, 0, len(pending)+len(comp.Notifications.Requests))
	for _, id := range pending {
		if err := s.registry.Delete(ctx, id); err != nil {
			result.Failed++
			stillPending = append(stillPending, id)
			s.registryFailure(ctx, "delete", comp.ParticipantID, slog.String("task_name", id), err)
			continue
		}
		result.Removed++
	}

	records := make([]domain.NotificationResultRecord, 0, len(comp.Notifications.Requests))
	for _, n := range comp.Notifications.Requests {
		outcome := outcomeRegistered
		task := registry.NewNotificationTask(comp.ParticipantID, comp.RunID, n)
		if _, err := s.registry.Register(ctx, task); err != nil {
			result.Failed++
			outcome = outcomeFailed
			s.registryFailure(ctx, "register", comp.ParticipantID, slog.String("notification_id", n.ID), err)
		} else {
			result.Registered++
			stillPending = append(stillPending, task.TaskName)
		}
		records = append(records, domain.NotificationResultRecord{
			RunID:         comp.RunID,
			ParticipantID: comp.ParticipantID,
			InstanceGuid:  n.InstanceGuid,
			TriggerAt:     n.TriggerAt,
			Repeats:       n.Repeats,
			Outcome:       outcome,
		})
	}

	if err := s.repo.SavePendingNotifications(ctx, comp.ParticipantID, category, stillPending); err != nil {
		slog.WarnContext(ctx, "failed to save pending notifications",
			slog.String("event", "timeline.registry.pending.fail"),
			slog.String("participant_id", comp.ParticipantID),
			slog.String("error", err.Error()),
		)
	}

	if s.recorder != nil && len(records) > 0 {
		if err := s.recorder.RecordNotificationResults(ctx, records); err != nil {
			slog.WarnContext(ctx, "failed to record notification results",
				slog.String("event", "timeline.record.fail"),
				slog.String("run_id", comp.RunID),
				slog.String("error", err.Error()),
			)
		}
	}

	tracing.RecordRegistryRefreshResult(span, result.Removed, result.Registered, result.Failed, nil)

	slog.InfoContext(ctx, "notifications refreshed",
		slog.String("event", "timeline.registry.refresh"),
		slog.String("participant_id", comp.ParticipantID),
		slog.Int("removed", result.Removed),
		slog.Int("registered", result.Registered),
		slog.Int("failed", result.Failed),
		slog.Int("dropped", comp.Notifications.Dropped),
	)

	return result, nil
}

func (s *Service) registryFailure(ctx context.Context, operation, participantID string, target slog.Attr, err error) {
	if s.metrics != nil {
		s.metrics.RecordRegistryFailure(ctx, operation)
	}
	slog.WarnContext(ctx, "notification registry call failed",
		slog.String("event", "timeline.registry.fail"),
		slog.String("operation", operation),
		slog.String("participant_id", participantID),
		target,
		slog.String("error", err.Error()),
	)
}
