package studyapi

import (
	"context"
	"log/slog"
	"strings"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

// ConvertTimeline groups the flat schedule into session templates. Each
// schedule entry becomes one time window of the session named by its
// refGuid and inherits that session's notifications.
func ConvertTimeline(ctx context.Context, studyID string, resp *TimelineResponse, lang string) *domain.Timeline {
	assessments := make(map[string]AssessmentInfo, len(resp.Assessments))
	for _, a := range resp.Assessments {
		assessments[a.Key] = a
	}

	sessions := make([]domain.SessionTemplate, 0, len(resp.Sessions))
	index := make(map[string]int, len(resp.Sessions))
	notifications := make(map[string][]domain.NotificationTemplate, len(resp.Sessions))

	for _, s := range resp.Sessions {
		if _, dup := index[s.Guid]; dup {
			continue
		}
		index[s.Guid] = len(sessions)
		notifications[s.Guid] = convertNotifications(s.Notifications, lang)

		tmpl := domain.SessionTemplate{
			SessionID:        s.Guid,
			Label:            s.Label,
			StartEventID:     s.StartEventID,
			PerformanceOrder: domain.ParsePerformanceOrder(s.PerformanceOrder),
		}
		if s.Repeat != nil {
			tmpl.Repeat = &domain.Recurrence{
				Interval:    s.Repeat.Interval,
				Occurrences: s.Repeat.Occurrences,
			}
		}
		sessions = append(sessions, tmpl)
	}

	for _, entry := range resp.Schedule {
		i, ok := index[entry.RefGuid]
		if !ok {
			slog.WarnContext(ctx, "schedule entry references unknown session",
				slog.String("event", "studyapi.convert.skip"),
				slog.String("instance_guid", entry.InstanceGuid),
				slog.String("ref_guid", entry.RefGuid),
			)
			continue
		}

		refs := make([]domain.AssessmentRef, 0, len(entry.Assessments))
		for _, sa := range entry.Assessments {
			info, known := assessments[sa.RefKey]
			ref := domain.AssessmentRef{
				Identifier:   sa.RefKey,
				InstanceGuid: sa.InstanceGuid,
			}
			if known {
				ref.Identifier = info.Identifier
				ref.Guid = info.Guid
				ref.Label = info.Label
				ref.MinutesToComplete = info.MinutesToComplete
			}
			refs = append(refs, ref)
		}

		windowID := entry.TimeWindowGuid
		if windowID == "" {
			windowID = entry.InstanceGuid
		}

		sessions[i].TimeWindows = append(sessions[i].TimeWindows, domain.TimeWindowTemplate{
			WindowID:      windowID,
			InstanceGuid:  entry.InstanceGuid,
			StartDay:      entry.StartDay,
			EndDay:        entry.EndDay,
			StartTime:     entry.StartTime,
			Expiration:    entry.Expiration,
			Persistent:    entry.Persistent,
			Assessments:   refs,
			Notifications: notifications[entry.RefGuid],
		})
	}

	return &domain.Timeline{
		StudyID:  studyID,
		Duration: resp.Duration,
		Sessions: sessions,
	}
}

func convertNotifications(infos []NotificationInfo, lang string) []domain.NotificationTemplate {
	if len(infos) == 0 {
		return nil
	}

	out := make([]domain.NotificationTemplate, 0, len(infos))
	for _, n := range infos {
		notifyAt := domain.NotifyAtWindowStart
		if strings.EqualFold(n.NotifyAt, string(domain.NotifyAtWindowEnd)) {
			notifyAt = domain.NotifyAtWindowEnd
		}

		out = append(out, domain.NotificationTemplate{
			NotifyAt:       notifyAt,
			Offset:         n.Offset,
			RepeatInterval: n.Interval,
			AllowSnooze:    n.AllowSnooze,
			Message:        pickMessage(n.Messages, lang),
		})
	}
	return out
}

// pickMessage prefers the requested language and falls back to the first
// message, which upstream treats as the default.
func pickMessage(messages []MessageInfo, lang string) domain.NotificationMessage {
	if len(messages) == 0 {
		return domain.NotificationMessage{}
	}

	chosen := messages[0]
	for _, m := range messages {
		if lang != "" && strings.EqualFold(m.Lang, lang) {
			chosen = m
			break
		}
	}

	return domain.NotificationMessage{
		Lang:    chosen.Lang,
		Subject: chosen.Subject,
		Body:    chosen.Message,
	}
}

func convertEvents(resp *EventsResponse) []domain.ActivityEvent {
	events := make([]domain.ActivityEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, domain.ActivityEvent{
			EventID:   item.EventID,
			Timestamp: item.Timestamp,
		})
	}
	return events
}

func convertAdherence(items []AdherenceItem) []domain.AdherenceRecord {
	records := make([]domain.AdherenceRecord, 0, len(items))
	for _, item := range items {
		records = append(records, domain.AdherenceRecord{
			InstanceGuid:   item.InstanceGuid,
			EventTimestamp: item.EventTimestamp,
			StartedOn:      item.StartedOn,
			FinishedOn:     item.FinishedOn,
			Declined:       item.Declined,
			ClientData:     item.ClientData,
			ClientTimeZone: item.ClientTimeZone,
		})
	}
	return records
}
