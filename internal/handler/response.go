package handler

import (
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type AttemptView struct {
	StartedOn  time.Time  `json:"startedOn"`
	FinishedOn *time.Time `json:"finishedOn,omitempty"`
	Declined   bool       `json:"declined"`
}

type AssessmentView struct {
	InstanceGuid      string        `json:"instanceGuid"`
	Identifier        string        `json:"identifier"`
	Label             string        `json:"label,omitempty"`
	MinutesToComplete int           `json:"minutesToComplete,omitempty"`
	IsCompleted       bool          `json:"isCompleted"`
	IsDeclined        bool          `json:"isDeclined"`
	IsEnabled         bool          `json:"isEnabled"`
	FinishedOn        *time.Time    `json:"finishedOn,omitempty"`
	History           []AttemptView `json:"history,omitempty"`
}

// SessionView is the display record of one instance. Dates and times are
// rendered in the zone the timeline was computed in; times are omitted
// for whole-day edges.
type SessionView struct {
	InstanceGuid     string           `json:"instanceGuid"`
	SessionID        string           `json:"sessionId"`
	Label            string           `json:"label"`
	State            string           `json:"state"`
	StartDate        string           `json:"startDate"`
	StartTime        string           `json:"startTime,omitempty"`
	EndDate          string           `json:"endDate"`
	EndTime          string           `json:"endTime,omitempty"`
	StartDateTime    time.Time        `json:"startDateTime"`
	EndDateTime      time.Time        `json:"endDateTime"`
	Persistent       bool             `json:"persistent"`
	PerformanceOrder string           `json:"performanceOrder"`
	IsCompleted      bool             `json:"isCompleted"`
	FinishedOn       *time.Time       `json:"finishedOn,omitempty"`
	Assessments      []AssessmentView `json:"assessments"`
}

type TimelineResponse struct {
	ParticipantID string        `json:"participantId"`
	Now           time.Time     `json:"now"`
	TimeZone      string        `json:"timeZone"`
	Sessions      []SessionView `json:"sessions"`
}

type TodayResponse struct {
	ParticipantID   string             `json:"participantId"`
	Now             time.Time          `json:"now"`
	TimeZone        string             `json:"timeZone"`
	StartOfToday    time.Time          `json:"startOfToday"`
	EndOfWindow     time.Time          `json:"endOfWindow"`
	IncludesNextDay bool               `json:"includesNextDay"`
	Sessions        []SessionView      `json:"sessions"`
	Notifications   []NotificationView `json:"notifications"`
}

type NotificationView struct {
	ID          string    `json:"id"`
	ThreadID    string    `json:"threadId"`
	Category    string    `json:"category"`
	TriggerAt   time.Time `json:"triggerAt"`
	Repeats     bool      `json:"repeats"`
	Hour        *int      `json:"hour,omitempty"`
	Minute      *int      `json:"minute,omitempty"`
	AllowSnooze bool      `json:"allowSnooze"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
}

type NotificationsResponse struct {
	ParticipantID string             `json:"participantId"`
	Eligible      int                `json:"eligible"`
	Dropped       int                `json:"dropped"`
	Degraded      int                `json:"degraded"`
	Notifications []NotificationView `json:"notifications"`
}

type RefreshResponse struct {
	ParticipantID string `json:"participantId"`
	Removed       int    `json:"removed"`
	Registered    int    `json:"registered"`
	Failed        int    `json:"failed"`
	Dropped       int    `json:"dropped"`
}

type AcceptedResponse struct {
	Accepted int `json:"accepted"`
}

func toSessionViews(sessions []domain.ScheduledSession, zone *time.Location) []SessionView {
	out := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		out = append(out, toSessionView(&sessions[i], zone))
	}
	return out
}

func toSessionView(s *domain.ScheduledSession, zone *time.Location) SessionView {
	start := s.StartDateTime.In(zone)
	end := s.EndDateTime.In(zone)

	view := SessionView{
		InstanceGuid:     s.InstanceGuid,
		SessionID:        s.SessionID,
		Label:            s.Label,
		State:            s.State.String(),
		StartDate:        start.Format(dateLayout),
		EndDate:          end.Format(dateLayout),
		StartDateTime:    s.StartDateTime,
		EndDateTime:      s.EndDateTime,
		Persistent:       s.Persistent,
		PerformanceOrder: s.PerformanceOrder.String(),
		IsCompleted:      s.IsCompleted,
		FinishedOn:       s.FinishedOn,
		Assessments:      make([]AssessmentView, 0, len(s.Assessments)),
	}
	if s.HasStartTimeOfDay {
		view.StartTime = start.Format(timeLayout)
	}
	if s.HasEndTimeOfDay {
		view.EndTime = end.Format(timeLayout)
	} else {
		// A whole-day window ends at the following midnight; show the
		// last day it covers.
		view.EndDate = end.Add(-time.Nanosecond).Format(dateLayout)
	}

	for _, a := range s.Assessments {
		av := AssessmentView{
			InstanceGuid:      a.InstanceGuid,
			Identifier:        a.Ref.Identifier,
			Label:             a.Ref.Label,
			MinutesToComplete: a.Ref.MinutesToComplete,
			IsCompleted:       a.IsCompleted,
			IsDeclined:        a.IsDeclined,
			IsEnabled:         a.IsEnabled,
			FinishedOn:        a.FinishedOn,
		}
		for _, r := range a.History {
			av.History = append(av.History, AttemptView{
				StartedOn:  r.StartedOn,
				FinishedOn: r.FinishedOn,
				Declined:   r.Declined,
			})
		}
		view.Assessments = append(view.Assessments, av)
	}
	return view
}

func toNotificationViews(requests []domain.NotificationRequest) []NotificationView {
	out := make([]NotificationView, 0, len(requests))
	for _, r := range requests {
		view := NotificationView{
			ID:          r.ID,
			ThreadID:    r.InstanceGuid,
			Category:    r.Category,
			TriggerAt:   r.TriggerAt,
			Repeats:     r.Repeats,
			AllowSnooze: r.AllowSnooze,
			Subject:     r.Subject,
			Body:        r.Body,
		}
		if r.Repeats {
			hour, minute := r.Hour, r.Minute
			view.Hour = &hour
			view.Minute = &minute
		}
		out = append(out, view)
	}
	return out
}
