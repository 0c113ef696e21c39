package domain

import "time"

type SessionState string

const (
	SessionStateUpNext       SessionState = "up_next"
	SessionStateAvailableNow SessionState = "available_now"
	SessionStateCompleted    SessionState = "completed"
	SessionStateExpired      SessionState = "expired"
)

func (s SessionState) String() string {
	return string(s)
}

// Rank orders states along their only legal direction of travel.
func (s SessionState) Rank() int {
	switch s {
	case SessionStateUpNext:
		return 0
	case SessionStateAvailableNow:
		return 1
	case SessionStateCompleted, SessionStateExpired:
		return 2
	default:
		return -1
	}
}

func (s SessionState) IsOpen() bool {
	return s == SessionStateUpNext || s == SessionStateAvailableNow
}

type ScheduledAssessment struct {
	InstanceGuid string            `json:"instance_guid"`
	Ref          AssessmentRef     `json:"ref"`
	IsCompleted  bool              `json:"is_completed"`
	IsDeclined   bool              `json:"is_declined"`
	IsEnabled    bool              `json:"is_enabled"`
	FinishedOn   *time.Time        `json:"finished_on,omitempty"`
	History      []AdherenceRecord `json:"history,omitempty"`
}

// ScheduledSession is one dated realization of a time window for a
// participant. It is rebuilt on every computation.
type ScheduledSession struct {
	InstanceGuid      string                 `json:"instance_guid"`
	SessionID         string                 `json:"session_id"`
	Label             string                 `json:"label"`
	WindowID          string                 `json:"window_id"`
	Occurrence        int                    `json:"occurrence"`
	TemplateOrder     int                    `json:"template_order"`
	StartEventID      string                 `json:"start_event_id"`
	AnchorTimestamp   time.Time              `json:"anchor_timestamp"`
	StartDateTime     time.Time              `json:"start_date_time"`
	EndDateTime       time.Time              `json:"end_date_time"`
	HasStartTimeOfDay bool                   `json:"has_start_time_of_day"`
	HasEndTimeOfDay   bool                   `json:"has_end_time_of_day"`
	Persistent        bool                   `json:"persistent"`
	PerformanceOrder  PerformanceOrder       `json:"performance_order"`
	Assessments       []ScheduledAssessment  `json:"assessments"`
	Notifications     []NotificationTemplate `json:"notifications,omitempty"`
	IsCompleted       bool                   `json:"is_completed"`
	FinishedOn        *time.Time             `json:"finished_on,omitempty"`
	State             SessionState           `json:"state,omitempty"`
}

// AvailableNow reports whether now lies inside the nominal window.
func (s *ScheduledSession) AvailableNow(now time.Time) bool {
	return !now.Before(s.StartDateTime) && !now.After(s.EndDateTime)
}

// IsExpired reports whether the window has closed unfinished. A persistent
// session only expires once every assessment was either completed or
// declined.
func (s *ScheduledSession) IsExpired(now time.Time) bool {
	if !now.After(s.EndDateTime) {
		return false
	}
	return !s.Persistent || s.IsDeclined()
}

// IsDeclined reports whether the participant has resolved every assessment
// and turned down at least one of them.
func (s *ScheduledSession) IsDeclined() bool {
	if len(s.Assessments) == 0 {
		return false
	}
	declined := false
	for _, a := range s.Assessments {
		if !a.IsCompleted && !a.IsDeclined {
			return false
		}
		declined = declined || a.IsDeclined
	}
	return declined
}

func (s *ScheduledSession) AssessmentByGuid(instanceGuid string) *ScheduledAssessment {
	for i := range s.Assessments {
		if s.Assessments[i].InstanceGuid == instanceGuid {
			return &s.Assessments[i]
		}
	}
	return nil
}

// Clone returns a deep copy that shares no slices with s.
func (s ScheduledSession) Clone() ScheduledSession {
	out := s
	out.Assessments = make([]ScheduledAssessment, len(s.Assessments))
	for i, a := range s.Assessments {
		a.History = append([]AdherenceRecord(nil), a.History...)
		out.Assessments[i] = a
	}
	out.Notifications = append([]NotificationTemplate(nil), s.Notifications...)
	return out
}
