package domain

import (
	"strings"
	"time"
)

type PerformanceOrder string

const (
	PerformanceOrderSequential PerformanceOrder = "sequential"
	PerformanceOrderAny        PerformanceOrder = "any"
)

// ParsePerformanceOrder maps upstream values onto the two orders the
// classifier distinguishes. Anything but "sequential" is free order.
func ParsePerformanceOrder(s string) PerformanceOrder {
	if strings.EqualFold(s, string(PerformanceOrderSequential)) {
		return PerformanceOrderSequential
	}
	return PerformanceOrderAny
}

func (p PerformanceOrder) String() string {
	return string(p)
}

func (p PerformanceOrder) IsSequential() bool {
	return p == PerformanceOrderSequential
}

type NotifyAt string

const (
	NotifyAtWindowStart NotifyAt = "after_window_start"
	NotifyAtWindowEnd   NotifyAt = "before_window_end"
)

type NotificationMessage struct {
	Lang    string `json:"lang,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NotificationTemplate keeps its durations as ISO-8601 strings; they are
// parsed when requests are built so a bad value only drops that template.
type NotificationTemplate struct {
	NotifyAt       NotifyAt            `json:"notify_at"`
	Offset         string              `json:"offset,omitempty"`
	RepeatInterval string              `json:"repeat_interval,omitempty"`
	AllowSnooze    bool                `json:"allow_snooze"`
	Message        NotificationMessage `json:"message"`
}

type AssessmentRef struct {
	Identifier        string `json:"identifier"`
	Guid              string `json:"guid,omitempty"`
	Label             string `json:"label,omitempty"`
	MinutesToComplete int    `json:"minutes_to_complete,omitempty"`
	InstanceGuid      string `json:"instance_guid,omitempty"`
}

type TimeWindowTemplate struct {
	WindowID      string                 `json:"window_id"`
	InstanceGuid  string                 `json:"instance_guid,omitempty"`
	StartDay      int                    `json:"start_day"`
	EndDay        int                    `json:"end_day"`
	StartTime     string                 `json:"start_time,omitempty"`
	Expiration    string                 `json:"expiration,omitempty"`
	Persistent    bool                   `json:"persistent"`
	Assessments   []AssessmentRef        `json:"assessments"`
	Notifications []NotificationTemplate `json:"notifications,omitempty"`
}

// Recurrence repeats every window of a session at a fixed interval.
type Recurrence struct {
	Interval    string `json:"interval"`
	Occurrences int    `json:"occurrences"`
}

type SessionTemplate struct {
	SessionID        string               `json:"session_id"`
	Label            string               `json:"label"`
	StartEventID     string               `json:"start_event_id"`
	PerformanceOrder PerformanceOrder     `json:"performance_order"`
	Repeat           *Recurrence          `json:"repeat,omitempty"`
	TimeWindows      []TimeWindowTemplate `json:"time_windows"`
}

// Timeline is the study-level schedule template shared by all participants.
type Timeline struct {
	StudyID  string            `json:"study_id"`
	Duration string            `json:"duration,omitempty"`
	Sessions []SessionTemplate `json:"sessions"`
}

func (t *Timeline) SessionCount() int {
	if t == nil {
		return 0
	}
	return len(t.Sessions)
}

type ActivityEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EventIndex returns the anchor instants keyed by event id. Later entries
// replace earlier ones with the same id.
func EventIndex(events []ActivityEvent) map[string]time.Time {
	index := make(map[string]time.Time, len(events))
	for _, e := range events {
		if e.EventID == "" || e.Timestamp.IsZero() {
			continue
		}
		index[e.EventID] = e.Timestamp
	}
	return index
}
