package studyapi

import (
	"encoding/json"
	"time"
)

type TimelineResponse struct {
	Duration    string           `json:"duration"`
	Assessments []AssessmentInfo `json:"assessments"`
	Sessions    []SessionInfo    `json:"sessions"`
	Schedule    []ScheduleEntry  `json:"schedule"`
}

type AssessmentInfo struct {
	Key               string `json:"key"`
	Guid              string `json:"guid"`
	Identifier        string `json:"identifier"`
	Label             string `json:"label"`
	MinutesToComplete int    `json:"minutesToComplete"`
}

type SessionInfo struct {
	Guid             string             `json:"guid"`
	Label            string             `json:"label"`
	StartEventID     string             `json:"startEventId"`
	PerformanceOrder string             `json:"performanceOrder"`
	Repeat           *RepeatInfo        `json:"repeat,omitempty"`
	Notifications    []NotificationInfo `json:"notifications"`
}

type RepeatInfo struct {
	Interval    string `json:"interval"`
	Occurrences int    `json:"occurrences"`
}

type NotificationInfo struct {
	NotifyAt    string        `json:"notifyAt"`
	Offset      string        `json:"offset"`
	Interval    string        `json:"interval"`
	AllowSnooze bool          `json:"allowSnooze"`
	Messages    []MessageInfo `json:"messages"`
}

type MessageInfo struct {
	Lang    string `json:"lang"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ScheduleEntry is one dated time window of a session.
type ScheduleEntry struct {
	InstanceGuid   string               `json:"instanceGuid"`
	StartDay       int                  `json:"startDay"`
	EndDay         int                  `json:"endDay"`
	StartTime      string               `json:"startTime"`
	Expiration     string               `json:"expiration"`
	Persistent     bool                 `json:"persistent"`
	Assessments    []ScheduleAssessment `json:"assessments"`
	TimeWindowGuid string               `json:"timeWindowGuid"`
	RefGuid        string               `json:"refGuid"`
}

type ScheduleAssessment struct {
	RefKey       string `json:"refKey"`
	InstanceGuid string `json:"instanceGuid"`
}

type EventsResponse struct {
	Items []EventItem `json:"items"`
}

type EventItem struct {
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

type AdherenceResponse struct {
	Items []AdherenceItem `json:"items"`
	Total int             `json:"total"`
}

type AdherenceItem struct {
	InstanceGuid   string          `json:"instanceGuid"`
	StartedOn      time.Time       `json:"startedOn"`
	FinishedOn     *time.Time      `json:"finishedOn,omitempty"`
	EventTimestamp time.Time       `json:"eventTimestamp"`
	Declined       bool            `json:"declined"`
	ClientData     json.RawMessage `json:"clientData,omitempty"`
	ClientTimeZone string          `json:"clientTimeZone,omitempty"`
}
