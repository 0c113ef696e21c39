package registry

import "time"

type NotificationTask struct {
	ParticipantID string    `json:"participant_id"`
	TaskName      string    `json:"-"`
	ScheduleAt    time.Time `json:"-"`

	NotificationID string `json:"notification_id"`
	ThreadID       string `json:"thread_id"`
	Category       string `json:"category"`
	Subject        string `json:"subject,omitempty"`
	Body           string `json:"body,omitempty"`
	AllowSnooze    bool   `json:"allow_snooze"`
	Repeats        bool   `json:"repeats"`
	Hour           int    `json:"hour,omitempty"`
	Minute         int    `json:"minute,omitempty"`
	TriggerAt      string `json:"trigger_at"`
}

type TaskResponse struct {
	Name         string    `json:"name"`
	ScheduleTime time.Time `json:"schedule_time"`
	CreateTime   time.Time `json:"create_time"`
}

type PrimindTaskRequest struct {
	Task PrimindTask `json:"task"`
}

type PrimindTask struct {
	Name         string             `json:"name,omitempty"`
	HTTPRequest  PrimindHTTPRequest `json:"httpRequest"`
	ScheduleTime string             `json:"scheduleTime,omitempty"`
}

type PrimindHTTPRequest struct {
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

type PrimindTaskResponse struct {
	Name         string `json:"name"`
	ScheduleTime string `json:"scheduleTime"`
	CreateTime   string `json:"createTime"`
}
