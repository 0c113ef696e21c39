package domain

import "time"

// NotificationRequest is a reminder entry handed to the notification
// registry. Repeating requests fire daily at Hour:Minute local time.
type NotificationRequest struct {
	ID           string    `json:"id"`
	InstanceGuid string    `json:"thread_id"`
	Category     string    `json:"category"`
	TriggerAt    time.Time `json:"trigger_at"`
	Repeats      bool      `json:"repeats"`
	Hour         int       `json:"hour,omitempty"`
	Minute       int       `json:"minute,omitempty"`
	AllowSnooze  bool      `json:"allow_snooze"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
}

// NotificationID is the registry key for a request.
func NotificationID(instanceGuid string, trigger time.Time) string {
	return instanceGuid + "|" + trigger.UTC().Format(time.RFC3339)
}
