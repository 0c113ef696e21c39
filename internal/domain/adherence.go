package domain

import (
	"encoding/json"
	"time"
)

// AdherenceRecord is evidence that a participant started, finished or
// declined one assessment instance relative to a specific anchor.
type AdherenceRecord struct {
	InstanceGuid   string          `json:"instance_guid"`
	EventTimestamp time.Time       `json:"event_timestamp"`
	StartedOn      time.Time       `json:"started_on"`
	FinishedOn     *time.Time      `json:"finished_on,omitempty"`
	Declined       bool            `json:"declined"`
	ClientData     json.RawMessage `json:"client_data,omitempty"`
	ClientTimeZone string          `json:"client_time_zone,omitempty"`
}

// SortKey orders records by completion, falling back to start time for
// records that never finished.
func (r AdherenceRecord) SortKey() time.Time {
	if r.FinishedOn != nil {
		return *r.FinishedOn
	}
	return r.StartedOn
}

func (r AdherenceRecord) IsCompletion() bool {
	return r.FinishedOn != nil && !r.Declined
}

// Key identifies one attempt of one assessment instance.
func (r AdherenceRecord) Key() string {
	return r.InstanceGuid + "|" + r.StartedOn.UTC().Format(time.RFC3339Nano)
}

type StalePolicy string

const (
	// StalePolicyDiscard ignores records whose anchor no longer matches.
	StalePolicyDiscard StalePolicy = "discard"
	// StalePolicyAccept applies records regardless of their anchor.
	StalePolicyAccept StalePolicy = "accept"
)

func (p StalePolicy) IsValid() bool {
	return p == StalePolicyDiscard || p == StalePolicyAccept
}
