package domain

import "errors"

var (
	ErrTimelineNotFound     = errors.New("timeline not found")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrInvalidTimeZone      = errors.New("invalid time zone")
	ErrInvalidAdherence     = errors.New("invalid adherence record")
	ErrInvalidActivityEvent = errors.New("invalid activity event")
	ErrMalformedTemplate    = errors.New("malformed schedule template entry")
)
