package repository

import "errors"

var (
	ErrInvalidTimelineData  = errors.New("invalid timeline data")
	ErrInvalidEventData     = errors.New("invalid activity event data")
	ErrInvalidAdherenceData = errors.New("invalid adherence data")
)
