package period

import "errors"

var (
	ErrInvalidPeriod    = errors.New("invalid ISO-8601 period")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
)
