package timeline

import "errors"

var (
	ErrRegistryDisabled   = errors.New("notification registry is not configured")
	ErrParticipantMissing = errors.New("participant id is required")
	ErrPinnedRefresh      = errors.New("notification refresh cannot run at a pinned time")
)
