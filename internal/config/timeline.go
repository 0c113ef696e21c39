package config

import (
	"fmt"
	"os"
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

const (
	timeZoneEnv                = "TIMELINE_TIME_ZONE"
	alwaysIncludeNextDayEnv    = "TIMELINE_ALWAYS_INCLUDE_NEXT_DAY"
	includeAllNotificationsEnv = "TIMELINE_INCLUDE_ALL_NOTIFICATIONS"
	stalePolicyEnv             = "ADHERENCE_STALE_POLICY"

	defaultTimeZone = "UTC"
)

type TimelineConfig struct {
	TimeZone                *time.Location
	AlwaysIncludeNextDay    bool
	IncludeAllNotifications bool
	StalePolicy             domain.StalePolicy
}

func LoadTimelineConfig() (*TimelineConfig, error) {
	name := os.Getenv(timeZoneEnv)
	if name == "" {
		name = defaultTimeZone
	}
	zone, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimeZone, name)
	}

	policy := domain.StalePolicyDiscard
	if raw := os.Getenv(stalePolicyEnv); raw != "" {
		policy = domain.StalePolicy(raw)
		if !policy.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStalePolicy, raw)
		}
	}

	return &TimelineConfig{
		TimeZone:                zone,
		AlwaysIncludeNextDay:    parseBool(alwaysIncludeNextDayEnv, false),
		IncludeAllNotifications: parseBool(includeAllNotificationsEnv, false),
		StalePolicy:             policy,
	}, nil
}
