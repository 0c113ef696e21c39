package config

import "errors"

var (
	ErrRedisAddrMissing   = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB     = errors.New("REDIS_DB must be a valid integer")
	ErrStudyAPIURLMissing = errors.New("STUDY_API_URL environment variable is required")
	ErrStudyIDMissing     = errors.New("STUDY_ID environment variable is required")
	ErrInvalidTimeZone    = errors.New("TIMELINE_TIME_ZONE must be an IANA time zone name")
	ErrInvalidStalePolicy = errors.New("ADHERENCE_STALE_POLICY must be discard or accept")
	ErrInvalidDotEnv      = errors.New("failed to load .env file")

	ErrTaskQueueSettingMissing = errors.New("task queue setting is required")
	ErrInvalidMaxRetries       = errors.New("TASK_QUEUE_MAX_RETRIES must be positive")
)
