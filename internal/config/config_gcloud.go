//go:build gcloud

package config

import (
	"errors"
	"fmt"
)

// Validate requires a complete Cloud Tasks target; registration cannot be
// disabled in this build.
func (c *TaskQueueConfig) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"GCLOUD_PROJECT_ID", c.GCloudProjectID},
		{"GCLOUD_LOCATION_ID", c.GCloudLocationID},
		{"GCLOUD_QUEUE_ID", c.GCloudQueueID},
		{"GCLOUD_TARGET_URL", c.GCloudTargetURL},
	}

	var errs []error
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrTaskQueueSettingMissing, r.key))
		}
	}
	if c.MaxRetries <= 0 {
		errs = append(errs, ErrInvalidMaxRetries)
	}

	if len(errs) > 0 {
		return fmt.Errorf("task queue configuration errors: %w", errors.Join(errs...))
	}
	return nil
}
