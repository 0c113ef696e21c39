//go:build !gcloud

package config

// Validate accepts an empty PRIMIND_TASKS_URL; registration is then
// disabled and timelines are still served.
func (c *TaskQueueConfig) Validate() error {
	if c.MaxRetries <= 0 {
		return ErrInvalidMaxRetries
	}
	return nil
}
