package registry

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=registry.go -destination=mock.go -package=registry

// Registry is the external sink that delivers notification requests to a
// participant's device at their trigger time.
type Registry interface {
	Register(ctx context.Context, task *NotificationTask) (*TaskResponse, error)
	// Delete removes a task by the name it was registered under.
	Delete(ctx context.Context, taskName string) error
}

var taskNamespace = uuid.MustParse("2f1c7f0e-4d3a-5b8e-9a61-0c5e3b7d9a12")

// TaskName maps a notification id and the run registering it onto a name
// the task queues accept. Notification ids carry '|' and ':' which queue
// names reject. A deleted name stays reserved by Cloud Tasks for about an
// hour, so every refresh run registers under fresh names.
func TaskName(notificationID, runID string) string {
	return uuid.NewSHA1(taskNamespace, []byte(notificationID+"|"+runID)).String()
}
