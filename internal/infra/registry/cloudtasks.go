//go:build gcloud

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// taskClient is the subset of the Cloud Tasks API the registry calls.
type taskClient interface {
	CreateTask(ctx context.Context, req *taskspb.CreateTaskRequest, opts ...gax.CallOption) (*taskspb.Task, error)
	DeleteTask(ctx context.Context, req *taskspb.DeleteTaskRequest, opts ...gax.CallOption) error
	Close() error
}

type CloudTasksClient struct {
	client     taskClient
	projectID  string
	locationID string
	queueID    string
	targetURL  string
	maxRetries int
}

type CloudTasksConfig struct {
	ProjectID  string
	LocationID string
	QueueID    string
	TargetURL  string
	MaxRetries int
}

func NewCloudTasksClient(ctx context.Context, cfg CloudTasksConfig) (*CloudTasksClient, error) {
	client, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}
	return newCloudTasksClient(client, cfg), nil
}

func newCloudTasksClient(client taskClient, cfg CloudTasksConfig) *CloudTasksClient {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &CloudTasksClient{
		client:     client,
		projectID:  cfg.ProjectID,
		locationID: cfg.LocationID,
		queueID:    cfg.QueueID,
		targetURL:  cfg.TargetURL,
		maxRetries: maxRetries,
	}
}

func (c *CloudTasksClient) queuePath() string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", c.projectID, c.locationID, c.queueID)
}

func (c *CloudTasksClient) Register(ctx context.Context, task *NotificationTask) (*TaskResponse, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification task: %w", err)
	}

	cloudTask := &taskspb.Task{
		Name: c.queuePath() + "/tasks/" + task.TaskName,
		MessageType: &taskspb.Task_HttpRequest{
			HttpRequest: &taskspb.HttpRequest{
				HttpMethod: taskspb.HttpMethod_POST,
				Url:        c.targetURL,
				Headers: map[string]string{
					"Content-Type": "application/json",
				},
				Body: payload,
			},
		},
	}

	if !task.ScheduleAt.IsZero() {
		cloudTask.ScheduleTime = timestamppb.New(task.ScheduleAt)
	}

	req := &taskspb.CreateTaskRequest{
		Parent: c.queuePath(),
		Task:   cloudTask,
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := wait(ctx, attempt); err != nil {
				return nil, err
			}
		}

		resp, err := c.createTask(ctx, req, task.NotificationID)
		if err == nil {
			return resp, nil
		}
		// Names are unique per run, so an existing name means an earlier
		// attempt of this call went through.
		if status.Code(err) == codes.AlreadyExists {
			slog.DebugContext(ctx, "notification task already registered",
				slog.String("notification_id", task.NotificationID),
				slog.String("task_name", task.TaskName),
			)
			return &TaskResponse{Name: cloudTask.Name, ScheduleTime: task.ScheduleAt}, nil
		}
		lastErr = err
	}

	slog.ErrorContext(ctx, "all retries exhausted for notification registration",
		slog.String("event", "registry.register.fail"),
		slog.String("notification_id", task.NotificationID),
		slog.String("participant_id", task.ParticipantID),
		slog.Int("max_retries", c.maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return nil, fmt.Errorf("failed to register notification after %d retries: %w", c.maxRetries, lastErr)
}

func (c *CloudTasksClient) createTask(ctx context.Context, req *taskspb.CreateTaskRequest, notificationID string) (*TaskResponse, error) {
	createdTask, err := c.client.CreateTask(ctx, req)
	if err != nil {
		slog.WarnContext(ctx, "failed to create cloud task",
			slog.String("notification_id", notificationID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	var scheduleTime, createTime time.Time
	if createdTask.ScheduleTime != nil {
		scheduleTime = createdTask.ScheduleTime.AsTime()
	}
	if createdTask.CreateTime != nil {
		createTime = createdTask.CreateTime.AsTime()
	}

	return &TaskResponse{
		Name:         createdTask.Name,
		ScheduleTime: scheduleTime,
		CreateTime:   createTime,
	}, nil
}

func (c *CloudTasksClient) Delete(ctx context.Context, taskName string) error {
	taskPath := c.queuePath() + "/tasks/" + taskName

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := wait(ctx, attempt); err != nil {
				return err
			}
		}

		err := c.client.DeleteTask(ctx, &taskspb.DeleteTaskRequest{Name: taskPath})
		if err == nil || status.Code(err) == codes.NotFound {
			return nil
		}
		slog.WarnContext(ctx, "failed to delete cloud task",
			slog.String("task_name", taskName),
			slog.String("error", err.Error()),
		)
		lastErr = err
	}

	slog.ErrorContext(ctx, "all retries exhausted for notification deletion",
		slog.String("event", "registry.delete.fail"),
		slog.String("task_name", taskName),
		slog.Int("max_retries", c.maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return fmt.Errorf("failed to delete notification after %d retries: %w", c.maxRetries, lastErr)
}

func (c *CloudTasksClient) Close() error {
	return c.client.Close()
}

func wait(ctx context.Context, attempt int) error {
	backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}
