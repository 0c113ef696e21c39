//go:build !gcloud

package recorder

import (
	"context"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.TimelineResultRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "timeline result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, timeline result recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	slog.InfoContext(ctx, "timeline result recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: writeAPI,
		bucket:   cfg.InfluxDBBucket,
		org:      cfg.InfluxDBOrg,
	}, nil
}

func (r *influxDBRecorder) RecordTimelineResult(ctx context.Context, record domain.TimelineResultRecord) error {
	point := timelinePoint(record)

	if err := r.writeAPI.WritePoint(ctx, point); err != nil {
		slog.WarnContext(ctx, "failed to write timeline result to InfluxDB",
			slog.String("error", err.Error()),
			slog.String("participant_id", record.ParticipantID),
			slog.String("run_id", record.RunID),
		)
	}

	return nil
}

func (r *influxDBRecorder) RecordNotificationResults(ctx context.Context, records []domain.NotificationResultRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*write.Point, 0, len(records))
	for _, record := range records {
		points = append(points, notificationPoint(record))
	}

	if err := r.writeAPI.WritePoint(ctx, points...); err != nil {
		slog.WarnContext(ctx, "failed to write notification results to InfluxDB",
			slog.String("error", err.Error()),
			slog.Int("record_count", len(records)),
		)
	}

	return nil
}

func timelinePoint(record domain.TimelineResultRecord) *write.Point {
	runID := record.RunID
	if runID == "" {
		runID = "default"
	}

	pointTime := record.ComputedAt
	if pointTime.IsZero() {
		pointTime = time.Now()
	}

	return influxdb2.NewPoint(
		"timeline_result",
		map[string]string{
			"run_id":         runID,
			"participant_id": record.ParticipantID,
		},
		map[string]any{
			"instance_count":       record.InstanceCount,
			"up_next_count":        record.UpNextCount,
			"available_now_count":  record.AvailableNowCount,
			"completed_count":      record.CompletedCount,
			"expired_count":        record.ExpiredCount,
			"notification_count":   record.NotificationCount,
			"dropped_by_cap_count": record.DroppedByCapCount,
			"stale_record_count":   record.StaleRecordCount,
			"unknown_record_count": record.UnknownRecordCount,
		},
		pointTime,
	)
}

func notificationPoint(record domain.NotificationResultRecord) *write.Point {
	runID := record.RunID
	if runID == "" {
		runID = "default"
	}

	return influxdb2.NewPoint(
		"notification_result",
		map[string]string{
			"run_id":         runID,
			"participant_id": record.ParticipantID,
			"outcome":        record.Outcome,
		},
		map[string]any{
			"instance_guid": record.InstanceGuid,
			"repeats":       record.Repeats,
			"trigger_unix":  record.TriggerAt.Unix(),
		},
		time.Now(),
	)
}

func (r *influxDBRecorder) Flush(ctx context.Context) error {
	return nil
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
