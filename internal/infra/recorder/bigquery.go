//go:build gcloud

package recorder

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

type bigQueryTimelineRecord struct {
	RecordedAt         time.Time `bigquery:"recorded_at"`
	RunID              string    `bigquery:"run_id"`
	ParticipantID      string    `bigquery:"participant_id"`
	ComputedAt         time.Time `bigquery:"computed_at"`
	InstanceCount      int64     `bigquery:"instance_count"`
	UpNextCount        int64     `bigquery:"up_next_count"`
	AvailableNowCount  int64     `bigquery:"available_now_count"`
	CompletedCount     int64     `bigquery:"completed_count"`
	ExpiredCount       int64     `bigquery:"expired_count"`
	NotificationCount  int64     `bigquery:"notification_count"`
	DroppedByCapCount  int64     `bigquery:"dropped_by_cap_count"`
	StaleRecordCount   int64     `bigquery:"stale_record_count"`
	UnknownRecordCount int64     `bigquery:"unknown_record_count"`
}

type bigQueryNotificationRecord struct {
	RecordedAt    time.Time `bigquery:"recorded_at"`
	RunID         string    `bigquery:"run_id"`
	ParticipantID string    `bigquery:"participant_id"`
	InstanceGuid  string    `bigquery:"instance_guid"`
	TriggerAt     time.Time `bigquery:"trigger_at"`
	Repeats       bool      `bigquery:"repeats"`
	Outcome       string    `bigquery:"outcome"`
}

type bigQueryRecorder struct {
	client               *bigquery.Client
	timelineInserter     *bigquery.Inserter
	notificationInserter *bigquery.Inserter
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.TimelineResultRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "timeline result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.BigQueryProjectID == "" {
		slog.WarnContext(ctx, "BigQuery project ID not configured, timeline result recording disabled")
		return NewNoopRecorder(), nil
	}

	client, err := bigquery.NewClient(ctx, cfg.BigQueryProjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create BigQuery client, timeline result recording disabled",
			slog.String("error", err.Error()),
			slog.String("project_id", cfg.BigQueryProjectID),
		)
		return NewNoopRecorder(), nil
	}

	dataset := client.Dataset(cfg.BigQueryDataset)

	slog.InfoContext(ctx, "timeline result recorder initialized",
		slog.String("type", "bigquery"),
		slog.String("project_id", cfg.BigQueryProjectID),
		slog.String("dataset", cfg.BigQueryDataset),
		slog.String("timeline_table", cfg.BigQueryTimelineTable),
		slog.String("notification_table", cfg.BigQueryNotificationTable),
	)

	return &bigQueryRecorder{
		client:               client,
		timelineInserter:     dataset.Table(cfg.BigQueryTimelineTable).Inserter(),
		notificationInserter: dataset.Table(cfg.BigQueryNotificationTable).Inserter(),
	}, nil
}

func (r *bigQueryRecorder) RecordTimelineResult(ctx context.Context, record domain.TimelineResultRecord) error {
	row := &bigQueryTimelineRecord{
		RecordedAt:         time.Now(),
		RunID:              record.RunID,
		ParticipantID:      record.ParticipantID,
		ComputedAt:         record.ComputedAt,
		InstanceCount:      int64(record.InstanceCount),
		UpNextCount:        int64(record.UpNextCount),
		AvailableNowCount:  int64(record.AvailableNowCount),
		CompletedCount:     int64(record.CompletedCount),
		ExpiredCount:       int64(record.ExpiredCount),
		NotificationCount:  int64(record.NotificationCount),
		DroppedByCapCount:  int64(record.DroppedByCapCount),
		StaleRecordCount:   int64(record.StaleRecordCount),
		UnknownRecordCount: int64(record.UnknownRecordCount),
	}

	if err := r.timelineInserter.Put(ctx, row); err != nil {
		slog.WarnContext(ctx, "failed to insert timeline result to BigQuery",
			slog.String("error", err.Error()),
			slog.String("participant_id", record.ParticipantID),
		)
	}

	return nil
}

func (r *bigQueryRecorder) RecordNotificationResults(ctx context.Context, records []domain.NotificationResultRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*bigQueryNotificationRecord, 0, len(records))
	for _, record := range records {
		rows = append(rows, &bigQueryNotificationRecord{
			RecordedAt:    now,
			RunID:         record.RunID,
			ParticipantID: record.ParticipantID,
			InstanceGuid:  record.InstanceGuid,
			TriggerAt:     record.TriggerAt,
			Repeats:       record.Repeats,
			Outcome:       record.Outcome,
		})
	}

	if err := r.notificationInserter.Put(ctx, rows); err != nil {
		slog.WarnContext(ctx, "failed to insert notification results to BigQuery",
			slog.String("error", err.Error()),
			slog.Int("record_count", len(records)),
		)
	}

	return nil
}

func (r *bigQueryRecorder) Flush(ctx context.Context) error {
	return nil
}

func (r *bigQueryRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
