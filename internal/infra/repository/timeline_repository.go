package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

const (
	timelineKeyPrefix  = "timeline:study:"
	eventKeyPrefix     = "timeline:events:"
	adherenceKeyPrefix = "timeline:adherence:"
	pendingKeyPrefix   = "timeline:pending:"

	timelineTTL    = 24 * time.Hour
	participantTTL = 120 * 24 * time.Hour // outlives the longest study
)

type eventRecord struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

type adherenceRecord struct {
	InstanceGuid   string          `json:"instance_guid"`
	EventTimestamp time.Time       `json:"event_timestamp"`
	StartedOn      time.Time       `json:"started_on"`
	FinishedOn     *time.Time      `json:"finished_on,omitempty"`
	Declined       bool            `json:"declined"`
	ClientData     json.RawMessage `json:"client_data,omitempty"`
	ClientTimeZone string          `json:"client_time_zone,omitempty"`
}

type timelineRepository struct {
	client *redis.Client
}

func NewTimelineRepository(client *redis.Client) domain.TimelineRepository {
	return &timelineRepository{
		client: client,
	}
}

func (r *timelineRepository) SaveTimeline(ctx context.Context, timeline *domain.Timeline) error {
	if timeline == nil || timeline.StudyID == "" {
		return ErrInvalidTimelineData
	}

	data, err := json.Marshal(timeline)
	if err != nil {
		return ErrInvalidTimelineData
	}

	return r.client.Set(ctx, timelineKeyPrefix+timeline.StudyID, data, timelineTTL).Err()
}

func (r *timelineRepository) GetTimeline(ctx context.Context, studyID string) (*domain.Timeline, error) {
	data, err := r.client.Get(ctx, timelineKeyPrefix+studyID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrTimelineNotFound
		}
		return nil, err
	}

	var timeline domain.Timeline
	if err := json.Unmarshal(data, &timeline); err != nil {
		return nil, ErrInvalidTimelineData
	}

	return &timeline, nil
}

// SaveEvent stores the latest timestamp for an event id; a second call for
// the same id replaces the first.
func (r *timelineRepository) SaveEvent(ctx context.Context, participantID string, event domain.ActivityEvent) error {
	if event.EventID == "" || event.Timestamp.IsZero() {
		return ErrInvalidEventData
	}

	data, err := json.Marshal(eventRecord{
		EventID:   event.EventID,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		return ErrInvalidEventData
	}

	key := eventKeyPrefix + participantID

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, event.EventID, data)
	pipe.Expire(ctx, key, participantTTL)

	_, err = pipe.Exec(ctx)
	return err
}

func (r *timelineRepository) ListEvents(ctx context.Context, participantID string) ([]domain.ActivityEvent, error) {
	values, err := r.client.HGetAll(ctx, eventKeyPrefix+participantID).Result()
	if err != nil {
		return nil, err
	}

	events := make([]domain.ActivityEvent, 0, len(values))
	for _, raw := range values {
		var record eventRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, ErrInvalidEventData
		}
		events = append(events, domain.ActivityEvent{
			EventID:   record.EventID,
			Timestamp: record.Timestamp,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].EventID < events[j].EventID
	})

	return events, nil
}

// SaveAdherence upserts records keyed by instance guid and start time.
func (r *timelineRepository) SaveAdherence(ctx context.Context, participantID string, records []domain.AdherenceRecord) error {
	if len(records) == 0 {
		return nil
	}

	key := adherenceKeyPrefix + participantID
	pipe := r.client.TxPipeline()

	for _, rec := range records {
		if rec.InstanceGuid == "" {
			return fmt.Errorf("%w: missing instance guid", ErrInvalidAdherenceData)
		}
		data, err := json.Marshal(adherenceRecord(rec))
		if err != nil {
			return ErrInvalidAdherenceData
		}
		pipe.HSet(ctx, key, rec.Key(), data)
	}
	pipe.Expire(ctx, key, participantTTL)

	_, err := pipe.Exec(ctx)
	return err
}

func (r *timelineRepository) ListAdherence(ctx context.Context, participantID string) ([]domain.AdherenceRecord, error) {
	values, err := r.client.HGetAll(ctx, adherenceKeyPrefix+participantID).Result()
	if err != nil {
		return nil, err
	}

	records := make([]domain.AdherenceRecord, 0, len(values))
	for _, raw := range values {
		var record adherenceRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, ErrInvalidAdherenceData
		}
		records = append(records, domain.AdherenceRecord(record))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Key() < records[j].Key()
	})

	return records, nil
}

// SavePendingNotifications replaces the set of registered notification ids
// for one participant and category.
func (r *timelineRepository) SavePendingNotifications(ctx context.Context, participantID, category string, ids []string) error {
	key := pendingKey(participantID, category)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(ids) > 0 {
		members := make([]any, 0, len(ids))
		for _, id := range ids {
			members = append(members, id)
		}
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, participantTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (r *timelineRepository) GetPendingNotifications(ctx context.Context, participantID, category string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, pendingKey(participantID, category)).Result()
	if err != nil {
		return nil, err
	}

	sort.Strings(ids)
	return ids, nil
}

func pendingKey(participantID, category string) string {
	return pendingKeyPrefix + participantID + ":" + category
}
