package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/studyapi"
)

// loadTimeline reads either the internal template document or, when
// upstream is set, a study service timeline response.
func loadTimeline(ctx context.Context, path string, upstream bool, studyID, lang string) (*domain.Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timeline: %w", err)
	}

	if upstream {
		var resp studyapi.TimelineResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode study timeline %s: %w", path, err)
		}
		return studyapi.ConvertTimeline(ctx, studyID, &resp, lang), nil
	}

	var tmpl domain.Timeline
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("failed to decode timeline %s: %w", path, err)
	}
	return &tmpl, nil
}

func loadEvents(path string, inline []string) ([]domain.ActivityEvent, error) {
	var events []domain.ActivityEvent
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read events: %w", err)
		}
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, fmt.Errorf("failed to decode events %s: %w", path, err)
		}
	}

	for _, kv := range inline {
		id, ts, ok := strings.Cut(kv, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: %q, expected id=RFC3339", domain.ErrInvalidActivityEvent, kv)
		}
		at, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", domain.ErrInvalidActivityEvent, kv, err)
		}
		events = append(events, domain.ActivityEvent{EventID: id, Timestamp: at})
	}
	return events, nil
}

func loadAdherence(path string) ([]domain.AdherenceRecord, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read adherence: %w", err)
	}
	var records []domain.AdherenceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode adherence %s: %w", path, err)
	}
	return records, nil
}
