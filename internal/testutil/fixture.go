package testutil

import (
	"embed"
	"encoding/json"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

//go:embed testdata/*.json
var fixtures embed.FS

// AnotherTimeline is a 14 day study with four daily check-in windows and a
// follow-up session waiting on an event that never occurs.
const AnotherTimeline = "another_timeline.json"

func LoadTimeline(t *testing.T, name string) *domain.Timeline {
	t.Helper()

	data, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}

	var timeline domain.Timeline
	if err := json.Unmarshal(data, &timeline); err != nil {
		t.Fatalf("failed to decode fixture %s: %v", name, err)
	}
	return &timeline
}

// LoadZone loads an IANA zone or skips the test when tzdata is missing.
func LoadZone(t *testing.T, name string) *time.Location {
	t.Helper()

	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tzdata unavailable for %s: %v", name, err)
	}
	return loc
}
