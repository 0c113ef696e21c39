package expander

import (
	"context"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

func TestExpandResolvesWindows(t *testing.T) {
	zone := mustLoad(t, "America/Los_Angeles")
	anchor := time.Date(2023, 3, 11, 9, 0, 0, 0, zone)

	timeline := &domain.Timeline{
		StudyID: "study-1",
		Sessions: []domain.SessionTemplate{
			{
				SessionID:        "daily",
				StartEventID:     "enrollment",
				PerformanceOrder: domain.PerformanceOrderSequential,
				TimeWindows: []domain.TimeWindowTemplate{
					{WindowID: "morning", InstanceGuid: "g-0", StartDay: 1, EndDay: 1, StartTime: "08:00", Expiration: "PT2H"},
					{WindowID: "whole", InstanceGuid: "g-1", StartDay: 0, EndDay: 2},
				},
			},
		},
	}

	got, report := NewExpander().Expand(context.Background(), timeline, map[string]time.Time{"enrollment": anchor}, zone)
	if len(got) != 2 {
		t.Fatalf("expected 2 instances, got %d (report %+v)", len(got), report)
	}

	morning := got[0]
	if want := time.Date(2023, 3, 12, 8, 0, 0, 0, zone); !morning.StartDateTime.Equal(want) {
		t.Errorf("morning start = %v, want %v", morning.StartDateTime, want)
	}
	if want := time.Date(2023, 3, 12, 10, 0, 0, 0, zone); !morning.EndDateTime.Equal(want) {
		t.Errorf("morning end = %v, want %v", morning.EndDateTime, want)
	}
	if !morning.HasStartTimeOfDay || !morning.HasEndTimeOfDay {
		t.Errorf("morning should be clock-bound, got start=%v end=%v", morning.HasStartTimeOfDay, morning.HasEndTimeOfDay)
	}
	if morning.PerformanceOrder != domain.PerformanceOrderSequential {
		t.Errorf("PerformanceOrder = %v, want sequential", morning.PerformanceOrder)
	}

	whole := got[1]
	if want := time.Date(2023, 3, 11, 0, 0, 0, 0, zone); !whole.StartDateTime.Equal(want) {
		t.Errorf("whole-day start = %v, want %v", whole.StartDateTime, want)
	}
	if want := time.Date(2023, 3, 14, 0, 0, 0, 0, zone); !whole.EndDateTime.Equal(want) {
		t.Errorf("whole-day end = %v, want %v", whole.EndDateTime, want)
	}
	if whole.HasStartTimeOfDay || whole.HasEndTimeOfDay {
		t.Errorf("whole-day window should not be clock-bound")
	}
}

func TestExpandMissingAnchorProducesNothing(t *testing.T) {
	timeline := &domain.Timeline{
		Sessions: []domain.SessionTemplate{
			{
				SessionID:    "follow-up",
				StartEventID: "custom:surgery",
				TimeWindows:  []domain.TimeWindowTemplate{{WindowID: "w", StartDay: 0, EndDay: 0}},
			},
		},
	}

	got, report := NewExpander().Expand(context.Background(), timeline, map[string]time.Time{}, time.UTC)
	if len(got) != 0 {
		t.Errorf("expected no instances, got %d", len(got))
	}
	if report.Untriggered != 1 {
		t.Errorf("expected Untriggered 1, got %d", report.Untriggered)
	}
}

func TestExpandSkipsMalformedEntryOnly(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	timeline := &domain.Timeline{
		Sessions: []domain.SessionTemplate{
			{
				SessionID:    "s1",
				StartEventID: "enrollment",
				TimeWindows: []domain.TimeWindowTemplate{
					{WindowID: "bad-duration", StartDay: 0, EndDay: 0, Expiration: "three hours"},
					{WindowID: "bad-time", StartDay: 0, EndDay: 0, StartTime: "25:00"},
					{WindowID: "bad-days", StartDay: 3, EndDay: 1},
					{WindowID: "good", StartDay: 0, EndDay: 0, StartTime: "13:00", Expiration: "PT1H"},
				},
			},
			{
				SessionID:    "s2",
				StartEventID: "enrollment",
				TimeWindows:  []domain.TimeWindowTemplate{{WindowID: "other", StartDay: 1, EndDay: 1}},
			},
		},
	}

	got, report := NewExpander().Expand(context.Background(), timeline, map[string]time.Time{"enrollment": anchor}, time.UTC)
	if len(got) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(got))
	}
	if report.Skipped != 3 {
		t.Errorf("expected Skipped 3, got %d", report.Skipped)
	}
	if got[0].WindowID != "good" || got[1].WindowID != "other" {
		t.Errorf("unexpected windows %q, %q", got[0].WindowID, got[1].WindowID)
	}
}

func TestExpandIsIdempotent(t *testing.T) {
	anchor := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)
	timeline := &domain.Timeline{
		Duration: "P14D",
		Sessions: []domain.SessionTemplate{
			{
				SessionID:    "weekly",
				StartEventID: "enrollment",
				Repeat:       &domain.Recurrence{Interval: "P7D", Occurrences: 3},
				TimeWindows: []domain.TimeWindowTemplate{
					{
						WindowID:    "w",
						StartDay:    0,
						EndDay:      0,
						StartTime:   "09:00",
						Expiration:  "PT8H",
						Assessments: []domain.AssessmentRef{{Identifier: "mood"}, {Identifier: "sleep"}},
					},
				},
			},
		},
	}
	events := map[string]time.Time{"enrollment": anchor}

	first, _ := NewExpander().Expand(context.Background(), timeline, events, time.UTC)
	second, _ := NewExpander().Expand(context.Background(), timeline, events, time.UTC)

	// P14D bounds the third weekly occurrence out.
	if len(first) != 2 {
		t.Fatalf("expected 2 occurrences within study duration, got %d", len(first))
	}
	if len(first) != len(second) {
		t.Fatalf("length mismatch %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].InstanceGuid != second[i].InstanceGuid {
			t.Errorf("instance %d guid changed: %s vs %s", i, first[i].InstanceGuid, second[i].InstanceGuid)
		}
		if !first[i].StartDateTime.Equal(second[i].StartDateTime) || !first[i].EndDateTime.Equal(second[i].EndDateTime) {
			t.Errorf("instance %d dates changed", i)
		}
		for j := range first[i].Assessments {
			if first[i].Assessments[j].InstanceGuid != second[i].Assessments[j].InstanceGuid {
				t.Errorf("assessment %d/%d guid changed", i, j)
			}
		}
	}
	if first[0].InstanceGuid == first[1].InstanceGuid {
		t.Error("occurrences must have distinct guids")
	}
	if want := time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC); !first[1].StartDateTime.Equal(want) {
		t.Errorf("second occurrence start = %v, want %v", first[1].StartDateTime, want)
	}
}

func TestExpandPreservesUpstreamGuids(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timeline := &domain.Timeline{
		Sessions: []domain.SessionTemplate{
			{
				SessionID:    "s",
				StartEventID: "enrollment",
				TimeWindows: []domain.TimeWindowTemplate{
					{
						WindowID:     "w",
						InstanceGuid: "upstream-session-guid",
						Assessments:  []domain.AssessmentRef{{Identifier: "a", InstanceGuid: "upstream-assessment-guid"}},
					},
				},
			},
		},
	}

	got, _ := NewExpander().Expand(context.Background(), timeline, map[string]time.Time{"enrollment": anchor}, time.UTC)
	if len(got) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(got))
	}
	if got[0].InstanceGuid != "upstream-session-guid" {
		t.Errorf("InstanceGuid = %q", got[0].InstanceGuid)
	}
	if got[0].Assessments[0].InstanceGuid != "upstream-assessment-guid" {
		t.Errorf("assessment InstanceGuid = %q", got[0].Assessments[0].InstanceGuid)
	}
}

func TestExpandDerivesLaterAssessmentGuidsFromUpstreamGuid(t *testing.T) {
	anchor := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	build := func(refs ...domain.AssessmentRef) *domain.Timeline {
		return &domain.Timeline{
			Duration: "P14D",
			Sessions: []domain.SessionTemplate{
				{
					SessionID:    "weekly",
					StartEventID: "enrollment",
					Repeat:       &domain.Recurrence{Interval: "P7D", Occurrences: 2},
					TimeWindows: []domain.TimeWindowTemplate{
						{
							WindowID:     "w",
							InstanceGuid: "upstream-session-guid",
							StartTime:    "09:00",
							Expiration:   "PT8H",
							Assessments:  refs,
						},
					},
				},
			},
		}
	}
	mood := domain.AssessmentRef{Identifier: "mood", InstanceGuid: "upstream-mood"}
	sleep := domain.AssessmentRef{Identifier: "sleep", InstanceGuid: "upstream-sleep"}
	events := map[string]time.Time{"enrollment": anchor}

	got, _ := NewExpander().Expand(context.Background(), build(mood, sleep), events, time.UTC)
	if len(got) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(got))
	}
	if got[0].Assessments[0].InstanceGuid != "upstream-mood" {
		t.Errorf("occurrence 0 guid = %q, want upstream-mood", got[0].Assessments[0].InstanceGuid)
	}
	want := deriveAssessmentGuid("upstream-mood", 1)
	if got[1].Assessments[0].InstanceGuid != want {
		t.Errorf("occurrence 1 guid = %q, want %q", got[1].Assessments[0].InstanceGuid, want)
	}
	if got[1].Assessments[0].Ref.InstanceGuid != want {
		t.Errorf("occurrence 1 ref guid = %q, want %q", got[1].Assessments[0].Ref.InstanceGuid, want)
	}

	// Reordering the refs must not move adherence between assessments.
	reordered, _ := NewExpander().Expand(context.Background(), build(sleep, mood), events, time.UTC)
	if reordered[1].Assessments[1].InstanceGuid != want {
		t.Errorf("reordered mood guid = %q, want %q", reordered[1].Assessments[1].InstanceGuid, want)
	}
	if reordered[1].Assessments[0].InstanceGuid != got[1].Assessments[1].InstanceGuid {
		t.Error("reordered sleep guid changed")
	}
}

func TestExpandNeverProducesInvertedWindow(t *testing.T) {
	anchor := time.Date(2024, 3, 30, 22, 0, 0, 0, time.UTC)
	expirations := []string{"", "PT0S", "PT1M", "PT23H", "P1D", "P3D", "-PT2H", "P1M"}

	for _, exp := range expirations {
		timeline := &domain.Timeline{
			Sessions: []domain.SessionTemplate{
				{
					SessionID:    "s",
					StartEventID: "e",
					TimeWindows:  []domain.TimeWindowTemplate{{WindowID: "w", StartDay: 0, EndDay: 1, StartTime: "23:30", Expiration: exp}},
				},
			},
		}
		got, _ := NewExpander().Expand(context.Background(), timeline, map[string]time.Time{"e": anchor}, time.UTC)
		for _, s := range got {
			if s.StartDateTime.After(s.EndDateTime) {
				t.Errorf("expiration %q: start %v after end %v", exp, s.StartDateTime, s.EndDateTime)
			}
		}
	}
}
