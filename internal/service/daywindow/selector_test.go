package daywindow

import (
	"context"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/adherence"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/expander"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/state"
	"github.com/KasumiMercury/primind-session-timeline/internal/testutil"
)

type fixture struct {
	zone     *time.Location
	anchor   time.Time
	sessions []domain.ScheduledSession
}

// Enrollment on 2023-03-11 puts day 1 on the US spring-forward date.
func loadFixture(t *testing.T) fixture {
	t.Helper()
	zone := testutil.LoadZone(t, "America/Los_Angeles")
	anchor := time.Date(2023, 3, 11, 9, 0, 0, 0, zone)
	timeline := testutil.LoadTimeline(t, testutil.AnotherTimeline)

	sessions, _ := expander.NewExpander().Expand(context.Background(), timeline, map[string]time.Time{"enrollment": anchor}, zone)
	return fixture{zone: zone, anchor: anchor, sessions: sessions}
}

func (f fixture) at(t *testing.T, now time.Time, records []domain.AdherenceRecord) []domain.ScheduledSession {
	t.Helper()
	merged, _ := adherence.NewMerger(domain.StalePolicyDiscard).Merge(context.Background(), f.sessions, records)
	return state.NewClassifier().Apply(merged, now)
}

func TestSessionsForDayAnotherTimeline(t *testing.T) {
	f := loadFixture(t)
	if len(f.sessions) != 56 {
		t.Fatalf("expected 56 instances from the 14 day fixture, got %d", len(f.sessions))
	}

	now := time.Date(2023, 3, 11, 17, 0, 0, 0, f.zone)
	got := NewSelector().SessionsForDay(f.at(t, now, nil), now, f.zone, Options{AlwaysIncludeNextDay: true})

	if len(got.Sessions) != 6 {
		t.Fatalf("expected 6 sessions, got %d", len(got.Sessions))
	}
	if !got.IncludesNextDay {
		t.Error("expected next day to be included")
	}

	wantWindows := []string{"afternoon", "evening", "morning", "midday", "afternoon", "evening"}
	wantHours := []int{14, 18, 8, 11, 14, 18}
	for i, s := range got.Sessions {
		if s.WindowID != wantWindows[i] {
			t.Errorf("session %d window = %s, want %s", i, s.WindowID, wantWindows[i])
		}
		local := s.StartDateTime.In(f.zone)
		if local.Hour() != wantHours[i] || local.Minute() != 0 {
			t.Errorf("session %d local start = %v, want %02d:00", i, local, wantHours[i])
		}
	}

	tomorrowMorning := got.Sessions[2]
	if _, offset := tomorrowMorning.StartDateTime.In(f.zone).Zone(); offset != -7*3600 {
		t.Errorf("tomorrow morning offset = %d, want PDT", offset)
	}
	if want := time.Date(2023, 3, 12, 15, 0, 0, 0, time.UTC); !tomorrowMorning.StartDateTime.Equal(want) {
		t.Errorf("tomorrow morning start = %v, want %v", tomorrowMorning.StartDateTime.UTC(), want)
	}
	if d := tomorrowMorning.EndDateTime.Sub(tomorrowMorning.StartDateTime); d != 2*time.Hour {
		t.Errorf("tomorrow morning length = %v, want 2h", d)
	}

	if got.Sessions[0].State != domain.SessionStateAvailableNow || got.Sessions[1].State != domain.SessionStateUpNext {
		t.Errorf("today states = %v, %v", got.Sessions[0].State, got.Sessions[1].State)
	}
}

func TestSessionsForDayNextDayRules(t *testing.T) {
	f := loadFixture(t)

	tests := []struct {
		name             string
		now              time.Time
		opts             Options
		wantSessions     int
		wantNotification int
		wantNextDay      bool
	}{
		{
			name:             "open work today keeps the window to today",
			now:              time.Date(2023, 3, 11, 17, 0, 0, 0, f.zone),
			wantSessions:     2,
			wantNotification: 2,
		},
		{
			name:             "exhausted day appends tomorrow",
			now:              time.Date(2023, 3, 11, 22, 0, 0, 0, f.zone),
			wantSessions:     4,
			wantNotification: 0,
			wantNextDay:      true,
		},
		{
			name:             "notifications span the visible window when requested",
			now:              time.Date(2023, 3, 11, 17, 0, 0, 0, f.zone),
			opts:             Options{AlwaysIncludeNextDay: true, IncludeAllNotifications: true},
			wantSessions:     6,
			wantNotification: 6,
			wantNextDay:      true,
		},
		{
			name:             "notifications stay on today by default",
			now:              time.Date(2023, 3, 11, 17, 0, 0, 0, f.zone),
			opts:             Options{AlwaysIncludeNextDay: true},
			wantSessions:     6,
			wantNotification: 2,
			wantNextDay:      true,
		},
		{
			name:         "last study day has no tomorrow",
			now:          time.Date(2023, 3, 24, 22, 0, 0, 0, f.zone),
			wantSessions: 0,
			wantNextDay:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSelector().SessionsForDay(f.at(t, tt.now, nil), tt.now, f.zone, tt.opts)
			if len(got.Sessions) != tt.wantSessions {
				t.Errorf("expected %d sessions, got %d", tt.wantSessions, len(got.Sessions))
			}
			if len(got.NotificationSessions) != tt.wantNotification {
				t.Errorf("expected %d notification sessions, got %d", tt.wantNotification, len(got.NotificationSessions))
			}
			if got.IncludesNextDay != tt.wantNextDay {
				t.Errorf("IncludesNextDay = %v, want %v", got.IncludesNextDay, tt.wantNextDay)
			}
		})
	}
}

func TestSessionsForDayKeepsCompletedToday(t *testing.T) {
	f := loadFixture(t)
	now := time.Date(2023, 3, 11, 17, 0, 0, 0, f.zone)
	finished := time.Date(2023, 3, 11, 8, 30, 0, 0, f.zone)

	records := []domain.AdherenceRecord{
		{InstanceGuid: "mood-d00-morning", EventTimestamp: f.anchor, StartedOn: finished.Add(-5 * time.Minute), FinishedOn: &finished},
		{InstanceGuid: "symbol-d00-morning", EventTimestamp: f.anchor, StartedOn: finished.Add(-2 * time.Minute), FinishedOn: &finished},
	}

	got := NewSelector().SessionsForDay(f.at(t, now, records), now, f.zone, Options{})
	if len(got.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(got.Sessions))
	}
	if got.Sessions[0].WindowID != "morning" || got.Sessions[0].State != domain.SessionStateCompleted {
		t.Errorf("first session = %s/%s, want completed morning", got.Sessions[0].WindowID, got.Sessions[0].State)
	}
}

func TestPastSessions(t *testing.T) {
	f := loadFixture(t)
	now := time.Date(2023, 3, 11, 17, 0, 0, 0, f.zone)
	sessions := f.at(t, now, nil)

	oldest := NewSelector().PastSessions(sessions, now, false)
	if len(oldest) != 2 {
		t.Fatalf("expected 2 past sessions, got %d", len(oldest))
	}
	if oldest[0].WindowID != "morning" || oldest[1].WindowID != "midday" {
		t.Errorf("oldest-first order = %s, %s", oldest[0].WindowID, oldest[1].WindowID)
	}

	newest := NewSelector().PastSessions(sessions, now, true)
	if newest[0].WindowID != "midday" {
		t.Errorf("newest-first starts with %s, want midday", newest[0].WindowID)
	}

	later := time.Date(2023, 3, 13, 12, 0, 0, 0, f.zone)
	if got := NewSelector().PastSessions(f.at(t, later, nil), later, false); len(got) != 9 {
		t.Errorf("expected 9 past sessions at day 2 noon, got %d", len(got))
	}
}

func TestPastSessionsSkipsOpenPersistent(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	sessions := []domain.ScheduledSession{
		{InstanceGuid: "open", StartDateTime: now.Add(-72 * time.Hour), EndDateTime: now.Add(-48 * time.Hour), Persistent: true},
		{InstanceGuid: "done", StartDateTime: now.Add(-72 * time.Hour), EndDateTime: now.Add(-48 * time.Hour), IsCompleted: true},
	}
	sessions = state.NewClassifier().Apply(sessions, now)

	got := NewSelector().PastSessions(sessions, now, false)
	if len(got) != 1 || got[0].InstanceGuid != "done" {
		t.Errorf("expected only the completed session, got %+v", got)
	}
}

func TestPastSessionsIncludesDeclinedPersistent(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	sessions := []domain.ScheduledSession{
		{
			InstanceGuid:  "declined",
			StartDateTime: now.Add(-72 * time.Hour),
			EndDateTime:   now.Add(-48 * time.Hour),
			Persistent:    true,
			Assessments:   []domain.ScheduledAssessment{{InstanceGuid: "a", IsDeclined: true}},
		},
		{
			InstanceGuid:  "open",
			StartDateTime: now.Add(-72 * time.Hour),
			EndDateTime:   now.Add(-48 * time.Hour),
			Persistent:    true,
			Assessments:   []domain.ScheduledAssessment{{InstanceGuid: "b"}},
		},
	}
	sessions = state.NewClassifier().Apply(sessions, now)

	got := NewSelector().PastSessions(sessions, now, false)
	if len(got) != 1 || got[0].InstanceGuid != "declined" {
		t.Fatalf("expected only the declined session, got %+v", got)
	}
	if got[0].State != domain.SessionStateExpired {
		t.Errorf("state = %v, want expired", got[0].State)
	}
}
