package state

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/adherence"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/expander"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time {
	return &t
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		session domain.ScheduledSession
		now     time.Time
		want    domain.SessionState
	}{
		{
			name:    "before start is up next",
			session: domain.ScheduledSession{StartDateTime: base, EndDateTime: base.Add(time.Hour)},
			now:     base.Add(-time.Minute),
			want:    domain.SessionStateUpNext,
		},
		{
			name:    "at start is available",
			session: domain.ScheduledSession{StartDateTime: base, EndDateTime: base.Add(time.Hour)},
			now:     base,
			want:    domain.SessionStateAvailableNow,
		},
		{
			name:    "at end is still available",
			session: domain.ScheduledSession{StartDateTime: base, EndDateTime: base.Add(time.Hour)},
			now:     base.Add(time.Hour),
			want:    domain.SessionStateAvailableNow,
		},
		{
			name:    "after end is expired",
			session: domain.ScheduledSession{StartDateTime: base, EndDateTime: base.Add(time.Hour)},
			now:     base.Add(time.Hour + time.Second),
			want:    domain.SessionStateExpired,
		},
		{
			name:    "completed wins over expired",
			session: domain.ScheduledSession{StartDateTime: base, EndDateTime: base.Add(time.Hour), IsCompleted: true},
			now:     base.Add(2 * time.Hour),
			want:    domain.SessionStateCompleted,
		},
		{
			name:    "completed wins inside window",
			session: domain.ScheduledSession{StartDateTime: base, EndDateTime: base.Add(time.Hour), IsCompleted: true},
			now:     base.Add(time.Minute),
			want:    domain.SessionStateCompleted,
		},
		{
			name:    "persistent inside window stays available even when completed",
			session: domain.ScheduledSession{StartDateTime: base, EndDateTime: base.Add(time.Hour), Persistent: true, IsCompleted: true},
			now:     base.Add(time.Minute),
			want:    domain.SessionStateAvailableNow,
		},
		{
			name:    "persistent past end never expires",
			session: domain.ScheduledSession{StartDateTime: base, EndDateTime: base.Add(time.Hour), Persistent: true},
			now:     base.Add(72 * time.Hour),
			want:    domain.SessionStateAvailableNow,
		},
		{
			name: "persistent past end expires once declined",
			session: domain.ScheduledSession{
				StartDateTime: base, EndDateTime: base.Add(time.Hour), Persistent: true,
				Assessments: []domain.ScheduledAssessment{{InstanceGuid: "a", IsDeclined: true}},
			},
			now:  base.Add(72 * time.Hour),
			want: domain.SessionStateExpired,
		},
		{
			name: "persistent past end with a pending assessment stays available",
			session: domain.ScheduledSession{
				StartDateTime: base, EndDateTime: base.Add(time.Hour), Persistent: true,
				Assessments: []domain.ScheduledAssessment{
					{InstanceGuid: "a", IsDeclined: true},
					{InstanceGuid: "b"},
				},
			},
			now:  base.Add(72 * time.Hour),
			want: domain.SessionStateAvailableNow,
		},
		{
			name: "persistent declined inside window stays available",
			session: domain.ScheduledSession{
				StartDateTime: base, EndDateTime: base.Add(time.Hour), Persistent: true,
				Assessments: []domain.ScheduledAssessment{{InstanceGuid: "a", IsDeclined: true}},
			},
			now:  base.Add(time.Minute),
			want: domain.SessionStateAvailableNow,
		},
		{
			name:    "persistent past end completes",
			session: domain.ScheduledSession{StartDateTime: base, EndDateTime: base.Add(time.Hour), Persistent: true, IsCompleted: true},
			now:     base.Add(72 * time.Hour),
			want:    domain.SessionStateCompleted,
		},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(&tt.session, tt.now); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPersistentThreeDayWindowOpenedYesterday(t *testing.T) {
	now := base
	session := domain.ScheduledSession{
		InstanceGuid:  "persistent",
		StartDateTime: now.Add(-24 * time.Hour),
		EndDateTime:   now.Add(30 * time.Minute),
		Persistent:    true,
		Assessments:   []domain.ScheduledAssessment{{InstanceGuid: "a"}},
	}

	c := NewClassifier()
	for _, offset := range []time.Duration{0, 29 * time.Minute, 31 * time.Minute, 6 * time.Hour, 30 * 24 * time.Hour} {
		got := c.Apply([]domain.ScheduledSession{session}, now.Add(offset))[0]
		if got.State != domain.SessionStateAvailableNow {
			t.Errorf("at +%v state = %v, want available_now", offset, got.State)
		}
		if !got.Assessments[0].IsEnabled {
			t.Errorf("at +%v assessment should be enabled", offset)
		}
	}

	session.IsCompleted = true
	if got := c.Classify(&session, now.Add(time.Hour)); got != domain.SessionStateCompleted {
		t.Errorf("after completion past end state = %v, want completed", got)
	}
}

func TestPersistentDeclinedSessionLeavesOpenStates(t *testing.T) {
	end := base.Add(time.Hour)
	session := domain.ScheduledSession{
		InstanceGuid:  "persistent",
		StartDateTime: base,
		EndDateTime:   end,
		Persistent:    true,
		Assessments: []domain.ScheduledAssessment{
			{InstanceGuid: "a", IsCompleted: true},
			{InstanceGuid: "b", IsDeclined: true},
		},
	}
	c := NewClassifier()

	at, ok := c.NextTransition(&session, base.Add(time.Minute))
	if !ok || !at.Equal(end.Add(time.Nanosecond)) {
		t.Errorf("NextTransition() inside window = %v, %v, want %v", at, ok, end.Add(time.Nanosecond))
	}
	if got := c.Classify(&session, at); got != domain.SessionStateExpired {
		t.Errorf("state after end = %v, want expired", got)
	}
	if _, ok := c.NextTransition(&session, end.Add(time.Hour)); ok {
		t.Error("declined persistent session should have no boundary after its end")
	}

	got := c.Apply([]domain.ScheduledSession{session}, end.Add(time.Hour))[0]
	for _, a := range got.Assessments {
		if a.IsEnabled {
			t.Errorf("assessment %s enabled on an expired session", a.InstanceGuid)
		}
	}
}

func TestThreeWindowsAroundCurrentHour(t *testing.T) {
	currentHour := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	anchor := time.Date(2024, 6, 10, 6, 0, 0, 0, time.UTC)
	window := func(id string, hour int) domain.TimeWindowTemplate {
		return domain.TimeWindowTemplate{
			WindowID:   id,
			StartDay:   0,
			EndDay:     0,
			StartTime:  fmt.Sprintf("%02d:00", hour),
			Expiration: "PT59M",
		}
	}
	timeline := &domain.Timeline{
		Sessions: []domain.SessionTemplate{
			{
				SessionID:    "daily",
				StartEventID: "enrollment",
				TimeWindows:  []domain.TimeWindowTemplate{window("last", 11), window("current", 12), window("next", 13)},
			},
		},
	}

	sessions, _ := expander.NewExpander().Expand(context.Background(), timeline, map[string]time.Time{"enrollment": anchor}, time.UTC)
	classified := NewClassifier().Apply(sessions, currentHour.Add(15*time.Minute))

	counts := Counts(classified)
	if counts[domain.SessionStateAvailableNow] != 1 || counts[domain.SessionStateExpired] != 1 || counts[domain.SessionStateUpNext] != 1 {
		t.Errorf("unexpected state counts %v", counts)
	}
	if classified[1].State != domain.SessionStateAvailableNow {
		t.Errorf("current window state = %v", classified[1].State)
	}
}

func TestSequentialSessionWithAdherence(t *testing.T) {
	anchor := base
	session := domain.ScheduledSession{
		InstanceGuid:     "s",
		AnchorTimestamp:  anchor,
		StartDateTime:    anchor,
		EndDateTime:      anchor.Add(24 * time.Hour),
		PerformanceOrder: domain.PerformanceOrderSequential,
		Assessments: []domain.ScheduledAssessment{
			{InstanceGuid: "a-1"},
			{InstanceGuid: "a-2"},
		},
	}
	now := anchor.Add(6 * time.Hour)
	merger := adherence.NewMerger(domain.StalePolicyDiscard)
	classifier := NewClassifier()

	firstDone := anchor.Add(time.Hour)
	secondDone := anchor.Add(5 * time.Hour)

	merged, _ := merger.Merge(context.Background(), []domain.ScheduledSession{session}, []domain.AdherenceRecord{
		{InstanceGuid: "a-1", EventTimestamp: anchor, StartedOn: firstDone.Add(-time.Minute), FinishedOn: ptr(firstDone)},
	})
	got := classifier.Apply(merged, now)[0]

	if !got.Assessments[0].IsCompleted || got.Assessments[0].IsEnabled {
		t.Errorf("first assessment: completed=%v enabled=%v, want completed and disabled",
			got.Assessments[0].IsCompleted, got.Assessments[0].IsEnabled)
	}
	if !got.Assessments[1].IsEnabled {
		t.Error("second assessment should be enabled")
	}
	if got.State != domain.SessionStateAvailableNow {
		t.Errorf("state = %v, want available_now", got.State)
	}

	merged, _ = merger.Merge(context.Background(), []domain.ScheduledSession{session}, []domain.AdherenceRecord{
		{InstanceGuid: "a-1", EventTimestamp: anchor, StartedOn: firstDone.Add(-time.Minute), FinishedOn: ptr(firstDone)},
		{InstanceGuid: "a-2", EventTimestamp: anchor, StartedOn: secondDone.Add(-time.Minute), FinishedOn: ptr(secondDone)},
	})
	got = classifier.Apply(merged, now)[0]

	if got.State != domain.SessionStateCompleted {
		t.Errorf("state = %v, want completed", got.State)
	}
	if got.FinishedOn == nil || !got.FinishedOn.Equal(secondDone) {
		t.Errorf("FinishedOn = %v, want %v", got.FinishedOn, secondDone)
	}
}

func TestSequentialEnablesOnlyOne(t *testing.T) {
	session := domain.ScheduledSession{
		StartDateTime:    base,
		EndDateTime:      base.Add(time.Hour),
		PerformanceOrder: domain.PerformanceOrderSequential,
		Assessments: []domain.ScheduledAssessment{
			{InstanceGuid: "1"}, {InstanceGuid: "2", IsCompleted: true}, {InstanceGuid: "3"},
		},
	}
	got := NewClassifier().Apply([]domain.ScheduledSession{session}, base.Add(time.Minute))[0]

	enabled := 0
	for _, a := range got.Assessments {
		if a.IsEnabled {
			enabled++
		}
	}
	if enabled != 1 || !got.Assessments[0].IsEnabled {
		t.Errorf("expected only the first assessment enabled, got %+v", got.Assessments)
	}

	session.PerformanceOrder = domain.PerformanceOrderAny
	got = NewClassifier().Apply([]domain.ScheduledSession{session}, base.Add(time.Minute))[0]
	for _, a := range got.Assessments {
		if !a.IsEnabled {
			t.Errorf("free order assessment %s should be enabled", a.InstanceGuid)
		}
	}

	got = NewClassifier().Apply([]domain.ScheduledSession{session}, base.Add(-time.Minute))[0]
	for _, a := range got.Assessments {
		if a.IsEnabled {
			t.Errorf("assessment %s should be disabled before the window opens", a.InstanceGuid)
		}
	}
}

func TestStateIsMonotonic(t *testing.T) {
	sessions := []domain.ScheduledSession{
		{StartDateTime: base, EndDateTime: base.Add(time.Hour)},
		{StartDateTime: base, EndDateTime: base.Add(time.Hour), IsCompleted: true},
		{StartDateTime: base, EndDateTime: base.Add(time.Hour), Persistent: true},
		{StartDateTime: base.Add(30 * time.Minute), EndDateTime: base.Add(30 * time.Minute)},
		{StartDateTime: base.Add(-48 * time.Hour), EndDateTime: base.Add(48 * time.Hour)},
	}

	c := NewClassifier()
	for i := range sessions {
		prev := -1
		for step := -12; step <= 72; step++ {
			now := base.Add(time.Duration(step) * 10 * time.Minute)
			rank := c.Classify(&sessions[i], now).Rank()
			if rank < prev {
				t.Errorf("session %d moved backward at %v: rank %d after %d", i, now, rank, prev)
			}
			prev = rank
		}
	}
}

func TestExpandThenClassifyKeepsStartBeforeEnd(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	zone, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	expirations := []string{"", "PT1M", "PT30M", "PT2H", "PT23H", "P1D", "P3D", "P1DT6H", "P1W"}

	for iter := 0; iter < 200; iter++ {
		startDay := rng.Intn(14)
		window := domain.TimeWindowTemplate{
			WindowID:   fmt.Sprintf("w-%d", iter),
			StartDay:   startDay,
			EndDay:     startDay + rng.Intn(4),
			Expiration: expirations[rng.Intn(len(expirations))],
			Persistent: rng.Intn(2) == 0,
		}
		if rng.Intn(3) > 0 {
			window.StartTime = fmt.Sprintf("%02d:%02d", rng.Intn(24), rng.Intn(60))
		}
		timeline := &domain.Timeline{
			Sessions: []domain.SessionTemplate{{SessionID: "s", StartEventID: "e", TimeWindows: []domain.TimeWindowTemplate{window}}},
		}
		// Anchors around the 2024 spring and autumn transitions.
		anchor := time.Date(2024, time.Month(3+7*rng.Intn(2)), 20+rng.Intn(10), rng.Intn(24), 0, 0, 0, zone)

		sessions, _ := expander.NewExpander().Expand(context.Background(), timeline, map[string]time.Time{"e": anchor}, zone)
		classified := NewClassifier().Apply(sessions, anchor.Add(time.Duration(rng.Intn(400))*time.Hour))
		for _, s := range classified {
			if s.StartDateTime.After(s.EndDateTime) {
				t.Fatalf("window %+v anchored at %v: start %v after end %v", window, anchor, s.StartDateTime, s.EndDateTime)
			}
		}
	}
}

func TestNextTransition(t *testing.T) {
	c := NewClassifier()
	s := domain.ScheduledSession{StartDateTime: base, EndDateTime: base.Add(time.Hour)}

	next, ok := c.NextTransition(&s, base.Add(-time.Hour))
	if !ok || !next.Equal(base) {
		t.Errorf("before start NextTransition = %v, %v", next, ok)
	}

	next, ok = c.NextTransition(&s, base.Add(time.Minute))
	if !ok || !next.After(s.EndDateTime) {
		t.Errorf("inside window NextTransition = %v, %v", next, ok)
	}
	if got := c.Classify(&s, next); got != domain.SessionStateExpired {
		t.Errorf("state at transition = %v, want expired", got)
	}

	if _, ok := c.NextTransition(&s, base.Add(2*time.Hour)); ok {
		t.Error("expired session should have no further transition")
	}
}
