package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

func fixedExporter(now time.Time) *Exporter {
	return &Exporter{now: func() time.Time { return now }}
}

func testSessions() []domain.ScheduledSession {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return []domain.ScheduledSession{
		{
			InstanceGuid:  "inst-1",
			Label:         "Morning check-in",
			StartDateTime: start,
			EndDateTime:   start.Add(3 * time.Hour),
			State:         domain.SessionStateUpNext,
			Assessments: []domain.ScheduledAssessment{
				{InstanceGuid: "a-1", Ref: domain.AssessmentRef{Identifier: "mood", Label: "Mood survey"}},
				{InstanceGuid: "a-2", Ref: domain.AssessmentRef{Identifier: "sleep"}, IsCompleted: true},
			},
		},
		{
			InstanceGuid:  "inst-2",
			Label:         "Weekly diary",
			StartDateTime: start,
			EndDateTime:   start.AddDate(0, 0, 7),
			State:         domain.SessionStateAvailableNow,
		},
	}
}

func TestExporterBuild(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := testSessions()
	requests := []domain.NotificationRequest{
		{ID: domain.NotificationID("inst-1", sessions[0].StartDateTime), InstanceGuid: "inst-1", TriggerAt: sessions[0].StartDateTime, Subject: "Check in", Body: "Time for your survey"},
		{ID: domain.NotificationID("inst-2", sessions[1].StartDateTime), InstanceGuid: "inst-2", TriggerAt: sessions[1].StartDateTime, Repeats: true, Hour: 9, Subject: "Diary"},
	}

	cal := fixedExporter(now).Build(sessions, requests)

	var events []*ical.Component
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent {
			events = append(events, child)
		}
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}

	var session, reminder *ical.Component
	for _, ev := range events {
		uid := ev.Props.Get(ical.PropUID).Value
		switch {
		case uid == "inst-1@"+uidDomain:
			session = ev
		case strings.HasPrefix(uid, "inst-2-"):
			reminder = ev
		}
	}
	if session == nil || reminder == nil {
		t.Fatal("expected session and reminder events")
	}

	if len(session.Children) != 1 || session.Children[0].Name != ical.CompAlarm {
		t.Fatalf("session alarms = %d, want 1", len(session.Children))
	}
	trigger := session.Children[0].Props.Get(ical.PropTrigger)
	if trigger.Value != "20260302T090000Z" {
		t.Errorf("trigger = %q, want 20260302T090000Z", trigger.Value)
	}
	if got := session.Props.Get(ical.PropCategories).Value; got != "UP_NEXT" {
		t.Errorf("categories = %q, want UP_NEXT", got)
	}
	desc := session.Props.Get(ical.PropDescription).Value
	if !strings.Contains(desc, "[ ] Mood survey") || !strings.Contains(desc, "[x] sleep") {
		t.Errorf("description = %q", desc)
	}

	rule := reminder.Props.Get(ical.PropRecurrenceRule)
	if rule == nil || !strings.Contains(rule.Value, "FREQ=DAILY") {
		t.Errorf("reminder rrule = %v, want FREQ=DAILY", rule)
	}
}

func TestExporterExport(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := fixedExporter(now).Export(&buf, testSessions(), nil); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "PRODID:" + productID, "SUMMARY:Weekly diary", "DTSTART:20260302T090000Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "BEGIN:VALARM") {
		t.Error("no alarms expected without requests")
	}
}
