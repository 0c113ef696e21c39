package calendar

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

const (
	productID = "-//Primind//Session Timeline//EN"
	uidDomain = "session-timeline.primind.app"
)

// Exporter renders a participant timeline as an iCalendar feed: one VEVENT
// per session instance, a VALARM per one-shot reminder, and a daily
// recurring VEVENT for each degraded repeating reminder.
type Exporter struct {
	now func() time.Time
}

func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

func (e *Exporter) Build(sessions []domain.ScheduledSession, requests []domain.NotificationRequest) *ical.Calendar {
	stamp := e.now().UTC()

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	byInstance := make(map[string][]domain.NotificationRequest)
	for _, req := range requests {
		byInstance[req.InstanceGuid] = append(byInstance[req.InstanceGuid], req)
	}

	for i := range sessions {
		s := &sessions[i]
		event := sessionEvent(s, stamp)

		reqs := byInstance[s.InstanceGuid]
		sort.SliceStable(reqs, func(a, b int) bool { return reqs[a].TriggerAt.Before(reqs[b].TriggerAt) })

		for _, req := range reqs {
			if req.Repeats {
				cal.Children = append(cal.Children, reminderEvent(s, req, stamp).Component)
				continue
			}
			event.Children = append(event.Children, alarm(req, absoluteTrigger(req.TriggerAt)))
		}

		cal.Children = append(cal.Children, event.Component)
	}

	return cal
}

// Export writes the feed built from sessions and requests to w.
func (e *Exporter) Export(w io.Writer, sessions []domain.ScheduledSession, requests []domain.NotificationRequest) error {
	if err := ical.NewEncoder(w).Encode(e.Build(sessions, requests)); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func sessionEvent(s *domain.ScheduledSession, stamp time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, s.InstanceGuid+"@"+uidDomain)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	event.Props.SetDateTime(ical.PropDateTimeStart, s.StartDateTime.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, s.EndDateTime.UTC())
	event.Props.SetText(ical.PropSummary, s.Label)
	if s.State != "" {
		event.Props.SetText(ical.PropCategories, strings.ToUpper(s.State.String()))
	}
	if desc := describe(s); desc != "" {
		event.Props.SetText(ical.PropDescription, desc)
	}
	return event
}

func reminderEvent(s *domain.ScheduledSession, req domain.NotificationRequest, stamp time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, strings.ReplaceAll(req.ID, "|", "-")+"@"+uidDomain)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	event.Props.SetDateTime(ical.PropDateTimeStart, req.TriggerAt.UTC())
	event.Props.SetText(ical.PropSummary, req.Subject)
	event.Props.SetText(ical.PropRelatedTo, s.InstanceGuid+"@"+uidDomain)
	event.Props.SetRecurrenceRule(&rrule.ROption{
		Freq:  rrule.DAILY,
		Until: s.EndDateTime.UTC(),
	})

	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = "PT0S"
	event.Children = append(event.Children, alarm(req, trigger))
	return event
}

func alarm(req domain.NotificationRequest, trigger *ical.Prop) *ical.Component {
	comp := ical.NewComponent(ical.CompAlarm)
	comp.Props.SetText(ical.PropAction, "DISPLAY")
	comp.Props.Set(trigger)

	text := req.Subject
	if req.Body != "" {
		text = req.Subject + ": " + req.Body
	}
	comp.Props.SetText(ical.PropDescription, text)
	return comp
}

func absoluteTrigger(at time.Time) *ical.Prop {
	prop := ical.NewProp(ical.PropTrigger)
	prop.SetDateTime(at.UTC())
	prop.SetValueType(ical.ValueDateTime)
	return prop
}

func describe(s *domain.ScheduledSession) string {
	lines := make([]string, 0, len(s.Assessments))
	for _, a := range s.Assessments {
		name := a.Ref.Label
		if name == "" {
			name = a.Ref.Identifier
		}
		mark := "[ ]"
		if a.IsCompleted {
			mark = "[x]"
		}
		lines = append(lines, mark+" "+name)
	}
	return strings.Join(lines, "\n")
}
