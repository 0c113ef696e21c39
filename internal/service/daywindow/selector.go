package daywindow

import (
	"sort"
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/period"
)

type Options struct {
	// IncludeAllNotifications makes NotificationSessions span the whole
	// visible window instead of today only.
	IncludeAllNotifications bool
	// AlwaysIncludeNextDay appends tomorrow even while today has open work.
	AlwaysIncludeNextDay bool
}

type Selection struct {
	Sessions             []domain.ScheduledSession
	NotificationSessions []domain.ScheduledSession
	IncludesNextDay      bool
	StartOfToday         time.Time
	EndOfWindow          time.Time
}

type Selector struct{}

func NewSelector() *Selector {
	return &Selector{}
}

// SessionsForDay picks classified sessions overlapping the local day of now.
// Sessions that expired unfinished belong to history and are left out.
func (s *Selector) SessionsForDay(sessions []domain.ScheduledSession, now time.Time, zone *time.Location, opts Options) Selection {
	startOfToday := period.StartOfDay(now, zone)
	endOfToday := period.Resolve(now, 1, nil, zone)
	endOfTomorrow := period.Resolve(now, 2, nil, zone)

	today := make([]domain.ScheduledSession, 0)
	openToday := false
	for _, session := range sessions {
		if !session.StartDateTime.Before(endOfToday) || session.EndDateTime.Before(startOfToday) {
			continue
		}
		if session.State == domain.SessionStateExpired {
			continue
		}
		if session.State.IsOpen() {
			openToday = true
		}
		today = append(today, session)
	}
	sortByStart(today)

	selection := Selection{
		Sessions:             today,
		NotificationSessions: today,
		StartOfToday:         startOfToday,
		EndOfWindow:          endOfToday,
	}

	if openToday && !opts.AlwaysIncludeNextDay {
		return selection
	}

	tomorrow := make([]domain.ScheduledSession, 0)
	for _, session := range sessions {
		if session.StartDateTime.Before(endOfToday) || !session.StartDateTime.Before(endOfTomorrow) {
			continue
		}
		tomorrow = append(tomorrow, session)
	}
	sortByStart(tomorrow)

	combined := make([]domain.ScheduledSession, 0, len(today)+len(tomorrow))
	combined = append(combined, today...)
	combined = append(combined, tomorrow...)

	selection.Sessions = combined
	selection.IncludesNextDay = true
	selection.EndOfWindow = endOfTomorrow
	if opts.IncludeAllNotifications {
		selection.NotificationSessions = combined
	}

	return selection
}

// PastSessions returns every session whose window ended before now,
// excluding persistent sessions that are still open.
func (s *Selector) PastSessions(sessions []domain.ScheduledSession, now time.Time, newestFirst bool) []domain.ScheduledSession {
	past := make([]domain.ScheduledSession, 0)
	for _, session := range sessions {
		if !session.EndDateTime.Before(now) {
			continue
		}
		if session.State == domain.SessionStateAvailableNow {
			continue
		}
		past = append(past, session)
	}

	sortByStart(past)
	if newestFirst {
		for i, j := 0, len(past)-1; i < j; i, j = i+1, j-1 {
			past[i], past[j] = past[j], past[i]
		}
	}
	return past
}

func sortByStart(sessions []domain.ScheduledSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.StartDateTime.Equal(b.StartDateTime) {
			return a.StartDateTime.Before(b.StartDateTime)
		}
		if a.TemplateOrder != b.TemplateOrder {
			return a.TemplateOrder < b.TemplateOrder
		}
		return a.Occurrence < b.Occurrence
	})
}
