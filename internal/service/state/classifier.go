package state

import (
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify derives the session state at now. The first matching rule wins:
// persistent and inside its window, completed, expired, not yet started,
// otherwise available. A persistent session past its end counts as expired
// once its assessments are all resolved with at least one declined.
func (c *Classifier) Classify(session *domain.ScheduledSession, now time.Time) domain.SessionState {
	switch {
	case session.Persistent && session.AvailableNow(now):
		return domain.SessionStateAvailableNow
	case session.IsCompleted:
		return domain.SessionStateCompleted
	case session.IsExpired(now):
		return domain.SessionStateExpired
	case now.Before(session.StartDateTime):
		return domain.SessionStateUpNext
	default:
		return domain.SessionStateAvailableNow
	}
}

// Apply returns copies of sessions with State and per-assessment IsEnabled
// set for now.
func (c *Classifier) Apply(sessions []domain.ScheduledSession, now time.Time) []domain.ScheduledSession {
	out := make([]domain.ScheduledSession, len(sessions))
	for i, s := range sessions {
		classified := s.Clone()
		classified.State = c.Classify(&classified, now)
		enableAssessments(&classified)
		out[i] = classified
	}
	return out
}

func enableAssessments(session *domain.ScheduledSession) {
	open := session.State == domain.SessionStateAvailableNow
	nextFound := false

	for i := range session.Assessments {
		a := &session.Assessments[i]
		if !open {
			a.IsEnabled = false
			continue
		}
		if !session.PerformanceOrder.IsSequential() {
			a.IsEnabled = true
			continue
		}
		// Only the first incomplete assessment is enabled in sequence.
		if !a.IsCompleted && !nextFound {
			a.IsEnabled = true
			nextFound = true
			continue
		}
		a.IsEnabled = false
	}
}

// NextTransition returns the earliest instant after now at which Classify
// may return a different state for session.
func (c *Classifier) NextTransition(session *domain.ScheduledSession, now time.Time) (time.Time, bool) {
	if now.Before(session.StartDateTime) {
		return session.StartDateTime, true
	}
	if session.Persistent {
		// Past its end a persistent session only changes on completion
		// or decline.
		if (session.IsCompleted || session.IsDeclined()) && !now.After(session.EndDateTime) {
			return session.EndDateTime.Add(time.Nanosecond), true
		}
		return time.Time{}, false
	}
	if session.IsCompleted || now.After(session.EndDateTime) {
		return time.Time{}, false
	}
	return session.EndDateTime.Add(time.Nanosecond), true
}

// Counts tallies sessions per state.
func Counts(sessions []domain.ScheduledSession) map[domain.SessionState]int {
	counts := make(map[domain.SessionState]int, 4)
	for _, s := range sessions {
		counts[s.State]++
	}
	return counts
}
