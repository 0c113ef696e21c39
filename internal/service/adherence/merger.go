package adherence

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

// MergeReport counts records that were not applied.
type MergeReport struct {
	Applied int
	Unknown int
	Stale   int
}

type Merger struct {
	policy domain.StalePolicy
}

func NewMerger(policy domain.StalePolicy) *Merger {
	if !policy.IsValid() {
		policy = domain.StalePolicyDiscard
	}
	return &Merger{policy: policy}
}

func (m *Merger) Policy() domain.StalePolicy {
	return m.policy
}

type assessmentPos struct {
	session    int
	assessment int
}

// Merge returns copies of sessions with completion state derived from
// records. Records for unknown instances are ignored; records tied to a
// different anchor than the session's are handled by the stale policy.
func (m *Merger) Merge(ctx context.Context, sessions []domain.ScheduledSession, records []domain.AdherenceRecord) ([]domain.ScheduledSession, MergeReport) {
	var report MergeReport

	out := make([]domain.ScheduledSession, len(sessions))
	index := make(map[string]assessmentPos)
	for i, s := range sessions {
		out[i] = s.Clone()
		for j := range out[i].Assessments {
			a := &out[i].Assessments[j]
			a.IsCompleted = false
			a.IsDeclined = false
			a.FinishedOn = nil
			a.History = nil
			index[a.InstanceGuid] = assessmentPos{session: i, assessment: j}
		}
	}

	for _, r := range records {
		pos, ok := index[r.InstanceGuid]
		if !ok {
			report.Unknown++
			slog.DebugContext(ctx, "ignoring adherence record for unknown instance",
				slog.String("instance_guid", r.InstanceGuid),
			)
			continue
		}

		session := &out[pos.session]
		if m.policy == domain.StalePolicyDiscard && !sameAnchor(r.EventTimestamp, session.AnchorTimestamp) {
			report.Stale++
			slog.WarnContext(ctx, "discarding adherence record tied to a stale anchor",
				slog.String("event", "adherence.stale"),
				slog.String("instance_guid", r.InstanceGuid),
				slog.String("session_instance_guid", session.InstanceGuid),
				slog.Time("record_anchor", r.EventTimestamp),
				slog.Time("current_anchor", session.AnchorTimestamp),
			)
			continue
		}

		a := &session.Assessments[pos.assessment]
		a.History = append(a.History, r)
		report.Applied++
	}

	for i := range out {
		applyCompletion(&out[i])
	}

	return out, report
}

func applyCompletion(session *domain.ScheduledSession) {
	allCompleted := true
	var latest *time.Time

	for j := range session.Assessments {
		a := &session.Assessments[j]
		sort.SliceStable(a.History, func(x, y int) bool {
			return a.History[x].SortKey().Before(a.History[y].SortKey())
		})

		for _, r := range a.History {
			if r.IsCompletion() {
				a.IsCompleted = true
				finished := *r.FinishedOn
				a.FinishedOn = &finished
			}
		}
		if n := len(a.History); n > 0 && a.History[n-1].Declined {
			a.IsDeclined = true
		}

		if !a.IsCompleted {
			allCompleted = false
			continue
		}
		if latest == nil || a.FinishedOn.After(*latest) {
			latest = a.FinishedOn
		}
	}

	session.IsCompleted = allCompleted
	session.FinishedOn = nil
	if allCompleted && latest != nil {
		finished := *latest
		session.FinishedOn = &finished
	}
}

// Anchors are compared at millisecond precision, the resolution the
// upstream service serializes.
func sameAnchor(recordAnchor, sessionAnchor time.Time) bool {
	return recordAnchor.Truncate(time.Millisecond).Equal(sessionAnchor.Truncate(time.Millisecond))
}

// Combine unions remote and locally recorded adherence. For the same
// attempt a finished record beats an unfinished one and local beats remote.
func Combine(remote, local []domain.AdherenceRecord) []domain.AdherenceRecord {
	byKey := make(map[string]domain.AdherenceRecord, len(remote)+len(local))
	order := make([]string, 0, len(remote)+len(local))

	add := func(r domain.AdherenceRecord, preferOnTie bool) {
		key := r.Key()
		existing, ok := byKey[key]
		if !ok {
			byKey[key] = r
			order = append(order, key)
			return
		}
		if existing.FinishedOn == nil && r.FinishedOn != nil {
			byKey[key] = r
			return
		}
		if (existing.FinishedOn == nil) == (r.FinishedOn == nil) && preferOnTie {
			byKey[key] = r
		}
	}

	for _, r := range remote {
		add(r, false)
	}
	for _, r := range local {
		add(r, true)
	}

	out := make([]domain.AdherenceRecord, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out
}
