package reconcile

import (
	"slices"
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeUpdated ChangeKind = "updated"
	ChangeRemoved ChangeKind = "removed"
)

// Field names the mutable parts of a session a patch may touch.
type Field string

const (
	FieldState            Field = "state"
	FieldStartDateTime    Field = "start_date_time"
	FieldEndDateTime      Field = "end_date_time"
	FieldIsCompleted      Field = "is_completed"
	FieldFinishedOn       Field = "finished_on"
	FieldAssessments      Field = "assessments"
	FieldNotifications    Field = "notifications"
	FieldLabel            Field = "label"
	FieldPersistent       Field = "persistent"
	FieldPerformanceOrder Field = "performance_order"
	FieldAnchorTimestamp  Field = "anchor_timestamp"
)

type Change struct {
	Kind         ChangeKind
	InstanceGuid string
	Fields       []Field
	Session      *domain.ScheduledSession
}

// Diff lists the fields of next that differ from prev.
func Diff(prev, next *domain.ScheduledSession) []Field {
	var fields []Field

	if prev.State != next.State {
		fields = append(fields, FieldState)
	}
	if !prev.StartDateTime.Equal(next.StartDateTime) || prev.HasStartTimeOfDay != next.HasStartTimeOfDay {
		fields = append(fields, FieldStartDateTime)
	}
	if !prev.EndDateTime.Equal(next.EndDateTime) || prev.HasEndTimeOfDay != next.HasEndTimeOfDay {
		fields = append(fields, FieldEndDateTime)
	}
	if prev.IsCompleted != next.IsCompleted {
		fields = append(fields, FieldIsCompleted)
	}
	if !equalTimePtr(prev.FinishedOn, next.FinishedOn) {
		fields = append(fields, FieldFinishedOn)
	}
	if !equalAssessments(prev.Assessments, next.Assessments) {
		fields = append(fields, FieldAssessments)
	}
	if !slices.Equal(prev.Notifications, next.Notifications) {
		fields = append(fields, FieldNotifications)
	}
	if prev.Label != next.Label {
		fields = append(fields, FieldLabel)
	}
	if prev.Persistent != next.Persistent {
		fields = append(fields, FieldPersistent)
	}
	if prev.PerformanceOrder != next.PerformanceOrder {
		fields = append(fields, FieldPerformanceOrder)
	}
	if !prev.AnchorTimestamp.Equal(next.AnchorTimestamp) {
		fields = append(fields, FieldAnchorTimestamp)
	}

	return fields
}

// Patch copies the listed fields from next into dst in place.
func Patch(dst, next *domain.ScheduledSession, fields []Field) {
	for _, f := range fields {
		switch f {
		case FieldState:
			dst.State = next.State
		case FieldStartDateTime:
			dst.StartDateTime = next.StartDateTime
			dst.HasStartTimeOfDay = next.HasStartTimeOfDay
		case FieldEndDateTime:
			dst.EndDateTime = next.EndDateTime
			dst.HasEndTimeOfDay = next.HasEndTimeOfDay
		case FieldIsCompleted:
			dst.IsCompleted = next.IsCompleted
		case FieldFinishedOn:
			dst.FinishedOn = copyTimePtr(next.FinishedOn)
		case FieldAssessments:
			c := next.Clone()
			dst.Assessments = c.Assessments
		case FieldNotifications:
			dst.Notifications = append([]domain.NotificationTemplate(nil), next.Notifications...)
		case FieldLabel:
			dst.Label = next.Label
		case FieldPersistent:
			dst.Persistent = next.Persistent
		case FieldPerformanceOrder:
			dst.PerformanceOrder = next.PerformanceOrder
		case FieldAnchorTimestamp:
			dst.AnchorTimestamp = next.AnchorTimestamp
		}
	}
}

func equalAssessments(a, b []domain.ScheduledAssessment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.InstanceGuid != y.InstanceGuid ||
			x.Ref != y.Ref ||
			x.IsCompleted != y.IsCompleted ||
			x.IsDeclined != y.IsDeclined ||
			x.IsEnabled != y.IsEnabled ||
			!equalTimePtr(x.FinishedOn, y.FinishedOn) ||
			len(x.History) != len(y.History) {
			return false
		}
		for j := range x.History {
			if x.History[j].Key() != y.History[j].Key() ||
				x.History[j].Declined != y.History[j].Declined ||
				!equalTimePtr(x.History[j].FinishedOn, y.History[j].FinishedOn) {
				return false
			}
		}
	}
	return true
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
