package timeline

import (
	"time"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/adherence"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/daywindow"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/expander"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/notification"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/reconcile"
)

const (
	TriggerRequest   = "request"
	TriggerWakeup    = "wakeup"
	TriggerAdherence = "adherence"
	TriggerEvent     = "event"
	TriggerRefresh   = "refresh"
)

type Options struct {
	StudyID  string
	TimeZone *time.Location
	Day      daywindow.Options
}

type ComputeRequest struct {
	ParticipantID string
	// Now pins the evaluation instant. A pinned computation is returned
	// but never published; zero means the service clock.
	Now time.Time
	// Zone overrides the service time zone. Results computed in another
	// zone are returned but not published to the view store.
	Zone    *time.Location
	Trigger string
}

type Computation struct {
	RunID         string
	ParticipantID string
	Now           time.Time
	Zone          *time.Location
	Sessions      []domain.ScheduledSession
	Expand        expander.Report
	Merge         adherence.MergeReport
	Notifications notification.Result
	Changes       []reconcile.Change
}

type DayView struct {
	Now           time.Time
	Selection     daywindow.Selection
	Notifications notification.Result
}

type HistoryView struct {
	Now      time.Time
	Sessions []domain.ScheduledSession
}

type RefreshResult struct {
	Notifications notification.Result
	Removed       int
	Registered    int
	Failed        int
}
