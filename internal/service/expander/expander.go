package expander

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/period"
)

var instanceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://primind.app/session-timeline/instance"))

// Report counts template entries that produced no instances.
type Report struct {
	Untriggered int
	Skipped     int
	Duplicates  int
}

type Expander struct{}

func NewExpander() *Expander {
	return &Expander{}
}

type windowSpec struct {
	startTime  *period.TimeOfDay
	expiration *period.Period
}

// Expand resolves every window of every triggered session into dated
// instances. Sessions whose start event is missing produce nothing, and a
// malformed window or recurrence is skipped without affecting the rest.
func (e *Expander) Expand(ctx context.Context, timeline *domain.Timeline, events map[string]time.Time, zone *time.Location) ([]domain.ScheduledSession, Report) {
	var report Report
	if timeline == nil {
		return nil, report
	}
	if zone == nil {
		zone = time.UTC
	}

	studyDuration := parseStudyDuration(ctx, timeline)

	sessions := make([]domain.ScheduledSession, 0)
	seen := make(map[string]struct{})
	templateOrder := 0

	for _, tmpl := range timeline.Sessions {
		anchor, ok := events[tmpl.StartEventID]
		if !ok {
			report.Untriggered++
			templateOrder += len(tmpl.TimeWindows)
			slog.DebugContext(ctx, "session not triggered yet",
				slog.String("session_id", tmpl.SessionID),
				slog.String("start_event_id", tmpl.StartEventID),
			)
			continue
		}

		occurrences, interval, err := parseRecurrence(tmpl.Repeat)
		if err != nil {
			report.Skipped += len(tmpl.TimeWindows)
			templateOrder += len(tmpl.TimeWindows)
			slog.WarnContext(ctx, "skipping session with malformed recurrence",
				slog.String("event", "timeline.expand.skip"),
				slog.String("session_id", tmpl.SessionID),
				slog.String("error", err.Error()),
			)
			continue
		}

		var studyEnd time.Time
		if studyDuration != nil {
			studyEnd = studyDuration.AddTo(period.StartOfDay(anchor, zone))
		}

		for _, window := range tmpl.TimeWindows {
			order := templateOrder
			templateOrder++

			spec, err := parseWindow(window)
			if err != nil {
				report.Skipped++
				slog.WarnContext(ctx, "skipping malformed time window",
					slog.String("event", "timeline.expand.skip"),
					slog.String("session_id", tmpl.SessionID),
					slog.String("window_id", window.WindowID),
					slog.String("error", err.Error()),
				)
				continue
			}

			for k := 0; k < occurrences; k++ {
				instance := buildInstance(tmpl, window, spec, anchor, zone, k, interval)
				if k > 0 && !studyEnd.IsZero() && !instance.StartDateTime.Before(studyEnd) {
					break
				}
				if _, dup := seen[instance.InstanceGuid]; dup {
					report.Duplicates++
					slog.WarnContext(ctx, "duplicate instance guid in schedule",
						slog.String("event", "timeline.expand.duplicate"),
						slog.String("instance_guid", instance.InstanceGuid),
					)
					continue
				}
				seen[instance.InstanceGuid] = struct{}{}
				instance.TemplateOrder = order
				sessions = append(sessions, instance)
			}
		}
	}

	return sessions, report
}

func buildInstance(
	tmpl domain.SessionTemplate,
	window domain.TimeWindowTemplate,
	spec windowSpec,
	anchor time.Time,
	zone *time.Location,
	occurrence int,
	interval period.Period,
) domain.ScheduledSession {
	shift := interval.Scale(occurrence)

	start := shift.AddTo(period.Resolve(anchor, window.StartDay, spec.startTime, zone))

	var end time.Time
	if spec.expiration != nil {
		end = spec.expiration.AddTo(start)
	} else {
		// Whole-day window covering startDay..endDay inclusive.
		end = shift.AddTo(period.Resolve(anchor, window.EndDay+1, nil, zone))
	}
	if end.Before(start) {
		end = start
	}

	instanceGuid := window.InstanceGuid
	if occurrence > 0 || instanceGuid == "" {
		key := window.WindowID
		if window.InstanceGuid != "" {
			key = window.InstanceGuid
		}
		instanceGuid = DeriveInstanceGuid(tmpl.SessionID, key, occurrence)
	}

	assessments := make([]domain.ScheduledAssessment, 0, len(window.Assessments))
	for i, ref := range window.Assessments {
		assessmentGuid := ref.InstanceGuid
		if occurrence > 0 || assessmentGuid == "" {
			key := ref.InstanceGuid
			if key == "" {
				key = instanceGuid + "|" + ref.Identifier + "|" + strconv.Itoa(i)
			}
			assessmentGuid = deriveAssessmentGuid(key, occurrence)
		}
		ref.InstanceGuid = assessmentGuid
		assessments = append(assessments, domain.ScheduledAssessment{
			InstanceGuid: assessmentGuid,
			Ref:          ref,
		})
	}

	endLocal := end.In(zone)
	hasEndTimeOfDay := endLocal.Hour() != 0 || endLocal.Minute() != 0 || endLocal.Second() != 0

	return domain.ScheduledSession{
		InstanceGuid:      instanceGuid,
		SessionID:         tmpl.SessionID,
		Label:             tmpl.Label,
		WindowID:          window.WindowID,
		Occurrence:        occurrence,
		StartEventID:      tmpl.StartEventID,
		AnchorTimestamp:   anchor,
		StartDateTime:     start,
		EndDateTime:       end,
		HasStartTimeOfDay: spec.startTime != nil,
		HasEndTimeOfDay:   hasEndTimeOfDay,
		Persistent:        window.Persistent,
		PerformanceOrder:  tmpl.PerformanceOrder,
		Assessments:       assessments,
		Notifications:     append([]domain.NotificationTemplate(nil), window.Notifications...),
	}
}

// DeriveInstanceGuid is the name-based guid for a window occurrence that
// has no upstream guid. windowKey is the upstream guid of occurrence 0
// when there is one, otherwise the window id.
func DeriveInstanceGuid(sessionID, windowKey string, occurrence int) string {
	name := sessionID + "|" + windowKey + "|" + strconv.Itoa(occurrence)
	return uuid.NewSHA1(instanceNamespace, []byte(name)).String()
}

// deriveAssessmentGuid names an assessment occurrence. assessmentKey is the
// upstream assessment guid, or the session instance, identifier and
// position when upstream sent none.
func deriveAssessmentGuid(assessmentKey string, occurrence int) string {
	name := assessmentKey + "|" + strconv.Itoa(occurrence)
	return uuid.NewSHA1(instanceNamespace, []byte(name)).String()
}

func parseWindow(window domain.TimeWindowTemplate) (windowSpec, error) {
	var spec windowSpec

	if window.StartDay < 0 || window.EndDay < window.StartDay {
		return spec, fmt.Errorf("%w: day range %d..%d", domain.ErrMalformedTemplate, window.StartDay, window.EndDay)
	}

	if window.StartTime != "" {
		tod, err := period.ParseTimeOfDay(window.StartTime)
		if err != nil {
			return spec, fmt.Errorf("%w: %w", domain.ErrMalformedTemplate, err)
		}
		spec.startTime = &tod
	}

	if window.Expiration != "" {
		exp, err := period.Parse(window.Expiration)
		if err != nil {
			return spec, fmt.Errorf("%w: %w", domain.ErrMalformedTemplate, err)
		}
		spec.expiration = &exp
	}

	return spec, nil
}

func parseRecurrence(repeat *domain.Recurrence) (int, period.Period, error) {
	if repeat == nil || repeat.Occurrences <= 1 {
		return 1, period.Period{}, nil
	}

	interval, err := period.Parse(repeat.Interval)
	if err != nil {
		return 0, period.Period{}, fmt.Errorf("%w: %w", domain.ErrMalformedTemplate, err)
	}
	if interval.IsZero() {
		return 0, period.Period{}, fmt.Errorf("%w: zero recurrence interval", domain.ErrMalformedTemplate)
	}

	return repeat.Occurrences, interval, nil
}

func parseStudyDuration(ctx context.Context, timeline *domain.Timeline) *period.Period {
	if timeline.Duration == "" {
		return nil
	}
	d, err := period.Parse(timeline.Duration)
	if err != nil {
		slog.WarnContext(ctx, "ignoring malformed study duration",
			slog.String("study_id", timeline.StudyID),
			slog.String("duration", timeline.Duration),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return &d
}
