package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/registry"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/studyapi"
	"github.com/KasumiMercury/primind-session-timeline/internal/observability/metrics"
	"github.com/KasumiMercury/primind-session-timeline/internal/observability/tracing"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/adherence"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/daywindow"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/expander"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/notification"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/reconcile"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/refresh"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/state"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/wakeup"
)

type Service struct {
	studyAPI    studyapi.StudyRepository
	repo        domain.TimelineRepository
	registry    registry.Registry
	recorder    domain.TimelineResultRecorder
	expander    *expander.Expander
	merger      *adherence.Merger
	classifier  *state.Classifier
	selector    *daywindow.Selector
	builder     *notification.Builder
	store       *reconcile.Store
	scheduler   *wakeup.Scheduler
	coordinator *refresh.Coordinator
	metrics     *metrics.TimelineMetrics
	opts        Options
	now         func() time.Time
}

func NewService(
	studyAPI studyapi.StudyRepository,
	repo domain.TimelineRepository,
	notificationRegistry registry.Registry,
	recorder domain.TimelineResultRecorder,
	merger *adherence.Merger,
	builder *notification.Builder,
	store *reconcile.Store,
	timelineMetrics *metrics.TimelineMetrics,
	opts Options,
) *Service {
	if opts.TimeZone == nil {
		opts.TimeZone = time.UTC
	}
	s := &Service{
		studyAPI:   studyAPI,
		repo:       repo,
		registry:   notificationRegistry,
		recorder:   recorder,
		expander:   expander.NewExpander(),
		merger:     merger,
		classifier: state.NewClassifier(),
		selector:   daywindow.NewSelector(),
		builder:    builder,
		store:      store,
		metrics:    timelineMetrics,
		opts:       opts,
		now:        time.Now,
	}
	s.scheduler = wakeup.NewScheduler(s.onWakeup)
	return s
}

// Start enables background recomputation. It must be called before
// ingestion requests are served; requests submitted earlier are dropped.
func (s *Service) Start(ctx context.Context) {
	s.coordinator = refresh.NewCoordinator(ctx, s.Recompute)
}

// Run drives state-boundary wake-ups until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	return s.scheduler.Run(ctx)
}

// Wait blocks until queued recomputations have drained.
func (s *Service) Wait() {
	if s.coordinator != nil {
		s.coordinator.Wait()
	}
}

func (s *Service) Store() *reconcile.Store {
	return s.store
}

func (s *Service) Scheduler() *wakeup.Scheduler {
	return s.scheduler
}

// Compute derives the classified timeline of one participant as of now.
func (s *Service) Compute(ctx context.Context, req ComputeRequest) (*Computation, error) {
	if req.ParticipantID == "" {
		return nil, ErrParticipantMissing
	}
	// Only live evaluations feed the view store and the wake-up heap.
	live := req.Now.IsZero()
	if live {
		req.Now = s.now()
	}
	if req.Trigger == "" {
		req.Trigger = TriggerRequest
	}
	zone := req.Zone
	if zone == nil {
		zone = s.opts.TimeZone
	}

	started := time.Now()
	ctx, span := tracing.StartComputeSpan(ctx, req.ParticipantID, req.Now)
	defer span.End()

	comp, err := s.compute(ctx, req, zone)
	if err != nil {
		tracing.RecordComputeResult(span, 0, 0, 0, err)
		if s.metrics != nil {
			s.metrics.RecordComputation(ctx, req.Trigger, "error", time.Since(started))
		}
		return nil, err
	}
	tracing.RecordComputeResult(span, len(comp.Sessions), comp.Merge.Stale, comp.Merge.Unknown, nil)

	if live && zone == s.opts.TimeZone {
		comp.Changes = s.store.Apply(req.ParticipantID, comp.Sessions)
		s.scheduler.Replace(req.ParticipantID, s.wakeups(req.ParticipantID, comp.Sessions, req.Now))
	}

	comp.Notifications = s.buildNotifications(ctx, comp)

	counts := state.Counts(comp.Sessions)
	if s.metrics != nil {
		s.metrics.RecordComputation(ctx, req.Trigger, "success", time.Since(started))
		byName := make(map[string]int, len(counts))
		for st, n := range counts {
			byName[st.String()] = n
		}
		s.metrics.RecordSessionStates(ctx, byName)
		s.metrics.RecordAdherence(ctx, comp.Merge.Applied, comp.Merge.Unknown, comp.Merge.Stale)
	}

	s.recordTimeline(ctx, comp, counts)

	slog.DebugContext(ctx, "timeline computed",
		slog.String("event", "timeline.compute"),
		slog.String("participant_id", req.ParticipantID),
		slog.String("trigger", req.Trigger),
		slog.Int("instance_count", len(comp.Sessions)),
		slog.Int("change_count", len(comp.Changes)),
		slog.Duration("duration", time.Since(started)),
	)

	return comp, nil
}

func (s *Service) compute(ctx context.Context, req ComputeRequest, zone *time.Location) (*Computation, error) {
	tmpl, err := s.loadTimeline(ctx)
	if err != nil {
		return nil, err
	}

	events, err := s.loadEvents(ctx, req.ParticipantID)
	if err != nil {
		return nil, err
	}

	records := s.loadAdherence(ctx, req.ParticipantID)

	sessions, expandReport := s.expander.Expand(ctx, tmpl, domain.EventIndex(events), zone)
	sessions, mergeReport := s.merger.Merge(ctx, sessions, records)
	sessions = s.classifier.Apply(sessions, req.Now)

	return &Computation{
		RunID:         uuid.NewString(),
		ParticipantID: req.ParticipantID,
		Now:           req.Now,
		Zone:          zone,
		Sessions:      sessions,
		Expand:        expandReport,
		Merge:         mergeReport,
	}, nil
}

// loadTimeline prefers the study service and keeps the redis copy current;
// the cached copy is used only while the service is unreachable.
func (s *Service) loadTimeline(ctx context.Context) (*domain.Timeline, error) {
	fetchCtx, span := tracing.StartFetchSpan(ctx, "timeline")
	defer span.End()

	tmpl, err := s.studyAPI.GetTimeline(fetchCtx, s.opts.StudyID)
	if err == nil {
		if saveErr := s.repo.SaveTimeline(ctx, tmpl); saveErr != nil {
			slog.WarnContext(ctx, "failed to cache timeline",
				slog.String("event", "timeline.cache.fail"),
				slog.String("study_id", s.opts.StudyID),
				slog.String("error", saveErr.Error()),
			)
		}
		return tmpl, nil
	}
	if errors.Is(err, domain.ErrTimelineNotFound) {
		tracing.RecordError(span, err)
		return nil, err
	}

	slog.WarnContext(ctx, "study service unavailable, using cached timeline",
		slog.String("event", "timeline.fetch.fallback"),
		slog.String("study_id", s.opts.StudyID),
		slog.String("error", err.Error()),
	)

	cached, cacheErr := s.repo.GetTimeline(ctx, s.opts.StudyID)
	if cacheErr != nil {
		joined := errors.Join(err, cacheErr)
		tracing.RecordError(span, joined)
		return nil, fmt.Errorf("failed to load timeline: %w", joined)
	}
	return cached, nil
}

// loadEvents returns remote events followed by local ones so that a
// locally recorded event replaces the remote anchor with the same id.
func (s *Service) loadEvents(ctx context.Context, participantID string) ([]domain.ActivityEvent, error) {
	fetchCtx, span := tracing.StartFetchSpan(ctx, "activity_events")
	defer span.End()

	local, err := s.repo.ListEvents(ctx, participantID)
	if err != nil {
		slog.WarnContext(ctx, "failed to read local activity events",
			slog.String("event", "timeline.events.local.fail"),
			slog.String("participant_id", participantID),
			slog.String("error", err.Error()),
		)
		local = nil
	}

	remote, err := s.studyAPI.GetActivityEvents(fetchCtx, participantID)
	if err != nil {
		if errors.Is(err, domain.ErrParticipantNotFound) && len(local) == 0 {
			tracing.RecordError(span, err)
			return nil, err
		}
		slog.WarnContext(ctx, "failed to fetch activity events",
			slog.String("event", "timeline.events.remote.fail"),
			slog.String("participant_id", participantID),
			slog.String("error", err.Error()),
		)
		remote = nil
	}

	return append(remote, local...), nil
}

func (s *Service) loadAdherence(ctx context.Context, participantID string) []domain.AdherenceRecord {
	fetchCtx, span := tracing.StartFetchSpan(ctx, "adherence")
	defer span.End()

	remote, err := s.studyAPI.GetAdherence(fetchCtx, s.opts.StudyID, participantID)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch adherence records",
			slog.String("event", "timeline.adherence.remote.fail"),
			slog.String("participant_id", participantID),
			slog.String("error", err.Error()),
		)
		remote = nil
	}

	local, err := s.repo.ListAdherence(ctx, participantID)
	if err != nil {
		slog.WarnContext(ctx, "failed to read local adherence records",
			slog.String("event", "timeline.adherence.local.fail"),
			slog.String("participant_id", participantID),
			slog.String("error", err.Error()),
		)
		local = nil
	}

	return adherence.Combine(remote, local)
}

func (s *Service) wakeups(participantID string, sessions []domain.ScheduledSession, now time.Time) []wakeup.Wakeup {
	out := make([]wakeup.Wakeup, 0, len(sessions))
	for i := range sessions {
		at, ok := s.classifier.NextTransition(&sessions[i], now)
		if !ok {
			continue
		}
		out = append(out, wakeup.Wakeup{
			At:            at,
			ParticipantID: participantID,
			InstanceGuid:  sessions[i].InstanceGuid,
		})
	}
	return out
}

// Today selects the sessions relevant to the participant's current day.
func (s *Service) Today(ctx context.Context, req ComputeRequest, opts daywindow.Options) (*DayView, error) {
	comp, err := s.Compute(ctx, req)
	if err != nil {
		return nil, err
	}

	selection := s.selector.SessionsForDay(comp.Sessions, comp.Now, comp.Zone, opts)
	return &DayView{
		Now:           comp.Now,
		Selection:     selection,
		Notifications: s.builder.Build(ctx, selection.NotificationSessions, comp.Now, comp.Zone),
	}, nil
}

func (s *Service) TimeZone() *time.Location {
	return s.opts.TimeZone
}

// DayOptions returns the configured day-window defaults.
func (s *Service) DayOptions() daywindow.Options {
	return s.opts.Day
}

// History lists sessions that ended before now.
func (s *Service) History(ctx context.Context, req ComputeRequest, newestFirst bool) (*HistoryView, error) {
	comp, err := s.Compute(ctx, req)
	if err != nil {
		return nil, err
	}
	return &HistoryView{
		Now:      comp.Now,
		Sessions: s.selector.PastSessions(comp.Sessions, comp.Now, newestFirst),
	}, nil
}

// Notifications builds reminder requests over the full schedule without
// touching the registry.
func (s *Service) Notifications(ctx context.Context, req ComputeRequest) (notification.Result, error) {
	comp, err := s.Compute(ctx, req)
	if err != nil {
		return notification.Result{}, err
	}
	return comp.Notifications, nil
}

func (s *Service) buildNotifications(ctx context.Context, comp *Computation) notification.Result {
	result := s.builder.Build(ctx, comp.Sessions, comp.Now, comp.Zone)
	if s.metrics != nil {
		s.metrics.RecordNotifications(ctx, len(result.Requests)-result.Degraded, result.Dropped, result.Degraded)
	}
	return result
}

// IngestAdherence stores locally reported adherence and schedules a
// recomputation with a notification refresh.
func (s *Service) IngestAdherence(ctx context.Context, participantID string, records []domain.AdherenceRecord) error {
	if participantID == "" {
		return ErrParticipantMissing
	}
	for _, r := range records {
		if r.InstanceGuid == "" || r.StartedOn.IsZero() {
			return fmt.Errorf("%w: instance guid and startedOn are required", domain.ErrInvalidAdherence)
		}
	}

	if err := s.repo.SaveAdherence(ctx, participantID, records); err != nil {
		return fmt.Errorf("failed to save adherence: %w", err)
	}

	s.submit(refresh.Request{
		ParticipantID:        participantID,
		Now:                  s.now(),
		Reason:               TriggerAdherence,
		RefreshNotifications: true,
	})
	return nil
}

// RecordEvent stores a locally observed activity event and schedules a
// recomputation with a notification refresh.
func (s *Service) RecordEvent(ctx context.Context, participantID string, event domain.ActivityEvent) error {
	if participantID == "" {
		return ErrParticipantMissing
	}
	if event.EventID == "" || event.Timestamp.IsZero() {
		return fmt.Errorf("%w: event id and timestamp are required", domain.ErrInvalidActivityEvent)
	}

	if err := s.repo.SaveEvent(ctx, participantID, event); err != nil {
		return fmt.Errorf("failed to save activity event: %w", err)
	}

	s.submit(refresh.Request{
		ParticipantID:        participantID,
		Now:                  s.now(),
		Reason:               TriggerEvent,
		RefreshNotifications: true,
	})
	return nil
}

func (s *Service) submit(req refresh.Request) {
	if s.coordinator == nil {
		slog.Warn("recomputation dropped before start",
			slog.String("event", "timeline.refresh.drop"),
			slog.String("participant_id", req.ParticipantID),
			slog.String("reason", req.Reason),
		)
		return
	}
	s.coordinator.Submit(req)
}

// Recompute is the coordinator callback. Requests are evaluated at the
// time they run, not when they were submitted.
func (s *Service) Recompute(ctx context.Context, req refresh.Request) error {
	computeReq := ComputeRequest{
		ParticipantID: req.ParticipantID,
		Trigger:       req.Reason,
	}

	if !req.RefreshNotifications || s.registry == nil {
		_, err := s.Compute(ctx, computeReq)
		return err
	}

	_, err := s.RefreshNotifications(ctx, computeReq)
	return err
}

func (s *Service) onWakeup(ctx context.Context, participantID string, at time.Time) {
	if s.metrics != nil {
		s.metrics.RecordWakeup(ctx)
	}
	slog.DebugContext(ctx, "session boundary reached",
		slog.String("event", "timeline.wakeup"),
		slog.String("participant_id", participantID),
		slog.Time("at", at),
	)
	s.submit(refresh.Request{
		ParticipantID: participantID,
		Now:           at,
		Reason:        TriggerWakeup,
	})
}

func (s *Service) recordTimeline(ctx context.Context, comp *Computation, counts map[domain.SessionState]int) {
	if s.recorder == nil {
		return
	}

	record := domain.TimelineResultRecord{
		RunID:              comp.RunID,
		ParticipantID:      comp.ParticipantID,
		ComputedAt:         comp.Now,
		InstanceCount:      len(comp.Sessions),
		UpNextCount:        counts[domain.SessionStateUpNext],
		AvailableNowCount:  counts[domain.SessionStateAvailableNow],
		CompletedCount:     counts[domain.SessionStateCompleted],
		ExpiredCount:       counts[domain.SessionStateExpired],
		NotificationCount:  len(comp.Notifications.Requests),
		DroppedByCapCount:  comp.Notifications.Dropped,
		StaleRecordCount:   comp.Merge.Stale,
		UnknownRecordCount: comp.Merge.Unknown,
	}

	if err := s.recorder.RecordTimelineResult(ctx, record); err != nil {
		slog.WarnContext(ctx, "failed to record timeline result",
			slog.String("event", "timeline.record.fail"),
			slog.String("run_id", comp.RunID),
			slog.String("error", err.Error()),
		)
	}
}
