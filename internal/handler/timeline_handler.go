package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/calendar"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/timeline"
)

type TimelineHandler struct {
	timelineService *timeline.Service
	exporter        *calendar.Exporter
}

func NewTimelineHandler(timelineService *timeline.Service, exporter *calendar.Exporter) *TimelineHandler {
	return &TimelineHandler{
		timelineService: timelineService,
		exporter:        exporter,
	}
}

func (h *TimelineHandler) Register(r gin.IRouter) {
	p := r.Group("/participants/:participantId")
	p.GET("/timeline", h.HandleTimeline)
	p.GET("/today", h.HandleToday)
	p.GET("/history", h.HandleHistory)
	p.GET("/notifications", h.HandleNotifications)
	p.POST("/notifications/refresh", h.HandleRefreshNotifications)
	p.POST("/adherence", h.HandleIngestAdherence)
	p.POST("/events", h.HandleRecordEvent)
	p.GET("/calendar.ics", h.HandleCalendar)
}

type AdherenceRecordInput struct {
	InstanceGuid   string          `json:"instanceGuid" binding:"required"`
	EventTimestamp time.Time       `json:"eventTimestamp"`
	StartedOn      time.Time       `json:"startedOn"`
	FinishedOn     *time.Time      `json:"finishedOn"`
	Declined       bool            `json:"declined"`
	ClientData     json.RawMessage `json:"clientData"`
	ClientTimeZone string          `json:"clientTimeZone"`
}

type AdherenceRequest struct {
	Records []AdherenceRecordInput `json:"records" binding:"required,dive"`
}

type EventRequest struct {
	EventID   string    `json:"eventId" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *TimelineHandler) HandleTimeline(c *gin.Context) {
	req, ok := h.computeRequest(c)
	if !ok {
		return
	}

	comp, err := h.timelineService.Compute(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, TimelineResponse{
		ParticipantID: comp.ParticipantID,
		Now:           comp.Now,
		TimeZone:      comp.Zone.String(),
		Sessions:      toSessionViews(comp.Sessions, comp.Zone),
	})
}

func (h *TimelineHandler) HandleToday(c *gin.Context) {
	req, ok := h.computeRequest(c)
	if !ok {
		return
	}

	opts := h.timelineService.DayOptions()
	var err error
	if opts.AlwaysIncludeNextDay, err = queryBool(c, "next_day", opts.AlwaysIncludeNextDay); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if opts.IncludeAllNotifications, err = queryBool(c, "all_notifications", opts.IncludeAllNotifications); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	view, err := h.timelineService.Today(c.Request.Context(), req, opts)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	zone := h.zone(req)
	c.JSON(http.StatusOK, TodayResponse{
		ParticipantID:   req.ParticipantID,
		Now:             view.Now,
		TimeZone:        zone.String(),
		StartOfToday:    view.Selection.StartOfToday,
		EndOfWindow:     view.Selection.EndOfWindow,
		IncludesNextDay: view.Selection.IncludesNextDay,
		Sessions:        toSessionViews(view.Selection.Sessions, zone),
		Notifications:   toNotificationViews(view.Notifications.Requests),
	})
}

func (h *TimelineHandler) HandleHistory(c *gin.Context) {
	req, ok := h.computeRequest(c)
	if !ok {
		return
	}

	newestFirst := true
	switch c.DefaultQuery("order", "newest") {
	case "newest":
	case "oldest":
		newestFirst = false
	default:
		respondError(c, http.StatusBadRequest, "validation_error", "order must be newest or oldest")
		return
	}

	past, err := h.timelineService.History(c.Request.Context(), req, newestFirst)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	zone := h.zone(req)
	c.JSON(http.StatusOK, TimelineResponse{
		ParticipantID: req.ParticipantID,
		Now:           past.Now,
		TimeZone:      zone.String(),
		Sessions:      toSessionViews(past.Sessions, zone),
	})
}

func (h *TimelineHandler) HandleNotifications(c *gin.Context) {
	req, ok := h.computeRequest(c)
	if !ok {
		return
	}

	result, err := h.timelineService.Notifications(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, NotificationsResponse{
		ParticipantID: req.ParticipantID,
		Eligible:      result.Eligible,
		Dropped:       result.Dropped,
		Degraded:      result.Degraded,
		Notifications: toNotificationViews(result.Requests),
	})
}

func (h *TimelineHandler) HandleRefreshNotifications(c *gin.Context) {
	ctx := c.Request.Context()

	req, ok := h.computeRequest(c)
	if !ok {
		return
	}
	req.Trigger = timeline.TriggerRefresh

	result, err := h.timelineService.RefreshNotifications(ctx, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{
		ParticipantID: req.ParticipantID,
		Removed:       result.Removed,
		Registered:    result.Registered,
		Failed:        result.Failed,
		Dropped:       result.Notifications.Dropped,
	})
}

func (h *TimelineHandler) HandleIngestAdherence(c *gin.Context) {
	ctx := c.Request.Context()
	participantID := c.Param("participantId")

	var body AdherenceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		slog.WarnContext(ctx, "request validation failed",
			slog.String("error", err.Error()),
			slog.String("path", c.Request.URL.Path),
		)
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	records := make([]domain.AdherenceRecord, 0, len(body.Records))
	for _, in := range body.Records {
		records = append(records, domain.AdherenceRecord{
			InstanceGuid:   in.InstanceGuid,
			EventTimestamp: in.EventTimestamp,
			StartedOn:      in.StartedOn,
			FinishedOn:     in.FinishedOn,
			Declined:       in.Declined,
			ClientData:     in.ClientData,
			ClientTimeZone: in.ClientTimeZone,
		})
	}

	if err := h.timelineService.IngestAdherence(ctx, participantID, records); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, AcceptedResponse{Accepted: len(records)})
}

func (h *TimelineHandler) HandleRecordEvent(c *gin.Context) {
	ctx := c.Request.Context()
	participantID := c.Param("participantId")

	var body EventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		slog.WarnContext(ctx, "request validation failed",
			slog.String("error", err.Error()),
			slog.String("path", c.Request.URL.Path),
		)
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if body.Timestamp.IsZero() {
		body.Timestamp = time.Now()
	}

	event := domain.ActivityEvent{EventID: body.EventID, Timestamp: body.Timestamp}
	if err := h.timelineService.RecordEvent(ctx, participantID, event); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, AcceptedResponse{Accepted: 1})
}

func (h *TimelineHandler) HandleCalendar(c *gin.Context) {
	req, ok := h.computeRequest(c)
	if !ok {
		return
	}

	comp, err := h.timelineService.Compute(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.exporter.Export(c.Writer, comp.Sessions, comp.Notifications.Requests); err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to write calendar",
			slog.String("participant_id", comp.ParticipantID),
			slog.String("error", err.Error()),
		)
	}
}

// computeRequest reads the participant id and the optional now and tz
// query parameters. It writes a 400 response and returns false when
// either parameter is malformed.
func (h *TimelineHandler) computeRequest(c *gin.Context) (timeline.ComputeRequest, bool) {
	req := timeline.ComputeRequest{
		ParticipantID: c.Param("participantId"),
		Trigger:       timeline.TriggerRequest,
	}

	if raw := c.Query("now"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "invalid now format, expected RFC3339")
			return req, false
		}
		req.Now = parsed
	}

	if raw := c.Query("tz"); raw != "" {
		loc, err := time.LoadLocation(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "unknown time zone "+strconv.Quote(raw))
			return req, false
		}
		req.Zone = loc
	}

	return req, true
}

func queryBool(c *gin.Context, key string, fallback bool) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, errors.New(key + " must be a boolean")
	}
	return v, nil
}

func (h *TimelineHandler) zone(req timeline.ComputeRequest) *time.Location {
	if req.Zone != nil {
		return req.Zone
	}
	return h.timelineService.TimeZone()
}

func respondServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, timeline.ErrParticipantMissing),
		errors.Is(err, timeline.ErrPinnedRefresh),
		errors.Is(err, domain.ErrInvalidAdherence),
		errors.Is(err, domain.ErrInvalidActivityEvent):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrTimelineNotFound),
		errors.Is(err, domain.ErrParticipantNotFound):
		respondError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, timeline.ErrRegistryDisabled):
		respondError(c, http.StatusServiceUnavailable, "registry_unavailable", err.Error())
	default:
		slog.ErrorContext(ctx, "timeline request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to compute timeline")
	}
}

func respondError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, ErrorResponse{
		Error:   errType,
		Message: message,
	})
}
