package stub

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-session-timeline/internal/infra/studyapi"
)

const (
	defaultEventID  = "enrollment"
	defaultPageSize = 50
)

type Handler struct {
	storage *StudyStorage
}

func NewHandler(storage *StudyStorage) *Handler {
	return &Handler{storage: storage}
}

// Register mounts the stub using the study service's own paths so the
// timeline service can point STUDY_API_URL at it unchanged.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/v1/studies/:studyId/seed", h.HandleSeed)
	r.POST("/v1/studies/:studyId/reset", h.HandleReset)
	r.GET("/v1/studies/:studyId/timeline", h.HandleGetTimeline)
	r.GET("/v1/participants/:participantId/activityevents", h.HandleGetEvents)
	r.GET("/v1/participants/:participantId/adherence", h.HandleGetAdherence)
	r.POST("/v1/participants/:participantId/adherence", h.HandleAddAdherence)
}

func (h *Handler) HandleReset(c *gin.Context) {
	studyID := c.Param("studyId")

	h.storage.Reset(studyID)

	slog.Info("reset data", slog.String("study_id", studyID))

	c.JSON(http.StatusOK, gin.H{
		"status":   "reset complete",
		"study_id": studyID,
	})
}

func (h *Handler) HandleSeed(c *gin.Context) {
	studyID := c.Param("studyId")

	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Timeline == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeline is required"})
		return
	}

	cohorts := make([]*Cohort, 0, len(req.Cohorts))
	for _, sc := range req.Cohorts {
		startTime, err := time.Parse(time.RFC3339, sc.StartTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_time: " + sc.StartTime})
			return
		}
		endTime, err := time.Parse(time.RFC3339, sc.EndTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_time: " + sc.EndTime})
			return
		}

		eventID := sc.EventID
		if eventID == "" {
			eventID = defaultEventID
		}

		cohorts = append(cohorts, &Cohort{
			StartTime: startTime,
			EndTime:   endTime,
			Count:     sc.Count,
			EventID:   eventID,
		})
	}

	ids := h.storage.Seed(studyID, req.Timeline, cohorts)

	slog.Info("seeded data",
		slog.String("study_id", studyID),
		slog.Int("cohort_count", len(cohorts)),
		slog.Int("participant_count", len(ids)),
	)

	c.JSON(http.StatusOK, SeedResponse{
		Status:         "seeded",
		StudyID:        studyID,
		CohortCount:    len(cohorts),
		ParticipantIDs: ids,
	})
}

func (h *Handler) HandleGetTimeline(c *gin.Context) {
	timeline, ok := h.storage.Timeline(c.Param("studyId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "study not found"})
		return
	}
	c.JSON(http.StatusOK, timeline)
}

func (h *Handler) HandleGetEvents(c *gin.Context) {
	events, ok := h.storage.Events(c.Param("participantId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}
	c.JSON(http.StatusOK, studyapi.EventsResponse{Items: events})
}

// GET /v1/participants/:participantId/adherence?offsetBy=...&pageSize=...
func (h *Handler) HandleGetAdherence(c *gin.Context) {
	participantID := c.Param("participantId")

	offset, err := strconv.Atoi(c.DefaultQuery("offsetBy", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offsetBy"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)))
	if err != nil || size <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pageSize"})
		return
	}

	items, total, ok := h.storage.AdherencePage(participantID, offset, size)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}

	slog.Debug("get adherence",
		slog.String("participant_id", participantID),
		slog.Int("offset", offset),
		slog.Int("count", len(items)),
		slog.Int("total", total),
	)

	c.JSON(http.StatusOK, studyapi.AdherenceResponse{Items: items, Total: total})
}

func (h *Handler) HandleAddAdherence(c *gin.Context) {
	participantID := c.Param("participantId")

	var items []studyapi.AdherenceItem
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.storage.AddAdherence(participantID, items) {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}

	slog.Debug("add adherence",
		slog.String("participant_id", participantID),
		slog.Int("count", len(items)),
	)

	c.Status(http.StatusNoContent)
}
