package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/calendar"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/studyapi"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/adherence"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/notification"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/reconcile"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/timeline"
	"github.com/KasumiMercury/primind-session-timeline/internal/testutil"
)

const (
	testStudyID       = "another-study"
	testParticipantID = "participant-1"
	testNow           = "2026-03-02T09:00:00Z"
)

var enrollment = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

func setupRouter(t *testing.T, study studyapi.StudyRepository, repo domain.TimelineRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := timeline.NewService(
		study,
		repo,
		nil,
		nil,
		adherence.NewMerger(domain.StalePolicyDiscard),
		notification.NewBuilder(notification.DefaultPolicy()),
		reconcile.NewStore(),
		nil,
		timeline.Options{StudyID: testStudyID, TimeZone: time.UTC},
	)

	r := gin.New()
	NewTimelineHandler(svc, calendar.NewExporter()).Register(r.Group("/api/v1"))
	return r
}

func expectTimeline(t *testing.T, study *studyapi.MockStudyRepository, repo *domain.MockTimelineRepository) {
	t.Helper()

	tmpl := testutil.LoadTimeline(t, testutil.AnotherTimeline)
	study.EXPECT().GetTimeline(gomock.Any(), testStudyID).Return(tmpl, nil).AnyTimes()
	repo.EXPECT().SaveTimeline(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	study.EXPECT().GetActivityEvents(gomock.Any(), testParticipantID).
		Return([]domain.ActivityEvent{{EventID: "enrollment", Timestamp: enrollment}}, nil).AnyTimes()
	repo.EXPECT().ListEvents(gomock.Any(), testParticipantID).Return(nil, nil).AnyTimes()
	study.EXPECT().GetAdherence(gomock.Any(), testStudyID, testParticipantID).Return(nil, nil).AnyTimes()
	repo.EXPECT().ListAdherence(gomock.Any(), testParticipantID).Return(nil, nil).AnyTimes()
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleTimeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	study := studyapi.NewMockStudyRepository(ctrl)
	repo := domain.NewMockTimelineRepository(ctrl)
	expectTimeline(t, study, repo)

	r := setupRouter(t, study, repo)
	w := doRequest(r, http.MethodGet, "/api/v1/participants/"+testParticipantID+"/timeline?now="+testNow, "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp TimelineResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Sessions) != 56 {
		t.Fatalf("len(sessions) = %d, want 56", len(resp.Sessions))
	}

	var morning *SessionView
	for i := range resp.Sessions {
		if resp.Sessions[i].InstanceGuid == "daily-d00-morning" {
			morning = &resp.Sessions[i]
		}
	}
	if morning == nil {
		t.Fatal("daily-d00-morning missing")
	}
	if morning.State != string(domain.SessionStateAvailableNow) {
		t.Errorf("state = %s, want available_now", morning.State)
	}
	if morning.StartDate != "2026-03-02" || morning.StartTime != "08:00" || morning.EndTime != "10:00" {
		t.Errorf("dates = %s %s-%s", morning.StartDate, morning.StartTime, morning.EndTime)
	}
	// Sequential order enables only the first assessment.
	if !morning.Assessments[0].IsEnabled || morning.Assessments[1].IsEnabled {
		t.Errorf("enabled = %v/%v, want true/false", morning.Assessments[0].IsEnabled, morning.Assessments[1].IsEnabled)
	}
}

func TestHandleTodayAndNotifications(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	study := studyapi.NewMockStudyRepository(ctrl)
	repo := domain.NewMockTimelineRepository(ctrl)
	expectTimeline(t, study, repo)

	r := setupRouter(t, study, repo)
	base := "/api/v1/participants/" + testParticipantID

	w := doRequest(r, http.MethodGet, base+"/today?now="+testNow+"&next_day=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("today status = %d: %s", w.Code, w.Body.String())
	}
	var today TodayResponse
	if err := json.Unmarshal(w.Body.Bytes(), &today); err != nil {
		t.Fatalf("failed to decode today: %v", err)
	}
	if !today.IncludesNextDay || len(today.Sessions) != 8 {
		t.Errorf("today = next day %v with %d sessions, want true with 8", today.IncludesNextDay, len(today.Sessions))
	}

	w = doRequest(r, http.MethodGet, base+"/notifications?now="+testNow, "")
	if w.Code != http.StatusOK {
		t.Fatalf("notifications status = %d: %s", w.Code, w.Body.String())
	}
	var notifications NotificationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &notifications); err != nil {
		t.Fatalf("failed to decode notifications: %v", err)
	}
	if len(notifications.Notifications) != 27 {
		t.Errorf("len(notifications) = %d, want 27", len(notifications.Notifications))
	}
	first := notifications.Notifications[0]
	if first.ThreadID != "daily-d00-evening" || first.ID != "daily-d00-evening|2026-03-02T20:30:00Z" {
		t.Errorf("first = %+v", first)
	}
}

func TestHandleCalendar(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	study := studyapi.NewMockStudyRepository(ctrl)
	repo := domain.NewMockTimelineRepository(ctrl)
	expectTimeline(t, study, repo)

	r := setupRouter(t, study, repo)
	w := doRequest(r, http.MethodGet, "/api/v1/participants/"+testParticipantID+"/calendar.ics?now="+testNow, "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || strings.Count(body, "BEGIN:VEVENT") != 56 {
		t.Errorf("unexpected calendar body with %d events", strings.Count(body, "BEGIN:VEVENT"))
	}
	if strings.Count(body, "BEGIN:VALARM") != 27 {
		t.Errorf("alarms = %d, want 27", strings.Count(body, "BEGIN:VALARM"))
	}
}

func TestHandlerErrors(t *testing.T) {
	base := "/api/v1/participants/" + testParticipantID

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setup      func(*studyapi.MockStudyRepository, *domain.MockTimelineRepository)
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed now",
			method:     http.MethodGet,
			path:       base + "/timeline?now=yesterday",
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name:       "unknown zone",
			method:     http.MethodGet,
			path:       base + "/today?tz=Mars/Olympus",
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name:       "bad history order",
			method:     http.MethodGet,
			path:       base + "/history?order=sideways",
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name:   "timeline not found",
			method: http.MethodGet,
			path:   base + "/timeline",
			setup: func(study *studyapi.MockStudyRepository, _ *domain.MockTimelineRepository) {
				study.EXPECT().GetTimeline(gomock.Any(), testStudyID).Return(nil, domain.ErrTimelineNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantError:  "not_found",
		},
		{
			name:       "refresh without registry",
			method:     http.MethodPost,
			path:       base + "/notifications/refresh",
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "registry_unavailable",
		},
		{
			name:       "adherence without records",
			method:     http.MethodPost,
			path:       base + "/adherence",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name:       "adherence without startedOn",
			method:     http.MethodPost,
			path:       base + "/adherence",
			body:       `{"records":[{"instanceGuid":"mood-d00-morning"}]}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
		{
			name:       "event without id",
			method:     http.MethodPost,
			path:       base + "/events",
			body:       `{"timestamp":"2026-03-02T07:00:00Z"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			study := studyapi.NewMockStudyRepository(ctrl)
			repo := domain.NewMockTimelineRepository(ctrl)
			if tt.setup != nil {
				tt.setup(study, repo)
			}

			r := setupRouter(t, study, repo)
			w := doRequest(r, tt.method, tt.path, tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error: %v", err)
			}
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestHandleIngestAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	study := studyapi.NewMockStudyRepository(ctrl)
	repo := domain.NewMockTimelineRepository(ctrl)
	repo.EXPECT().SaveAdherence(gomock.Any(), testParticipantID, gomock.Len(1)).Return(nil)
	repo.EXPECT().SaveEvent(gomock.Any(), testParticipantID, domain.ActivityEvent{EventID: "custom:clinic_visit", Timestamp: enrollment}).Return(nil)

	r := setupRouter(t, study, repo)
	base := "/api/v1/participants/" + testParticipantID

	w := doRequest(r, http.MethodPost, base+"/adherence",
		`{"records":[{"instanceGuid":"mood-d00-morning","eventTimestamp":"2026-03-02T07:00:00Z","startedOn":"2026-03-02T08:10:00Z","finishedOn":"2026-03-02T08:12:00Z"}]}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("adherence status = %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodPost, base+"/events", `{"eventId":"custom:clinic_visit","timestamp":"2026-03-02T07:00:00Z"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("events status = %d: %s", w.Code, w.Body.String())
	}
}
