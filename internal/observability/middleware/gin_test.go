package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-session-timeline/internal/observability/logging"
)

func TestGin_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string
	r := gin.New()
	r.Use(Gin(GinConfig{Module: logging.Module("test")}))
	r.GET("/ping", func(c *gin.Context) {
		seen = logging.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("x-request-id", "req-abcdefgh")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != "req-abcdefgh" {
		t.Errorf("request id in context = %q", seen)
	}
	if got := w.Header().Get("x-request-id"); got != "req-abcdefgh" {
		t.Errorf("response header = %q", got)
	}
}

func TestGin_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Gin(GinConfig{}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Header().Get("x-request-id") == "" {
		t.Error("expected generated request id")
	}
}

func TestPanicRecoveryGin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(PanicRecoveryGin())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
