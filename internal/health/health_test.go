package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/grpchealth"
	"github.com/gin-gonic/gin"
)

func TestCheckerProbes(t *testing.T) {
	tests := []struct {
		name       string
		probes     []Probe
		wantStatus Status
		wantGRPC   grpchealth.Status
	}{
		{
			name:       "no dependencies",
			wantStatus: StatusHealthy,
			wantGRPC:   grpchealth.StatusServing,
		},
		{
			name: "failing probe",
			probes: []Probe{
				{Name: "study_api", Check: func(context.Context) error { return errors.New("dial tcp: refused") }},
			},
			wantStatus: StatusUnhealthy,
			wantGRPC:   grpchealth.StatusNotServing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(nil, "test", tt.probes...)

			status := c.Check(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", status.Status, tt.wantStatus)
			}

			res, err := c.grpc.Check(context.Background(), &grpchealth.CheckRequest{Service: ServiceName})
			if err != nil {
				t.Fatalf("grpc Check() error = %v", err)
			}
			if res.Status != tt.wantGRPC {
				t.Errorf("grpc status = %v, want %v", res.Status, tt.wantGRPC)
			}
		})
	}
}

func TestReadyHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewChecker(nil, "v1.2.3", Probe{
		Name:  "study_api",
		Check: func(context.Context) error { return errors.New("timeout") },
	})

	r := gin.New()
	r.GET("/health/ready", c.ReadyHandler())
	r.GET("/health/live", c.LiveHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready status = %d, want 503", w.Code)
	}

	var body HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Version != "v1.2.3" || body.Checks["study_api"].Error != "timeout" {
		t.Errorf("body = %+v", body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", w.Code)
	}
}

func TestShutdownReportsNotServing(t *testing.T) {
	c := NewChecker(nil, "test")
	c.Check(context.Background())
	c.Shutdown()

	res, err := c.grpc.Check(context.Background(), &grpchealth.CheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("grpc Check() error = %v", err)
	}
	if res.Status != grpchealth.StatusNotServing {
		t.Errorf("status = %v, want NOT_SERVING", res.Status)
	}
}
