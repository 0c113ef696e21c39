package health

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/grpchealth"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ServiceName is the fully qualified name reported over gRPC health.
const ServiceName = "primind.timeline.v1.TimelineService"

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type CheckResult struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

type HealthStatus struct {
	Status  Status                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// Probe is an additional named dependency check.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Checker runs dependency checks for the HTTP probes and mirrors the
// outcome into the gRPC health service.
type Checker struct {
	redisClient *redis.Client
	probes      []Probe
	version     string
	grpc        *grpchealth.StaticChecker
}

func NewChecker(redisClient *redis.Client, version string, probes ...Probe) *Checker {
	return &Checker{
		redisClient: redisClient,
		probes:      probes,
		version:     version,
		grpc:        grpchealth.NewStaticChecker(ServiceName),
	}
}

// Check performs all dependency checks and returns the overall status.
func (c *Checker) Check(ctx context.Context) *HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := &HealthStatus{
		Status:  StatusHealthy,
		Version: c.version,
		Checks:  make(map[string]CheckResult),
	}

	if c.redisClient != nil {
		c.run(checkCtx, status, "redis", func(ctx context.Context) error {
			return c.redisClient.Ping(ctx).Err()
		})
	}
	for _, p := range c.probes {
		c.run(checkCtx, status, p.Name, p.Check)
	}

	if status.Status == StatusHealthy {
		c.grpc.SetStatus(ServiceName, grpchealth.StatusServing)
	} else {
		c.grpc.SetStatus(ServiceName, grpchealth.StatusNotServing)
	}

	return status
}

func (c *Checker) run(ctx context.Context, status *HealthStatus, name string, check func(context.Context) error) {
	start := time.Now()
	if err := check(ctx); err != nil {
		status.Status = StatusUnhealthy
		status.Checks[name] = CheckResult{
			Status: StatusUnhealthy,
			Error:  err.Error(),
		}
		return
	}
	status.Checks[name] = CheckResult{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

// Shutdown reports NOT_SERVING over gRPC ahead of server shutdown.
func (c *Checker) Shutdown() {
	c.grpc.SetStatus(ServiceName, grpchealth.StatusNotServing)
}

// GRPCHandler returns the mount path and handler of the gRPC health
// service. It must be served over HTTP/2.
func (c *Checker) GRPCHandler() (string, http.Handler) {
	return grpchealth.NewHandler(c.grpc)
}

func (c *Checker) LiveHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (c *Checker) ReadyHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := c.Check(ctx.Request.Context())

		httpStatus := http.StatusOK
		if status.Status != StatusHealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		ctx.JSON(httpStatus, status)
	}
}
