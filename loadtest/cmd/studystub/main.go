// Command studystub serves seeded study timelines, activity events and
// adherence records for load testing the timeline service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-session-timeline/internal/observability/logging"
	"github.com/KasumiMercury/primind-session-timeline/internal/observability/middleware"
	"github.com/KasumiMercury/primind-session-timeline/loadtest/internal/stub"
)

func main() {
	os.Exit(run())
}

func run() int {
	slog.SetDefault(slog.New(logging.NewHandler(os.Stdout, logging.HandlerConfig{
		ServiceInfo:   logging.ServiceInfo{Name: "study-stub", Version: "dev"},
		Environment:   logging.EnvDev,
		DefaultModule: logging.Module("study-stub"),
		Level:         slog.LevelInfo,
	})))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:  []string{"/health"},
		Module:     logging.Module("study-stub"),
		TracerName: "github.com/KasumiMercury/primind-session-timeline/loadtest/cmd/studystub",
	}))
	r.Use(middleware.PanicRecoveryGin())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	stub.NewHandler(stub.NewStudyStorage()).Register(r)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting study stub", slog.String("port", port))
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}
		return 0
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			return 1
		}
		return 0
	}
}
