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
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/KasumiMercury/primind-session-timeline/internal/config"
	"github.com/KasumiMercury/primind-session-timeline/internal/handler"
	"github.com/KasumiMercury/primind-session-timeline/internal/health"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/calendar"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/recorder"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/repository"
	"github.com/KasumiMercury/primind-session-timeline/internal/infra/studyapi"
	"github.com/KasumiMercury/primind-session-timeline/internal/observability/logging"
	"github.com/KasumiMercury/primind-session-timeline/internal/observability/metrics"
	"github.com/KasumiMercury/primind-session-timeline/internal/observability/middleware"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/adherence"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/daywindow"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/notification"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/reconcile"
	"github.com/KasumiMercury/primind-session-timeline/internal/service/timeline"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	obs, err := initObservability(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	if err := cfg.TaskQueue.Validate(); err != nil {
		slog.Error("task queue configuration error", slog.String("error", err.Error()))
		return 1
	}

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	timelineMetrics, err := metrics.NewTimelineMetrics()
	if err != nil {
		slog.Error("failed to initialize timeline metrics", slog.String("error", err.Error()))
		return 1
	}

	// InfluxDB locally, BigQuery under the gcloud build.
	resultRecorder, err := recorder.NewRecorder(ctx, recorder.LoadConfig())
	if err != nil {
		slog.Error("failed to initialize timeline result recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := resultRecorder.Close(); err != nil {
			slog.Warn("failed to close timeline result recorder", slog.String("error", err.Error()))
		}
	}()

	notificationRegistry, cleanup, err := initRegistry(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize notification registry", slog.String("error", err.Error()))
		return 1
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				slog.Error("notification registry cleanup error", slog.String("error", err.Error()))
			}
		}()
	}

	redisClient := redis.NewClient(cfg.Redis.Options())

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}()

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
	)

	timelineRepo := repository.NewTimelineRepository(redisClient)
	studyClient := studyapi.NewClient(cfg.StudyAPIURL, cfg.Language)

	store := reconcile.NewStore()
	unsubscribe := store.Subscribe(func(participantID string, change reconcile.Change) {
		slog.Debug("session instance changed",
			slog.String("event", "timeline.instance.change"),
			slog.String("participant_id", participantID),
			slog.String("instance_guid", change.InstanceGuid),
			slog.String("kind", string(change.Kind)),
			slog.Any("fields", change.Fields),
		)
	})
	defer unsubscribe()

	timelineService := timeline.NewService(
		studyClient,
		timelineRepo,
		notificationRegistry,
		resultRecorder,
		adherence.NewMerger(cfg.Timeline.StalePolicy),
		notification.NewBuilder(cfg.Notification.Policy()),
		store,
		timelineMetrics,
		timeline.Options{
			StudyID:  cfg.StudyID,
			TimeZone: cfg.Timeline.TimeZone,
			Day: daywindow.Options{
				AlwaysIncludeNextDay:    cfg.Timeline.AlwaysIncludeNextDay,
				IncludeAllNotifications: cfg.Timeline.IncludeAllNotifications,
			},
		},
	)
	timelineService.Start(ctx)

	schedulerErr := make(chan error, 1)
	go func() {
		schedulerErr <- timelineService.Run(ctx)
	}()

	timelineHandler := handler.NewTimelineHandler(timelineService, calendar.NewExporter())

	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:   []string{"/health", "/health/live", "/health/ready", "/metrics"},
		Module:      logging.Module("session-timeline"),
		TracerName:  "github.com/KasumiMercury/primind-session-timeline/internal/observability/middleware",
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	healthChecker := health.NewChecker(redisClient, Version)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	timelineHandler.Register(r.Group("/api/v1"))

	// gRPC health shares the port with the REST API over cleartext HTTP/2.
	mux := http.NewServeMux()
	mux.Handle(healthChecker.GRPCHandler())
	mux.Handle("/", r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.String("study_id", cfg.StudyID),
			slog.String("time_zone", cfg.Timeline.TimeZone.String()),
			slog.String("stale_policy", string(cfg.Timeline.StalePolicy)),
			slog.Int("notification_limit", cfg.Notification.Policy().Limit()),
			slog.Bool("registry_enabled", notificationRegistry != nil),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		healthChecker.Shutdown()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		cancel()
		timelineService.Wait()
		if err := resultRecorder.Flush(shutdownCtx); err != nil {
			slog.Warn("failed to flush timeline results", slog.String("error", err.Error()))
		}

		slog.Info("server exited properly")
		return 0

	case err := <-schedulerErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("wake-up scheduler stopped", slog.String("error", err.Error()))
			return 1
		}
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}
