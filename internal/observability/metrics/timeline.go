package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	timelineMeterName = "timeline.service"
)

type TimelineMetrics struct {
	computations         metric.Int64Counter
	computeDuration      metric.Float64Histogram
	sessionStates        metric.Int64Counter
	adherenceRecords     metric.Int64Counter
	notificationsBuilt   metric.Int64Counter
	notificationsDropped metric.Int64Counter
	registryFailures     metric.Int64Counter
	wakeups              metric.Int64Counter
}

func NewTimelineMetrics() (*TimelineMetrics, error) {
	meter := otel.Meter(timelineMeterName)

	computations, err := meter.Int64Counter(
		"timeline_computations_total",
		metric.WithDescription("Total number of timeline computations"),
		metric.WithUnit("{computation}"),
	)
	if err != nil {
		return nil, err
	}

	computeDuration, err := meter.Float64Histogram(
		"timeline_compute_duration_seconds",
		metric.WithDescription("Time spent computing a participant timeline"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
		),
	)
	if err != nil {
		return nil, err
	}

	sessionStates, err := meter.Int64Counter(
		"timeline_session_states_total",
		metric.WithDescription("Session instances by classified state"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	adherenceRecords, err := meter.Int64Counter(
		"timeline_adherence_records_total",
		metric.WithDescription("Adherence records by merge outcome"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	notificationsBuilt, err := meter.Int64Counter(
		"timeline_notifications_built_total",
		metric.WithDescription("Notification requests built"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	notificationsDropped, err := meter.Int64Counter(
		"timeline_notifications_dropped_total",
		metric.WithDescription("Notification requests dropped by the cap"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	registryFailures, err := meter.Int64Counter(
		"timeline_registry_failures_total",
		metric.WithDescription("Failed notification registry operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	wakeups, err := meter.Int64Counter(
		"timeline_wakeups_total",
		metric.WithDescription("State boundary wake-ups fired"),
		metric.WithUnit("{wakeup}"),
	)
	if err != nil {
		return nil, err
	}

	return &TimelineMetrics{
		computations:         computations,
		computeDuration:      computeDuration,
		sessionStates:        sessionStates,
		adherenceRecords:     adherenceRecords,
		notificationsBuilt:   notificationsBuilt,
		notificationsDropped: notificationsDropped,
		registryFailures:     registryFailures,
		wakeups:              wakeups,
	}, nil
}

func (m *TimelineMetrics) RecordComputation(ctx context.Context, trigger, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.String("outcome", outcome),
	)
	m.computations.Add(ctx, 1, attrs)
	m.computeDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *TimelineMetrics) RecordSessionStates(ctx context.Context, counts map[string]int) {
	for state, n := range counts {
		if n == 0 {
			continue
		}
		m.sessionStates.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("state", state),
		))
	}
}

func (m *TimelineMetrics) RecordAdherence(ctx context.Context, applied, unknown, stale int) {
	for outcome, n := range map[string]int{"applied": applied, "unknown": unknown, "stale": stale} {
		if n == 0 {
			continue
		}
		m.adherenceRecords.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (m *TimelineMetrics) RecordNotifications(ctx context.Context, built, dropped, degraded int) {
	m.notificationsBuilt.Add(ctx, int64(built), metric.WithAttributes(
		attribute.Bool("degraded", false),
	))
	if degraded > 0 {
		m.notificationsBuilt.Add(ctx, int64(degraded), metric.WithAttributes(
			attribute.Bool("degraded", true),
		))
	}
	if dropped > 0 {
		m.notificationsDropped.Add(ctx, int64(dropped))
	}
}

func (m *TimelineMetrics) RecordRegistryFailure(ctx context.Context, operation string) {
	m.registryFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func (m *TimelineMetrics) RecordWakeup(ctx context.Context) {
	m.wakeups.Add(ctx, 1)
}
