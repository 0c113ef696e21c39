package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const timelineTracerName = "github.com/KasumiMercury/primind-session-timeline/internal/service/timeline"

func TimelineTracer() trace.Tracer {
	return otel.Tracer(timelineTracerName)
}

func StartComputeSpan(ctx context.Context, participantID string, now time.Time) (context.Context, trace.Span) {
	return TimelineTracer().Start(ctx, "timeline.compute",
		trace.WithAttributes(
			attribute.String("participant_id", participantID),
			attribute.String("compute.now", now.Format(time.RFC3339)),
		),
	)
}

func StartFetchSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return TimelineTracer().Start(ctx, "timeline.fetch."+source)
}

func StartRegistryRefreshSpan(ctx context.Context, participantID, category string) (context.Context, trace.Span) {
	return TimelineTracer().Start(ctx, "timeline.registry_refresh",
		trace.WithAttributes(
			attribute.String("participant_id", participantID),
			attribute.String("notification.category", category),
		),
	)
}

func StartExternalAPISpan(ctx context.Context, operation, url string) (context.Context, trace.Span) {
	return TimelineTracer().Start(ctx, "timeline.external_api."+operation,
		trace.WithAttributes(
			attribute.String("url", url),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordComputeResult(span trace.Span, instanceCount, staleCount, unknownCount int, err error) {
	span.SetAttributes(
		attribute.Int("compute.instance_count", instanceCount),
		attribute.Int("compute.stale_record_count", staleCount),
		attribute.Int("compute.unknown_record_count", unknownCount),
	)
	recordStatus(span, err)
}

func RecordRegistryRefreshResult(span trace.Span, removedCount, registeredCount, failedCount int, err error) {
	span.SetAttributes(
		attribute.Int("registry.removed_count", removedCount),
		attribute.Int("registry.registered_count", registeredCount),
		attribute.Int("registry.failed_count", failedCount),
	)
	recordStatus(span, err)
}

func RecordExternalAPIResult(span trace.Span, statusCode int, err error) {
	if statusCode > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
	}
	recordStatus(span, err)
}

func RecordError(span trace.Span, err error) {
	recordStatus(span, err)
}

func recordStatus(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
