//go:build !gcloud

package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// platformTraceAttrs marks whether the span was exported so local log
// lines can be matched against the OTLP collector.
func platformTraceAttrs(ctx context.Context, _ string) []slog.Attr {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []slog.Attr{slog.Bool("trace_sampled", sc.IsSampled())}
}
