// SPDX-License-Identifier: BSD-3-Clause

package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new span with the given name and options.
func StartSpan(ctx context.Context, tracerName, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	tracer := GetTracer(tracerName)
	return tracer.Start(ctx, spanName, opts...)
}

// RecordError records an error on the span in the given context.
func RecordError(ctx context.Context, err error, description string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err, trace.WithAttributes(
			attribute.String("error.description", description),
		))
		span.SetStatus(codes.Error, description)
	}
}

// WithSpan executes a function within a new span context.
func WithSpan(ctx context.Context, tracerName, spanName string, fn func(context.Context) error) error {
	spanCtx, span := StartSpan(ctx, tracerName, spanName)
	defer span.End()

	if err := fn(spanCtx); err != nil {
		RecordError(spanCtx, err, "operation failed")
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Counter creates or retrieves a counter metric with the given name.
func Counter(meterName, name, description, unit string) (metric.Int64Counter, error) {
	meter := GetMeter(meterName)
	return meter.Int64Counter(name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
	)
}

// Histogram creates or retrieves a histogram metric with the given name.
func Histogram(meterName, name, description, unit string) (metric.Float64Histogram, error) {
	meter := GetMeter(meterName)
	return meter.Float64Histogram(name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
	)
}

// LogWithContext logs a message with trace/span IDs attached, when ctx carries a valid span context.
func LogWithContext(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		attrs = append(attrs,
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	logger.LogAttrs(ctx, level, msg, attrs...)
}
