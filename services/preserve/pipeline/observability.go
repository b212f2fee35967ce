// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const pipelineTracerName = "preserve.pipeline"

// Tracer provides OpenTelemetry tracing for batch processing.
//
// # Description
//
// Wraps the OpenTelemetry tracer with pipeline-specific span creation and
// attribute management. When disabled, returns noop spans for zero overhead.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type Tracer struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	enabled bool
}

// NewTracer creates a new pipeline tracer.
//
// # Inputs
//
//   - logger: Logger for structured logging. Uses slog.Default() if nil.
//   - enabled: Whether tracing is enabled. When false, uses noop spans.
//
// # Outputs
//
//   - *Tracer: Ready-to-use tracer instance.
func NewTracer(logger *slog.Logger, enabled bool) *Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracer{
		tracer:  otel.Tracer(pipelineTracerName),
		logger:  logger,
		enabled: enabled,
	}
}

// StartBatch starts a span covering a whole batch.
//
// # Inputs
//
//   - ctx: Parent context for span creation.
//   - items: Number of work items in the batch.
//
// # Outputs
//
//   - context.Context: Context with span attached.
//   - trace.Span: The created span. Caller must call End() when done.
func (t *Tracer) StartBatch(ctx context.Context, items int) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, "preserve.batch",
		trace.WithAttributes(attribute.Int("batch.items", items)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndBatch completes a batch span with its terminal status.
func (t *Tracer) EndBatch(span trace.Span, status BatchStatus, err error) {
	if span == nil {
		return
	}
	defer span.End()

	span.SetAttributes(attribute.String("batch.status", string(status)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// StartItem starts a span for one work item cycle.
//
// # Inputs
//
//   - ctx: Parent context for span creation.
//   - index: Item position in the batch.
//   - item: The work item being processed.
//
// # Outputs
//
//   - context.Context: Context with span attached.
//   - trace.Span: The created span. Caller must call End() when done.
func (t *Tracer) StartItem(ctx context.Context, index int, item WorkItem) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}

	ctx, span := t.tracer.Start(ctx, "preserve.item",
		trace.WithAttributes(
			attribute.Int("item.index", index),
			attribute.String("item.kind", item.Kind),
			attribute.String("item.target_file", item.TargetFile),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	t.logger.DebugContext(ctx, "starting work item",
		slog.Int("index", index),
		slog.String("kind", item.Kind),
		slog.String("target_file", item.TargetFile),
	)

	return ctx, span
}

// EndItem completes a work item span with its terminal record.
func (t *Tracer) EndItem(span trace.Span, rec ItemRecord) {
	if span == nil {
		return
	}
	defer span.End()

	span.SetAttributes(
		attribute.String("item.state", string(rec.State)),
		attribute.String("item.confidence", string(rec.Verdict.Confidence)),
	)
	if rec.Verdict.Score != nil {
		span.SetAttributes(attribute.Float64("item.score", *rec.Verdict.Score))
	}
	if rec.Error != "" {
		span.SetStatus(codes.Error, rec.Error)
		return
	}
	span.SetStatus(codes.Ok, "")
}
