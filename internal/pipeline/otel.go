package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "canoncli.pipeline"
	meterName  = "canoncli"
)

// Tracer provides OpenTelemetry instrumentation for pipeline runs: one span
// per run, one per file, and counters for the volumes the run report also
// carries.
type Tracer struct {
	tracer            trace.Tracer
	rowsProcessed     metric.Int64Counter
	recordsEmitted    metric.Int64Counter
	suppressedRecords metric.Int64Counter
	filesSkipped      metric.Int64Counter
}

// NewTracer builds a Tracer from the given providers. Nil providers fall
// back to the globals, which are no-ops unless telemetry was initialized.
func NewTracer(tp trace.TracerProvider, mp metric.MeterProvider) (*Tracer, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(meterName)
	t := &Tracer{tracer: tp.Tracer(tracerName)}

	var err error
	if t.rowsProcessed, err = meter.Int64Counter("pipeline.rows_processed",
		metric.WithDescription("Input rows read across all files")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if t.recordsEmitted, err = meter.Int64Counter("pipeline.records_emitted",
		metric.WithDescription("Canonical records accumulated")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if t.suppressedRecords, err = meter.Int64Counter("pipeline.suppressed_records",
		metric.WithDescription("Canonical records carrying a suppression flag")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if t.filesSkipped, err = meter.Int64Counter("pipeline.files_skipped",
		metric.WithDescription("Input files skipped with a file-level warning")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}

	return t, nil
}

// StartRun opens the run-level span.
func (t *Tracer) StartRun(ctx context.Context, runID string, fileCount int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.file_count", fileCount),
		))
}

// StartFile opens a span for one input file. The source attribute is set
// separately once format detection has resolved it.
func (t *Tracer) StartFile(ctx context.Context, file string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.file",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("file.name", file)))
}

// SetFileSource stamps the detected source onto an open file span.
func (t *Tracer) SetFileSource(span trace.Span, source string) {
	span.SetAttributes(attribute.String("file.source", source))
}

// RecordFileSkip annotates a file span as skipped and bumps the counter.
func (t *Tracer) RecordFileSkip(ctx context.Context, span trace.Span, reason string) {
	span.SetStatus(codes.Error, reason)
	t.filesSkipped.Add(ctx, 1)
}

// AddRows records input rows read.
func (t *Tracer) AddRows(ctx context.Context, n int) {
	t.rowsProcessed.Add(ctx, int64(n))
}

// AddRecords records emitted canonical records, suppressed counted apart.
func (t *Tracer) AddRecords(ctx context.Context, emitted, suppressed int) {
	t.recordsEmitted.Add(ctx, int64(emitted))
	t.suppressedRecords.Add(ctx, int64(suppressed))
}
