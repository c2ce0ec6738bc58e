package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"platescan"
)

// InstrumentedOrchestrator wraps an Orchestrator with spans and run metrics.
type InstrumentedOrchestrator struct {
	next   *Orchestrator
	tracer trace.Tracer

	runs     metric.Int64Counter
	failures metric.Int64Counter
	entries  metric.Int64Counter
	duration metric.Float64Histogram
}

func NewInstrumentedOrchestrator(next *Orchestrator, tracer trace.Tracer, meter metric.Meter) *InstrumentedOrchestrator {
	runs, _ := meter.Int64Counter("pipeline_runs_total",
		metric.WithDescription("Total number of pipeline calls by final status"))
	failures, _ := meter.Int64Counter("pipeline_run_failures_total",
		metric.WithDescription("Total number of pipeline calls that ended in a fatal error"))
	entries, _ := meter.Int64Counter("pipeline_trace_entries_total",
		metric.WithDescription("Total number of trace entries recorded by stage and outcome"))
	duration, _ := meter.Float64Histogram("pipeline_run_duration_seconds",
		metric.WithDescription("Duration of a pipeline call in seconds"))

	return &InstrumentedOrchestrator{
		next:     next,
		tracer:   tracer,
		runs:     runs,
		failures: failures,
		entries:  entries,
		duration: duration,
	}
}

func (o *InstrumentedOrchestrator) Run(ctx context.Context, image []byte, grams float64) (Outcome, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Run", trace.WithAttributes(
		attribute.Int("image_bytes", len(image)),
		attribute.Float64("requested_grams", grams),
	))
	defer span.End()

	start := time.Now()
	out, err := o.next.Run(ctx, image, grams)

	var t []platescan.TraceEntry
	switch {
	case out.Result != nil:
		t = out.Result.Trace
		span.SetAttributes(attribute.String("run_id", out.Result.RunID))
	case out.Pending != nil:
		t = out.Pending.Trace
		span.SetAttributes(attribute.String("run_id", out.Pending.RunID))
		span.AddEvent("Awaiting clarification", trace.WithAttributes(
			attribute.Int("choices", len(out.Pending.Choices)),
		))
	}
	o.record(ctx, span, start, out.Status, t, 0, err)
	return out, err
}

func (o *InstrumentedOrchestrator) Resume(ctx context.Context, p Pending, answer string) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Resume", trace.WithAttributes(
		attribute.String("run_id", p.RunID),
		attribute.Int("choices", len(p.Choices)),
	))
	defer span.End()

	start := time.Now()
	res, err := o.next.Resume(ctx, p, answer)

	var (
		status State
		t      []platescan.TraceEntry
	)
	if res != nil {
		status, t = res.Status, res.Trace
		span.SetAttributes(attribute.String("resolved_label", res.Food.Label))
	}
	// Entries carried over from the suspended run were already counted by Run.
	o.record(ctx, span, start, status, t, len(p.Trace), err)
	return res, err
}

func (o *InstrumentedOrchestrator) record(ctx context.Context, span trace.Span, start time.Time, status State, entries []platescan.TraceEntry, skip int, err error) {
	o.duration.Record(ctx, time.Since(start).Seconds())

	var runErr *RunError
	if errors.As(err, &runErr) {
		status = StateFailed
		entries = runErr.Trace
	}

	for _, e := range entries[min(skip, len(entries)):] {
		o.entries.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", e.Stage),
			attribute.String("outcome", string(e.Outcome)),
		))
	}

	if err != nil {
		kind := "unknown"
		if runErr != nil {
			kind = runErr.Kind.Error()
		}
		o.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("error", kind)))
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		slog.Error("ORCHESTRATOR: Instrumented call failed", "error", err, "kind", kind)
	} else {
		span.SetStatus(codes.Ok, string(status))
	}

	span.SetAttributes(attribute.String("status", string(status)))
	o.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
}
