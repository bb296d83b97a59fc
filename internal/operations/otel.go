package operations

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"snapcli/pkg/contracts/domain"
)

const (
	TracerName = "snapcli.operations"
)

// GroupTracer opens one span per processed group
type GroupTracer struct {
	tracer trace.Tracer
}

// NewGroupTracer wraps tracer; nil uses the global provider.
func NewGroupTracer(tracer trace.Tracer) *GroupTracer {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &GroupTracer{tracer: tracer}
}

// StartGroup creates the span for one group
func (gt *GroupTracer) StartGroup(ctx context.Context, runID string, kind domain.RunKind, group string) (context.Context, trace.Span) {
	return gt.tracer.Start(ctx, fmt.Sprintf("snapcli.%s.group", kind),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.kind", string(kind)),
			attribute.String("group.name", group),
		),
	)
}

// EndGroup records the outcome on span and ends it
func (gt *GroupTracer) EndGroup(span trace.Span, result domain.GroupResult) {
	span.SetAttributes(
		attribute.String("group.status", string(result.Status)),
		attribute.String("group.source", result.Source),
		attribute.String("group.output", result.Output),
		attribute.Int("group.rows", result.Counts.Rows),
		attribute.Int("group.rows_dropped", result.Counts.RowsDropped),
		attribute.Int("group.stale_cells", result.Counts.StaleCells),
		attribute.Int("group.series", result.Counts.Series),
		attribute.Int("group.series_skipped", result.Counts.SeriesSkipped),
		attribute.Float64("group.duration_seconds", result.Duration.Seconds()),
	)

	if result.Status == domain.GroupStatusFailed {
		span.RecordError(fmt.Errorf("%s", result.Error),
			trace.WithAttributes(attribute.String("error.type", result.ErrorType)))
		span.SetStatus(codes.Error, result.Error)
	} else {
		span.SetStatus(codes.Ok, string(result.Status))
	}
	span.End()
}
