package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"snapcli/pkg/contracts/domain"
)

// PipelineMetrics are the instruments recorded while processing groups
type PipelineMetrics struct {
	GroupsTotal   metric.Int64Counter
	GroupDuration metric.Float64Histogram
	ActiveGroups  metric.Int64UpDownCounter
	RowsDropped   metric.Int64Counter
	StaleCells    metric.Int64Counter
	SeriesEmitted metric.Int64Counter
	SkipsTotal    metric.Int64Counter
}

// CreatePipelineMetrics creates the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	groupsTotal, err := meter.Int64Counter(
		"snapcli_groups_total",
		metric.WithDescription("Total number of processed groups by status"),
	)
	if err != nil {
		return nil, err
	}

	groupDuration, err := meter.Float64Histogram(
		"snapcli_group_duration_seconds",
		metric.WithDescription("Group processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeGroups, err := meter.Int64UpDownCounter(
		"snapcli_active_groups",
		metric.WithDescription("Number of groups currently being processed"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"snapcli_rows_dropped_total",
		metric.WithDescription("Rows removed because they were blank across the designated cluster"),
	)
	if err != nil {
		return nil, err
	}

	staleCells, err := meter.Int64Counter(
		"snapcli_stale_cells_total",
		metric.WithDescription("Cells flagged as unchanged since the previous snapshot"),
	)
	if err != nil {
		return nil, err
	}

	seriesEmitted, err := meter.Int64Counter(
		"snapcli_series_total",
		metric.WithDescription("Chart series written"),
	)
	if err != nil {
		return nil, err
	}

	skipsTotal, err := meter.Int64Counter(
		"snapcli_skips_total",
		metric.WithDescription("Skipped units of work by kind"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		GroupsTotal:   groupsTotal,
		GroupDuration: groupDuration,
		ActiveGroups:  activeGroups,
		RowsDropped:   rowsDropped,
		StaleCells:    staleCells,
		SeriesEmitted: seriesEmitted,
		SkipsTotal:    skipsTotal,
	}, nil
}

// RecordGroup records the outcome of one group
func (m *PipelineMetrics) RecordGroup(ctx context.Context, kind domain.RunKind, result domain.GroupResult, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("run.kind", string(kind)),
		attribute.String("status", string(result.Status)),
	}
	m.GroupsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.GroupDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	kindAttr := metric.WithAttributes(attribute.String("run.kind", string(kind)))
	m.RowsDropped.Add(ctx, int64(result.Counts.RowsDropped), kindAttr)
	m.StaleCells.Add(ctx, int64(result.Counts.StaleCells), kindAttr)
	m.SeriesEmitted.Add(ctx, int64(result.Counts.Series), kindAttr)

	if result.Status == domain.GroupStatusSkipped {
		m.RecordSkip(ctx, "group")
	}
	if result.Counts.SeriesSkipped > 0 {
		m.SkipsTotal.Add(ctx, int64(result.Counts.SeriesSkipped),
			metric.WithAttributes(attribute.String("skip.kind", "series")))
	}
}

// RecordSkip counts one skipped unit of work
func (m *PipelineMetrics) RecordSkip(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.SkipsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("skip.kind", kind)))
}

// RecordActiveChange tracks groups entering and leaving processing
func (m *PipelineMetrics) RecordActiveChange(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.ActiveGroups.Add(ctx, delta)
}
