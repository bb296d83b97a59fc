package operations

import (
	"context"
	"log/slog"

	"snapcli/pkg/contracts/domain"
)

// logRunStart logs the start of a run
func (m *Manager) logRunStart(ctx context.Context, state *RunState, groups int) {
	m.logger.InfoContext(ctx, "Run started",
		slog.String("run_id", state.ID()),
		slog.String("kind", string(state.report.Kind)),
		slog.Bool("dry_run", state.report.DryRun),
		slog.Int("groups", groups),
		slog.Int("concurrency", m.limit))
}

// logGroupComplete logs one group outcome at a level matching its status
func (m *Manager) logGroupComplete(ctx context.Context, result domain.GroupResult) {
	attrs := []any{
		slog.String("status", string(result.Status)),
		slog.String("source", result.Source),
		slog.String("output", result.Output),
		slog.Int("series", result.Counts.Series),
		slog.Int("series_skipped", result.Counts.SeriesSkipped),
		slog.Int("stale_cells", result.Counts.StaleCells),
		slog.Duration("duration", result.Duration),
	}
	switch result.Status {
	case domain.GroupStatusFailed:
		attrs = append(attrs,
			slog.String("error_type", result.ErrorType),
			slog.String("error", result.Error))
		m.logger.ErrorContext(ctx, "Group failed", attrs...)
	case domain.GroupStatusSkipped:
		attrs = append(attrs, slog.String("reason", result.Error))
		m.logger.WarnContext(ctx, "Group skipped", attrs...)
	default:
		m.logger.InfoContext(ctx, "Group completed", attrs...)
	}
}

// logRunComplete logs the run summary
func (m *Manager) logRunComplete(ctx context.Context, report *domain.RunReport) {
	counts := report.StatusCounts()
	totals := report.Totals()
	m.logger.InfoContext(ctx, "Run completed",
		slog.String("run_id", report.ID),
		slog.Int("success", counts[domain.GroupStatusSuccess]),
		slog.Int("dryrun", counts[domain.GroupStatusDryRun]),
		slog.Int("skipped", counts[domain.GroupStatusSkipped]),
		slog.Int("failed", counts[domain.GroupStatusFailed]),
		slog.Int("series", totals.Series),
		slog.Int("stale_cells", totals.StaleCells),
		slog.Duration("duration", report.CompletedAt.Sub(report.StartedAt)))
}
