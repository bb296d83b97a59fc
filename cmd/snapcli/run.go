package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"snapcli/internal/consolidate"
	"snapcli/internal/operations"
	"snapcli/internal/report"
	"snapcli/internal/temporal"
	transport "snapcli/internal/transport/http"
	"snapcli/internal/validation"
	"snapcli/pkg/contracts/domain"
)

func addRunFlags(cmd *cobra.Command, opts *rootOptions) {
	cmd.Flags().BoolVar(&opts.DryRun, "dryrun", false, "build everything but write no file")
	cmd.Flags().StringSliceVarP(&opts.Groups, "group", "g", nil, "only process the named groups (repeatable)")
}

func newReportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the annotated report workbook of every group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.shutdown()

			if dir := a.cfg.Output.Directory; dir != "" && !a.opts.DryRun {
				if err := validation.NewFileValidator(a.logger).ValidateOutputDirectory(a.cfg.Resolve(dir)); err != nil {
					return err
				}
			}

			gen := report.New(a.cfg, a.logger)
			groups, err := gen.Groups()
			if err != nil {
				return err
			}

			var units []operations.Unit
			for _, group := range groups {
				if !a.selected(group.Name) {
					continue
				}
				group := group
				units = append(units, operations.Unit{
					Name: group.Name,
					Run: func(ctx context.Context) domain.GroupResult {
						return gen.RunGroup(ctx, group, a.opts.DryRun)
					},
				})
			}
			if len(units) == 0 {
				a.logger.Warn("No groups found", slog.Any("paths", a.cfg.Discovery.Paths))
			}

			return a.execute(cmd, domain.RunKindReport, units)
		},
	}
	addRunFlags(cmd, a.opts)
	return cmd
}

func newConsolidateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge dated section files of every group into one workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.shutdown()

			c := consolidate.New(a.cfg, a.logger)
			var units []operations.Unit
			for _, group := range a.cfg.Consolidate.Groups {
				if !a.selected(group.Name) {
					continue
				}
				group := group
				units = append(units, operations.Unit{
					Name: group.Name,
					Run: func(ctx context.Context) domain.GroupResult {
						return c.RunGroup(ctx, group, a.opts.DryRun)
					},
				})
			}
			if len(units) == 0 {
				a.logger.Warn("No consolidate groups configured")
			}

			return a.execute(cmd, domain.RunKindConsolidate, units)
		},
	}
	addRunFlags(cmd, a.opts)
	return cmd
}

// selected reports whether group passes the --group filter
func (a *app) selected(group string) bool {
	if len(a.opts.Groups) == 0 {
		return true
	}
	for _, g := range a.opts.Groups {
		if temporal.SameName(g, group) {
			return true
		}
	}
	return false
}

// execute runs the units, serving /status and /metrics meanwhile when
// telemetry.metrics_addr is set, then prints the summary. Group failures
// are reported, not returned.
func (a *app) execute(cmd *cobra.Command, kind domain.RunKind, units []operations.Unit) error {
	ctx := cmd.Context()
	manager := operations.NewManager(a.cfg.Run.Concurrency, a.logger,
		operations.WithTracer(operations.NewGroupTracer(a.providers.Tracer)),
		operations.WithMetrics(a.metrics))

	if addr := a.cfg.Telemetry.MetricsAddr; addr != "" {
		srv := transport.NewServer(addr, transport.NewRouter(transport.RouterConfig{
			Status:     manager,
			Prometheus: a.providers.PrometheusHTTP,
			RPS:        a.cfg.Telemetry.StatusRPS,
			Burst:      a.cfg.Telemetry.StatusBurst,
			Logger:     a.logger,
		}), a.logger)
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("Status server shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	rep := manager.Run(ctx, kind, a.opts.DryRun, units)
	return printSummary(cmd.OutOrStdout(), a.opts.Format, rep)
}
