// Package operations runs the per-group units of a snapcli command.
//
// A run is a list of Units, one per group. The Manager executes them on an
// errgroup bounded by the configured concurrency. Groups are isolated from
// each other: a failed or panicking unit becomes a failed GroupResult and
// its siblings keep going. Cancellation only prevents units from starting.
//
// Every unit gets its own span and the pipeline metrics are recorded when it
// completes. The RunState collector is the only state shared between
// workers; Manager.Status exposes a snapshot of it to the status endpoint
// while the run is in progress.
//
// Example usage:
//
//	manager := operations.NewManager(cfg.Run.Concurrency, logger,
//		operations.WithMetrics(metrics))
//
//	units := make([]operations.Unit, 0, len(groups))
//	for _, group := range groups {
//		group := group
//		units = append(units, operations.Unit{
//			Name: group.Name,
//			Run: func(ctx context.Context) domain.GroupResult {
//				return generator.RunGroup(ctx, group, dryRun)
//			},
//		})
//	}
//	report := manager.Run(ctx, domain.RunKindReport, dryRun, units)
package operations
