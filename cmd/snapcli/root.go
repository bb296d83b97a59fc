package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"snapcli/internal/config"
	"snapcli/internal/infrastructure"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
	Format     string // "text" | "json"
	DryRun     bool
	Groups     []string
}

var validFormats = []string{"text", "json"}

// app is the state shared by commands once the configuration is loaded.
type app struct {
	opts      *rootOptions
	cfg       *config.Config
	logger    *slog.Logger
	providers *infrastructure.OTelProviders
	metrics   *infrastructure.PipelineMetrics
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	a := &app{opts: opts}

	cmd := &cobra.Command{
		Use:   "snapcli",
		Short: "Consolidate dated workbook snapshots and build trend reports",
		Long: "snapcli reads workbooks whose columns carry snapshot dates, groups those\n" +
			"columns by metric, flags values unchanged since the previous snapshot and\n" +
			"writes annotated tables and charts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (default: snapcli.yaml, config.yaml or configs/snapcli.yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging.level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "summary output format (text|json)")

	cmd.AddCommand(newReportCommand(a))
	cmd.AddCommand(newConsolidateCommand(a))
	cmd.AddCommand(newInspectCommand(a))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setup loads the configuration and starts logging and telemetry. A
// configuration error is the only error that aborts the process.
func (a *app) setup() error {
	cfg, err := config.Load(a.opts.ConfigPath)
	if err != nil {
		return err
	}
	if a.opts.LogLevel != "" {
		cfg.Logging.Level = a.opts.LogLevel
	}
	a.cfg = cfg

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.providers = providers

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	a.metrics = metrics

	logger.Debug("Configuration loaded",
		slog.String("file", cfg.File),
		slog.Int("concurrency", cfg.Run.Concurrency),
		slog.String("timezone", cfg.Run.Timezone))
	return nil
}

func (a *app) shutdown() {
	if a.providers != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.providers.Shutdown(ctx); err != nil {
			a.logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}
	_ = infrastructure.CloseLogFile()
}
