package consolidate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"snapcli/internal/config"
	apperrors "snapcli/internal/errors"
	"snapcli/internal/files"
	"snapcli/internal/temporal"
	"snapcli/internal/validation"
	"snapcli/internal/workbook"
	"snapcli/pkg/contracts/domain"
)

// OutputTimestampLayout stamps consolidated workbook names.
const OutputTimestampLayout = "01022006_15_04"

// OutputName returns the consolidated workbook file name for a run at now.
func OutputName(now time.Time) string {
	return fmt.Sprintf("Consolidate_report_%s.xlsx", now.Format(OutputTimestampLayout))
}

// Consolidator merges the dated section files of each group into one workbook.
type Consolidator struct {
	cfg       *config.Config
	logger    *slog.Logger
	manager   *files.Manager
	validator *validation.FileValidator
	loc       *time.Location
	now       func() time.Time
	policy    temporal.DuplicatePolicy
}

// New creates a consolidator for cfg.
func New(cfg *config.Config, logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}
	policy, _ := temporal.ParseDuplicatePolicy(cfg.Table.DuplicatePolicy)
	return &Consolidator{
		cfg:       cfg,
		logger:    logger,
		manager:   files.NewManager(cfg.BaseDir()),
		validator: validation.NewFileValidator(logger),
		loc:       loc,
		now:       time.Now,
		policy:    policy,
	}
}

// WithClock replaces the clock used to stamp output names.
func (c *Consolidator) WithClock(now func() time.Time) *Consolidator {
	c.now = now
	return c
}

// RunGroup consolidates one group. Unreadable snapshots are logged and
// skipped; only a failed save fails the group. A group whose source folder
// is missing or holds no data is skipped. With dryRun nothing is written.
// Cancellation is honoured by the caller before the group starts.
func (c *Consolidator) RunGroup(ctx context.Context, group config.ConsolidateGroup, dryRun bool) domain.GroupResult {
	logger := c.logger.With(slog.String("group", group.Name))
	result := domain.GroupResult{
		Group:  group.Name,
		Source: c.cfg.Resolve(group.SourcePath),
		Status: domain.GroupStatusSuccess,
	}

	if err := c.validator.ValidateInputDirectory(result.Source); err != nil {
		logger.Warn("Source folder unavailable, group skipped", slog.String("error", err.Error()))
		result.Status = domain.GroupStatusSkipped
		result.Error = err.Error()
		result.ErrorType = string(apperrors.TypeOf(err))
		return result
	}

	w := workbook.NewWriter(logger)
	defer w.Close()

	for _, section := range group.Sections {
		frame, snapshots := c.mergeSection(result.Source, section, logger)
		if len(frame.Rows) == 0 {
			logger.Info("No data consolidated for section", slog.String("section", section.File))
			continue
		}

		rows := append([][]string{frame.Columns}, frame.Values()...)
		sheet, err := w.AddRows(section.SheetName(), rows)
		if err != nil {
			return failed(result, err)
		}
		result.Counts.Snapshots += snapshots
		result.Counts.Sheets++
		result.Counts.Rows += len(frame.Rows)
		logger.Info("Section consolidated",
			slog.String("section", section.File),
			slog.String("sheet", sheet),
			slog.Int("snapshots", snapshots),
			slog.Int("rows", len(frame.Rows)),
			slog.Int("columns", len(frame.Columns)))
	}

	if result.Counts.Sheets == 0 {
		logger.Warn("No data consolidated for group")
		result.Status = domain.GroupStatusSkipped
		return result
	}

	dest := c.cfg.Resolve(group.DestinationPath)
	result.Output = filepath.Join(dest, OutputName(c.now().In(c.loc)))

	if dryRun {
		logger.Info("Dry run, consolidated workbook not saved", slog.String("output", result.Output))
		result.Status = domain.GroupStatusDryRun
		return result
	}

	if err := c.manager.EnsureDirectory(dest); err != nil {
		return failed(result, apperrors.NewWriteError("failed to create destination", err).
			WithContext("path", dest))
	}
	if err := w.SaveAs(result.Output); err != nil {
		return failed(result, err)
	}

	logger.Info("Consolidated report created", slog.String("output", result.Output))
	return result
}

// mergeSection loads every dated copy of section under source and merges
// them in ascending date order.
func (c *Consolidator) mergeSection(source string, section config.Section, logger *slog.Logger) (Frame, int) {
	matches, err := filepath.Glob(filepath.Join(source, "*", section.File))
	if err != nil {
		logger.Error("Invalid section pattern", slog.String("section", section.File), slog.String("error", err.Error()))
		return Frame{}, 0
	}

	var snapshots []Snapshot
	for _, path := range matches {
		if c.ignored(source, path) {
			logger.Debug("Snapshot ignored", slog.String("path", path))
			continue
		}
		snap, err := loadSnapshot(path, c.cfg.Consolidate.DateColumn, section.KeyColumns, section.CompareColumns, logger)
		if err != nil {
			logger.Warn("Snapshot skipped",
				slog.String("path", path),
				slog.String("error_type", string(apperrors.TypeOf(err))),
				slog.String("error", err.Error()))
			continue
		}
		snapshots = append(snapshots, snap)
	}

	snapshots = c.resolveSameDate(snapshots, logger)

	var merged Frame
	for _, snap := range snapshots {
		merged = Merge(merged, snap.Frame, section.KeyColumns)
	}
	return merged, len(snapshots)
}

// resolveSameDate orders snapshots by date and keeps one per date. Folder
// order breaks ties; keep_last keeps the later folder, every other policy
// keeps the first because the renamed columns would collide.
func (c *Consolidator) resolveSameDate(snapshots []Snapshot, logger *slog.Logger) []Snapshot {
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Date.Before(snapshots[j].Date)
	})

	var out []Snapshot
	for _, snap := range snapshots {
		n := len(out)
		if n == 0 || !out[n-1].Date.Equal(snap.Date) {
			out = append(out, snap)
			continue
		}
		kept, dropped := out[n-1], snap
		if c.policy == temporal.KeepLast {
			kept, dropped = snap, out[n-1]
			out[n-1] = snap
		}
		logger.Warn("Duplicate snapshot date, one copy dropped",
			slog.String("date_token", snap.Token()),
			slog.String("kept", kept.Path),
			slog.String("dropped", dropped.Path),
			slog.String("policy", string(c.policy)))
	}
	return out
}

// ignored matches the ignore substrings against the path below source.
func (c *Consolidator) ignored(source, path string) bool {
	rel, err := filepath.Rel(source, path)
	if err != nil {
		rel = path
	}
	lower := strings.ToLower(rel)
	for _, pattern := range c.cfg.Consolidate.IgnorePathContains {
		if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

func failed(result domain.GroupResult, err error) domain.GroupResult {
	result.Status = domain.GroupStatusFailed
	result.Error = err.Error()
	result.ErrorType = string(apperrors.TypeOf(err))
	return result
}
