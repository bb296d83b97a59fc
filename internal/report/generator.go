package report

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"snapcli/internal/config"
	apperrors "snapcli/internal/errors"
	"snapcli/internal/exporter"
	"snapcli/internal/files"
	"snapcli/internal/infrastructure"
	"snapcli/internal/temporal"
	"snapcli/internal/workbook"
	"snapcli/pkg/contracts/domain"
)

const (
	originalPrefix = "Original_"
	seriesPrefix   = "grph_"
	runLogSheet    = "Run_Log"
)

// Generator builds one report workbook per group from the group's latest
// snapshot workbook.
type Generator struct {
	cfg       *config.Config
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
	discovery *files.Discovery
	manager   *files.Manager
}

// New creates a generator for cfg.
func New(cfg *config.Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}
	return &Generator{
		cfg:       cfg,
		logger:    logger,
		loc:       loc,
		now:       time.Now,
		discovery: files.NewDiscovery(cfg.BaseDir(), cfg.Discovery.FileExtensions...),
		manager:   files.NewManager(cfg.BaseDir()),
	}
}

// WithClock replaces the clock used for {run_ts}.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Groups discovers the group directories named by discovery.paths.
func (g *Generator) Groups() ([]files.Group, error) {
	groups, err := g.discovery.DiscoverGroups(g.cfg.Discovery.Paths)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to discover groups", err)
	}
	return groups, nil
}

// Selection is the source choice for one group.
type Selection struct {
	Group     files.Group
	Candidate files.Candidate
	Found     bool
	// Eligible counts the workbooks that were not ignored.
	Eligible int
	Err      error
}

// Select ranks the workbooks of group and picks the most recent one.
func (g *Generator) Select(group files.Group, logger *slog.Logger) Selection {
	sel := Selection{Group: group}
	workbooks, err := g.discovery.FindWorkbooks(group.Dir)
	if err != nil {
		sel.Err = apperrors.NewSourceNotFoundError("cannot list group directory").
			WithContext("dir", group.Dir).WithContext("cause", err.Error())
		return sel
	}

	selector := files.NewSelector(g.cfg.Discovery.IgnoreFilenameContains, g.loc, logger)
	ranked := selector.Rank(workbooks)
	sel.Eligible = len(ranked)
	if len(ranked) == 0 {
		sel.Err = apperrors.NewSourceNotFoundError("no source workbook found").
			WithContext("dir", group.Dir)
		return sel
	}
	sel.Candidate = ranked[0]
	sel.Found = true
	return sel
}

// Inspect returns the selection of every group without processing any.
func (g *Generator) Inspect(groups []files.Group) []Selection {
	out := make([]Selection, 0, len(groups))
	for _, group := range groups {
		out = append(out, g.Select(group, g.logger.With(slog.String("group", group.Name))))
	}
	return out
}

// sheetSource is what a run reads source sheets from.
type sheetSource interface {
	SheetNames() []string
	ReadSheet(name string) (*workbook.Sheet, error)
}

// run carries the state of one group's processing.
type run struct {
	logger  *slog.Logger
	journal *infrastructure.Journal
	reader  sheetSource
	writer  *workbook.Writer
	sheets  map[string]*workbook.Sheet
	result  domain.GroupResult
	output  string
	dryRun  bool
}

// RunGroup processes one group. A group without an eligible workbook is
// skipped; a missing sheet, column or metric only skips that piece of
// output. The group fails when the source workbook cannot be opened or the
// output cannot be written. Cancellation is honoured by the caller before
// the group starts; a started group runs to completion.
func (g *Generator) RunGroup(ctx context.Context, group files.Group, dryRun bool) domain.GroupResult {
	journal := infrastructure.NewJournal(slog.LevelInfo)
	logger := journal.Tee(g.logger.With(slog.String("group", group.Name)))

	r := &run{
		logger:  logger,
		journal: journal,
		sheets:  make(map[string]*workbook.Sheet),
		dryRun:  dryRun,
		result:  domain.GroupResult{Group: group.Name, Status: domain.GroupStatusSuccess},
	}

	sel := g.Select(group, logger)
	if !sel.Found {
		logger.Warn("No source workbook found, group skipped",
			slog.String("dir", group.Dir),
			slog.String("error", sel.Err.Error()))
		r.result.Status = domain.GroupStatusSkipped
		r.result.Error = sel.Err.Error()
		r.result.ErrorType = string(apperrors.TypeOf(sel.Err))
		return r.result
	}
	r.result.Source = sel.Candidate.Path
	logger.Info("Processing workbook",
		slog.String("source", sel.Candidate.Path),
		slog.String("recency_source", string(sel.Candidate.Source)),
		slog.Time("recency", sel.Candidate.Recency),
		slog.Int("eligible", sel.Eligible))

	reader, err := workbook.Open(sel.Candidate.Path, logger)
	if err != nil {
		return r.fail(err)
	}
	defer reader.Close()
	r.reader = reader

	r.writer = workbook.NewWriter(logger)
	defer r.writer.Close()

	name := OutputName(g.cfg.Output.FilenamePattern, group.Name, sel.Candidate.Recency, g.now(), g.loc)
	r.output = g.outputPath(sel.Candidate.Path, name)
	r.result.Output = r.output

	if err := g.writeSeries(r); err != nil {
		return r.fail(err)
	}
	if err := g.writeClean(r); err != nil {
		return r.fail(err)
	}
	if err := g.writeOriginals(r); err != nil {
		return r.fail(err)
	}

	if r.dryRun {
		logger.Info("Dry run, workbook not saved", slog.String("output", r.output))
		r.result.Status = domain.GroupStatusDryRun
	} else {
		logger.Info("Saving workbook", slog.String("output", r.output))
	}

	if g.cfg.Output.RunLog {
		if _, err := r.writer.AddRows(runLogSheet, runLogRows(journal.Entries())); err != nil {
			return r.fail(err)
		}
	}
	r.result.Counts.Sheets = len(r.writer.Sheets())

	if r.dryRun {
		return r.result
	}

	if err := g.manager.EnsureDirectory(filepath.Dir(r.output)); err != nil {
		return r.fail(apperrors.NewWriteError("failed to create output directory", err))
	}
	if err := r.writer.SaveAs(r.output); err != nil {
		return r.fail(err)
	}
	return r.result
}

func (g *Generator) outputPath(source, name string) string {
	dir := g.cfg.Output.Directory
	if dir == "" {
		return filepath.Join(filepath.Dir(source), name)
	}
	return filepath.Join(g.cfg.Resolve(dir), name)
}

// sheet reads and caches one source sheet.
func (r *run) sheet(name string) (*workbook.Sheet, error) {
	if s, ok := r.sheets[name]; ok {
		return s, nil
	}
	s, err := r.reader.ReadSheet(name)
	if err != nil {
		return nil, err
	}
	r.sheets[name] = s
	return s, nil
}

func (r *run) fail(err error) domain.GroupResult {
	r.logger.Error("Group failed",
		slog.String("error_type", string(apperrors.TypeOf(err))),
		slog.String("error", err.Error()))
	r.result.Status = domain.GroupStatusFailed
	r.result.Error = err.Error()
	r.result.ErrorType = string(apperrors.TypeOf(err))
	return r.result
}

func (r *run) skipSeries(msg string, attrs ...any) {
	r.result.Counts.SeriesSkipped++
	r.logger.Warn(msg, attrs...)
}

// writeSeries emits one grph_ sheet per extracted series, in request order.
func (g *Generator) writeSeries(r *run) error {
	names := r.reader.SheetNames()
	var csv *exporter.CSVWriter
	if g.cfg.Output.ExportSeriesCSV && !r.dryRun {
		csv = exporter.NewCSVWriter(filepath.Dir(r.output), r.logger)
	}

	for i, req := range g.cfg.SeriesRequests {
		sheetName, ok := findRequestSheet(names, req)
		if !ok {
			r.skipSeries("Series skipped, sheet not found",
				slog.Int("request", i),
				slog.String("sheet", req.Sheet),
				slog.String("sheet_prefix", req.SheetPrefix))
			continue
		}
		sheet, err := r.sheet(sheetName)
		if err != nil {
			r.skipSeries("Series skipped, sheet unreadable",
				slog.Int("request", i),
				slog.String("sheet", sheetName),
				slog.String("error_type", string(apperrors.TypeOf(err))),
				slog.String("error", err.Error()))
			continue
		}

		order, _ := temporal.ParseSortOrder(req.SortX)
		wildcard := strings.TrimSpace(req.Metric) == temporal.WildcardMetric
		all, err := temporal.GatherSeries(sheet.Columns, sheet.Rows, temporal.SeriesRequest{
			Metric:     req.Metric,
			XColumn:    req.XColumn,
			Sort:       order,
			Duplicates: g.cfg.TableOptions().Duplicates,
		}, r.logger)
		if err != nil {
			r.result.Counts.SeriesSkipped++
			continue
		}

		minRows := req.MinRows
		if minRows < 1 {
			minRows = 1
		}
		for _, s := range all {
			title := seriesTitle(req.Title, sheetName, s.MetricID, wildcard)
			if s.Len() < minRows {
				r.skipSeries("Series skipped, not enough usable rows",
					slog.String("title", title),
					slog.Int("rows", s.Len()),
					slog.Int("min_rows", minRows))
				continue
			}

			written, err := r.writer.AddSeries(seriesPrefix+workbook.WordsOnly(title), s, workbook.SeriesChart{
				Type:  workbook.ChartType(req.ChartType),
				Title: title,
			})
			if err != nil {
				return err
			}
			r.result.Counts.Series++

			if csv != nil {
				base := strings.TrimSuffix(filepath.Base(r.output), filepath.Ext(r.output))
				if err := csv.ExportSeries(fmt.Sprintf("%s_%s.csv", base, written), s); err != nil {
					r.logger.Warn("Series CSV export failed",
						slog.String("sheet", written),
						slog.String("error", err.Error()))
				}
			}
		}
	}
	return nil
}

func findRequestSheet(names []string, req config.SeriesRequest) (string, bool) {
	if req.Sheet != "" {
		return workbook.FindSheet(names, []string{req.Sheet}, "")
	}
	return workbook.FindSheetByPrefix(names, req.SheetPrefix)
}

// writeClean writes the annotated snapshot table.
func (g *Generator) writeClean(r *run) error {
	if !g.cfg.Clean.Enabled {
		return nil
	}
	sheetName, ok := workbook.FindSheet(r.reader.SheetNames(), g.cfg.Clean.SheetCandidates, g.cfg.Clean.SheetContains)
	if !ok {
		r.logger.Info("Clean sheet not found, skipping annotated table",
			slog.Any("candidates", g.cfg.Clean.SheetCandidates),
			slog.String("contains", g.cfg.Clean.SheetContains))
		return nil
	}
	sheet, err := r.sheet(sheetName)
	if err != nil {
		r.logger.Warn("Clean sheet unreadable, skipping annotated table",
			slog.String("sheet", sheetName),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("error", err.Error()))
		return nil
	}

	opts := g.cfg.TableOptions()
	columns, rows := temporal.Tidy(sheet.Columns, sheet.Rows, temporal.NewTagger(opts.Identity, r.logger), r.logger)
	table := temporal.Build(columns, rows, opts, r.logger)

	written, err := r.writer.AddTable(g.cfg.Clean.OutputSheet, table, g.cfg.Output.StaleFillColor)
	if err != nil {
		return err
	}

	r.result.Counts.Rows += len(table.Rows)
	r.result.Counts.RowsDropped += len(rows) - len(table.Rows)
	r.result.Counts.StaleCells += table.Flags.Count()
	r.logger.Info("Annotated table written",
		slog.String("source_sheet", sheetName),
		slog.String("sheet", written),
		slog.Int("rows", len(table.Rows)),
		slog.Int("clusters", len(table.Clusters)),
		slog.Int("stale_cells", table.Flags.Count()))
	return nil
}

// writeOriginals copies every source sheet values-only.
func (g *Generator) writeOriginals(r *run) error {
	if !g.cfg.Output.CopyOriginals {
		return nil
	}
	for _, name := range r.reader.SheetNames() {
		sheet, err := r.sheet(name)
		if err != nil {
			r.logger.Warn("Original sheet unreadable, not copied",
				slog.String("sheet", name),
				slog.String("error_type", string(apperrors.TypeOf(err))),
				slog.String("error", err.Error()))
			continue
		}
		if _, err := r.writer.AddRows(originalPrefix+workbook.WordsOnly(name), sheet.Raw); err != nil {
			return err
		}
	}
	return nil
}

func runLogRows(entries []infrastructure.JournalEntry) [][]string {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, []string{"Time", "Level", "Event", "Details"})
	for _, e := range entries {
		rows = append(rows, []string{
			e.Time.Format(time.RFC3339),
			e.Level.String(),
			e.Message,
			e.Details(),
		})
	}
	return rows
}
