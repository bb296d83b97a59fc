package report

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"snapcli/internal/config"
	apperrors "snapcli/internal/errors"
	"snapcli/internal/files"
	"snapcli/internal/shared/testutil"
	"snapcli/internal/temporal"
	"snapcli/internal/workbook"
	"snapcli/pkg/contracts/domain"
)

var runClock = func() time.Time { return time.Date(2025, time.January, 20, 9, 5, 0, 0, time.UTC) }

func sectionSheet() testutil.Sheet {
	return testutil.Sheet{Name: "Section_11", Rows: [][]string{
		{"Oper", "Vname", "01012025_Login_Date", "01082025_Login_Date", "01012025_LastWk", "01082025_LastWk", "Empty"},
		{"B", "v2", "3", "4", "1", "1"},
		{"A", "v1", "5", "5", "2", "3"},
		{"C", "v3", "", "", "7", "8"},
	}}
}

func summarySheet() testutil.Sheet {
	return testutil.Sheet{Name: "LW_Summary", Rows: [][]string{
		{"Oper", "01012025_LastWk", "01082025_LastWk", "01012025_Logins"},
		{"B", "1", "2", "9"},
		{"A", "3", "4"},
	}}
}

func setupGroups(t *testing.T) (*config.Config, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "groups", "Cono1")

	testutil.WriteWorkbook(t, filepath.Join(dir, "Cono1_01052025_10_30.xlsx"),
		testutil.Sheet{Name: "Old", Rows: [][]string{{"x"}}})
	testutil.WriteWorkbook(t, filepath.Join(dir, "Cono1_01102025_08_00.xlsx"), sectionSheet(), summarySheet())
	testutil.WriteWorkbook(t, filepath.Join(dir, "Cono1_Src_050125_00_00__Grph_01302025_0000.xlsx"),
		testutil.Sheet{Name: "Produced", Rows: [][]string{{"x"}}})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "groups", "Cono2"), 0755))

	cfg := config.Default()
	cfg.Run.Timezone = "UTC"
	cfg.Discovery.Paths = []string{filepath.Join(root, "groups", "*")}
	cfg.Output.ExportSeriesCSV = true
	cfg.SeriesRequests = []config.SeriesRequest{
		{SheetPrefix: "LW", XColumn: "Oper", Metric: "*", SortX: "asc", ChartType: "line", Title: "LW"},
		{Sheet: "Nope", Metric: "LastWk"},
		{Sheet: "section11", Metric: "Bogus"},
		{Sheet: "LW_Summary", XColumn: "first_column", Metric: "Logins", MinRows: 2},
	}
	return cfg, dir
}

func TestGenerator_RunGroup(t *testing.T) {
	cfg, dir := setupGroups(t)
	logger, logs := testutil.NewTestLogger(t)
	gen := New(cfg, logger).WithClock(runClock)

	groups, err := gen.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Cono1", groups[0].Name)

	result := gen.RunGroup(context.Background(), groups[0], false)
	require.Equal(t, domain.GroupStatusSuccess, result.Status, result.Error)

	wantOutput := filepath.Join(dir, "Cono1_Src_100125_08_00__Grph_01202025_0905.xlsx")
	assert.Equal(t, wantOutput, result.Output)
	assert.Equal(t, filepath.Join(dir, "Cono1_01102025_08_00.xlsx"), result.Source)

	assert.Equal(t, domain.GroupCounts{
		Sheets:        6,
		Rows:          2,
		RowsDropped:   1,
		StaleCells:    2,
		Series:        2,
		SeriesSkipped: 3,
	}, result.Counts)

	assert.Equal(t, []string{
		"grph_LW_LastWk",
		"grph_LW_Logins",
		"Section11_clean",
		"Original_Section_11",
		"Original_LW_Summary",
		"Run_Log",
	}, testutil.SheetNames(t, result.Output))

	clean := testutil.ReadSheet(t, result.Output, "Section11_clean")
	assert.Equal(t, [][]string{
		{"Oper", "Vname", "01012025_Login_Date", "01082025_Login_Date", "01012025_LastWk", "01082025_LastWk"},
		{"A", "v1", "5", "5", "2", "3"},
		{"B", "v2", "3", "4", "1", "1"},
	}, clean)

	f, err := excelize.OpenFile(result.Output)
	require.NoError(t, err)
	defer f.Close()
	for cell, stale := range map[string]bool{"D2": true, "F3": true, "D3": false, "F2": false} {
		style, err := f.GetCellStyle("Section11_clean", cell)
		require.NoError(t, err)
		assert.Equal(t, stale, style != 0, cell)
	}

	series := testutil.ReadSheet(t, result.Output, "grph_LW_LastWk")
	assert.Equal(t, [][]string{
		{"Oper", "01/01/2025", "01/08/2025"},
		{"A", "3", "4"},
		{"B", "1", "2"},
	}, series)

	runLog := testutil.ReadSheet(t, result.Output, "Run_Log")
	require.NotEmpty(t, runLog)
	assert.Equal(t, []string{"Time", "Level", "Event", "Details"}, runLog[0])
	var events []string
	for _, row := range runLog[1:] {
		events = append(events, row[2])
	}
	assert.Contains(t, events, "Series skipped, sheet not found")
	assert.Contains(t, events, "Series skipped, not enough usable rows")
	assert.Contains(t, events, "Saving workbook")

	csvPath := filepath.Join(dir, "Cono1_Src_100125_08_00__Grph_01202025_0905_grph_LW_LastWk.csv")
	content, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Oper,01/01/2025,01/08/2025")

	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Series skipped, no dated columns match metric")
	testutil.AssertNoErrors(t, logs)
}

func TestGenerator_RunGroupSkipsEmptyGroup(t *testing.T) {
	cfg, _ := setupGroups(t)
	gen := New(cfg, nil).WithClock(runClock)

	groups, err := gen.Groups()
	require.NoError(t, err)

	result := gen.RunGroup(context.Background(), groups[1], false)
	assert.Equal(t, "Cono2", result.Group)
	assert.Equal(t, domain.GroupStatusSkipped, result.Status)
	assert.Equal(t, "SOURCE_NOT_FOUND", result.ErrorType)
}

func TestGenerator_DryRun(t *testing.T) {
	cfg, dir := setupGroups(t)
	gen := New(cfg, nil).WithClock(runClock)

	result := gen.RunGroup(context.Background(), files.Group{Name: "Cono1", Dir: dir}, true)
	assert.Equal(t, domain.GroupStatusDryRun, result.Status)
	assert.Equal(t, 6, result.Counts.Sheets)

	_, err := os.Stat(result.Output)
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".csv"), "dry run exports nothing")
	}
}

func TestGenerator_OutputDirectory(t *testing.T) {
	cfg, dir := setupGroups(t)
	out := filepath.Join(t.TempDir(), "reports")
	cfg.Output.Directory = out
	cfg.Output.RunLog = false
	cfg.Output.CopyOriginals = false
	cfg.Output.ExportSeriesCSV = false

	result := New(cfg, nil).WithClock(runClock).
		RunGroup(context.Background(), files.Group{Name: "Cono1", Dir: dir}, false)
	require.Equal(t, domain.GroupStatusSuccess, result.Status, result.Error)
	assert.Equal(t, out, filepath.Dir(result.Output))
	assert.Equal(t, []string{"grph_LW_LastWk", "grph_LW_Logins", "Section11_clean"}, testutil.SheetNames(t, result.Output))
}

func TestGenerator_UnreadableSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cono3_01102025_08_00.xlsx"), []byte("not a workbook"), 0644))

	cfg := config.Default()
	result := New(cfg, nil).RunGroup(context.Background(), files.Group{Name: "Cono3", Dir: dir}, false)
	assert.Equal(t, domain.GroupStatusFailed, result.Status)
	assert.Equal(t, "PARSING", result.ErrorType)
}

func TestGenerator_Inspect(t *testing.T) {
	cfg, _ := setupGroups(t)
	gen := New(cfg, nil)

	groups, err := gen.Groups()
	require.NoError(t, err)

	selections := gen.Inspect(groups)
	require.Len(t, selections, 2)

	assert.True(t, selections[0].Found)
	assert.Equal(t, "Cono1_01102025_08_00.xlsx", selections[0].Candidate.Name)
	assert.Equal(t, files.RecencyFilename, selections[0].Candidate.Source)
	assert.Equal(t, 2, selections[0].Eligible)

	assert.False(t, selections[1].Found)
	assert.Error(t, selections[1].Err)
}

type stubSheets struct {
	sheets map[string]*workbook.Sheet
	names  []string
}

func (s stubSheets) SheetNames() []string { return s.names }

func (s stubSheets) ReadSheet(name string) (*workbook.Sheet, error) {
	if sheet, ok := s.sheets[name]; ok {
		return sheet, nil
	}
	return nil, apperrors.NewParsingError("failed to read sheet", nil).WithContext("sheet", name)
}

func TestGenerator_UnreadableSheetSkipsOnlyItsSeries(t *testing.T) {
	columns := []string{"Oper", "01012025_LastWk", "01082025_LastWk"}
	good := &workbook.Sheet{
		Name:    "LW",
		Columns: columns,
		Rows:    []temporal.Row{temporal.RowFromStrings(columns, []string{"A", "1", "2"})},
		Raw:     [][]string{columns, {"A", "1", "2"}},
	}

	cfg := config.Default()
	cfg.Clean.Enabled = true
	cfg.Clean.SheetCandidates = []string{"Broken"}
	cfg.Output.CopyOriginals = true
	cfg.Output.ExportSeriesCSV = false
	cfg.SeriesRequests = []config.SeriesRequest{
		{Sheet: "Broken", XColumn: "Oper", Metric: "LastWk"},
		{Sheet: "LW", XColumn: "Oper", Metric: "LastWk"},
	}

	logger, logs := testutil.NewTestLogger(t)
	writer := workbook.NewWriter(logger)
	defer writer.Close()
	r := &run{
		logger: logger,
		reader: stubSheets{names: []string{"Broken", "LW"}, sheets: map[string]*workbook.Sheet{"LW": good}},
		writer: writer,
		sheets: make(map[string]*workbook.Sheet),
		result: domain.GroupResult{Status: domain.GroupStatusSuccess},
	}

	gen := New(cfg, logger)
	require.NoError(t, gen.writeSeries(r))
	require.NoError(t, gen.writeClean(r))
	require.NoError(t, gen.writeOriginals(r))

	assert.Equal(t, 1, r.result.Counts.Series)
	assert.Equal(t, 1, r.result.Counts.SeriesSkipped)
	assert.Equal(t, domain.GroupStatusSuccess, r.result.Status)
	assert.Contains(t, writer.Sheets(), "Original_LW")
	assert.NotContains(t, writer.Sheets(), "Original_Broken")

	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Series skipped, sheet unreadable")
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Clean sheet unreadable, skipping annotated table")
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Original sheet unreadable, not copied")
	testutil.AssertLogAttr(t, logs, "error_type", "PARSING")
}
