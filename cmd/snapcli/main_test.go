package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "snapcli/internal/errors"
	"snapcli/internal/shared/testutil"
	"snapcli/pkg/contracts/domain"
)

const testConfig = `
logging:
  level: warn
run:
  concurrency: 2
  timezone: UTC
discovery:
  paths: ["groups/*"]
series_requests:
  - sheet_prefix: LW
    x_column: Oper
    metric: "*"
    sort_x: asc
    chart_type: line
    title: LW
consolidate:
  groups:
    - name: Weekly
      source_path: snapshots
      destination_path: out
      sections:
        - file: Section11.xlsx
          key_columns: [Oper]
          compare_columns: [Logins]
`

func setupWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	testutil.WriteWorkbook(t, filepath.Join(root, "groups", "Cono1", "Cono1_01102025_08_00.xlsx"),
		testutil.Sheet{Name: "Section11", Rows: [][]string{
			{"Oper", "01012025_Login_Date", "01082025_Login_Date"},
			{"A", "5", "5"},
			{"B", "3", "4"},
		}},
		testutil.Sheet{Name: "LW_Summary", Rows: [][]string{
			{"Oper", "01012025_LastWk", "01082025_LastWk"},
			{"A", "3", "4"},
		}},
	)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "groups", "Empty"), 0755))

	for _, snap := range []struct{ folder, date, logins string }{
		{"01012025", "01/01/2025", "5"},
		{"01082025", "01/08/2025", "6"},
	} {
		testutil.WriteWorkbook(t, filepath.Join(root, "snapshots", snap.folder, "Section11.xlsx"),
			testutil.Sheet{Name: "Sheet1", Rows: [][]string{
				{"Date_of_rep", "Oper", "Logins"},
				{snap.date, "A", snap.logins},
			}})
	}

	require.NoError(t, os.WriteFile(filepath.Join(root, "snapcli.yaml"), []byte(testConfig), 0644))
	return filepath.Join(root, "snapcli.yaml")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "snapcli v")
}

func TestReportCommand(t *testing.T) {
	cfgPath := setupWorkspace(t)

	out, err := execute(t, "report", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Cono1")
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "Empty")
	assert.Contains(t, out, "skipped")

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(cfgPath), "groups", "Cono1", "Cono1_Src_100125_08_00__Grph_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestReportCommand_DryRunJSON(t *testing.T) {
	cfgPath := setupWorkspace(t)

	out, err := execute(t, "report", "--config", cfgPath, "--dryrun", "--format", "json", "--group", "cono1")
	require.NoError(t, err)

	var rep domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.True(t, rep.DryRun)
	require.Len(t, rep.Groups, 1)
	assert.Equal(t, "Cono1", rep.Groups[0].Group)
	assert.Equal(t, domain.GroupStatusDryRun, rep.Groups[0].Status)
	assert.Equal(t, 1, rep.Groups[0].Counts.Series)
	assert.Equal(t, 1, rep.Groups[0].Counts.StaleCells)

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(cfgPath), "groups", "Cono1", "*_Grph_*"))
	assert.Empty(t, matches)
}

func TestInspectCommand(t *testing.T) {
	cfgPath := setupWorkspace(t)

	out, err := execute(t, "inspect", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Cono1_01102025_08_00.xlsx")
	assert.Contains(t, out, "2025-01-10 08:00")
	assert.Contains(t, out, "filename")
	assert.Contains(t, out, "no source workbook found")
}

func TestConsolidateCommand(t *testing.T) {
	cfgPath := setupWorkspace(t)

	out, err := execute(t, "consolidate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Weekly")
	assert.Contains(t, out, "success")

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(cfgPath), "out", "Consolidate_report_*.xlsx"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, [][]string{
		{"Oper", "01012025_Logins", "01082025_Logins"},
		{"A", "5", "6"},
	}, testutil.ReadSheet(t, matches[0], "Section11"))
}

func TestMissingConfigIsFatal(t *testing.T) {
	_, err := execute(t, "report", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}
