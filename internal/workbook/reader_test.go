package workbook

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "snapcli/internal/errors"
	"snapcli/internal/shared/testutil"
	"snapcli/internal/temporal"
)

func TestReaderReadSheet(t *testing.T) {
	path := testutil.WriteWorkbook(t, filepath.Join(t.TempDir(), "src.xlsx"),
		testutil.Sheet{Name: "Summary", Rows: [][]string{{"note"}, {"hello"}}},
		testutil.Sheet{Name: "Section 11", Rows: [][]string{
			{"Oper", "01012025_Login_Date", "", "Oper"},
			{"A", "5", "x", "dup"},
			{"B"},
		}},
	)

	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"Summary", "Section 11"}, r.SheetNames())

	sheet, err := r.ReadSheet("Section 11")
	require.NoError(t, err)
	assert.Equal(t, []string{"Oper", "01012025_Login_Date", "Column3", "Oper (2)"}, sheet.Columns)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, temporal.Value("5"), sheet.Rows[0].Get("01012025_Login_Date"))
	assert.Equal(t, temporal.Value("dup"), sheet.Rows[0].Get("Oper (2)"))
	assert.Equal(t, temporal.Null, sheet.Rows[1].Get("01012025_Login_Date"))
	assert.Len(t, sheet.Raw, 3)
}

func TestReaderRepeatedDatedHeaderFollowsDuplicatePolicy(t *testing.T) {
	path := testutil.WriteWorkbook(t, filepath.Join(t.TempDir(), "src.xlsx"),
		testutil.Sheet{Name: "Data", Rows: [][]string{
			{"Oper", "01012024_LastWk", "01012024_LastWk", "01082024_LastWk"},
			{"A", "3", "4", "3"},
		}},
	)

	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	sheet, err := r.ReadSheet("Data")
	require.NoError(t, err)
	repeat := "01012024_LastWk (2)"
	require.Equal(t, []string{"Oper", "01012024_LastWk", repeat, "01082024_LastWk"}, sheet.Columns)

	identity := []temporal.IdentityField{{Name: "Oper"}}

	t.Run("keep_first", func(t *testing.T) {
		table := temporal.Build(sheet.Columns, sheet.Rows,
			temporal.Options{Identity: identity, Duplicates: temporal.KeepFirst}, nil)

		require.Len(t, table.Clusters, 1)
		assert.Equal(t, "LastWk", table.Clusters[0].MetricID)
		assert.Equal(t, []string{"01012024_LastWk", "01082024_LastWk"}, table.Clusters[0].Columns())
		assert.Equal(t, []string{repeat}, table.Unclustered)
		assert.Equal(t, []string{"Oper", "01012024_LastWk", "01082024_LastWk", repeat}, table.Columns())
		assert.True(t, table.Flags.Has(0, "01082024_LastWk"))
	})

	t.Run("keep_last", func(t *testing.T) {
		table := temporal.Build(sheet.Columns, sheet.Rows,
			temporal.Options{Identity: identity, Duplicates: temporal.KeepLast}, nil)

		require.Len(t, table.Clusters, 1)
		assert.Equal(t, []string{repeat, "01082024_LastWk"}, table.Clusters[0].Columns())
		assert.Equal(t, []string{"01012024_LastWk"}, table.Unclustered)
		assert.False(t, table.Flags.Has(0, "01082024_LastWk"))
	})

	t.Run("wildcard series", func(t *testing.T) {
		series, err := temporal.GatherSeries(sheet.Columns, sheet.Rows,
			temporal.SeriesRequest{Metric: temporal.WildcardMetric, XColumn: "Oper"}, nil)
		require.NoError(t, err)
		require.Len(t, series, 1)
		assert.Equal(t, []string{"01012024_LastWk", "01082024_LastWk"}, series[0].Columns)
	})
}

func TestOpenMissingWorkbook(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestFindSheet(t *testing.T) {
	names := []string{"Overview", "Section 11 Detail", "section_11", "LW_Summary"}

	tests := []struct {
		name       string
		candidates []string
		contains   string
		want       string
		found      bool
	}{
		{"candidate wins", []string{"Section11"}, "section 11", "section_11", true},
		{"contains fallback", nil, "section 11", "Section 11 Detail", true},
		{"candidate order", []string{"missing", "overview"}, "", "Overview", true},
		{"nothing", []string{"Section12"}, "foo", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindSheet(names, tt.candidates, tt.contains)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindSheetByPrefix(t *testing.T) {
	names := []string{"Overview", "LW_Summary_0101"}

	got, ok := FindSheetByPrefix(names, "lw_summary")
	assert.True(t, ok)
	assert.Equal(t, "LW_Summary_0101", got)

	_, ok = FindSheetByPrefix(names, "")
	assert.False(t, ok)
}
