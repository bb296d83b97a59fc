package temporal

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "snapcli/internal/errors"
	"snapcli/internal/shared/testutil"
)

var seriesColumns = []string{"Oper", "01082024_Calls", "01012024_Calls", "Notes", "01012024_LastWk"}

func seriesRows() []Row {
	return []Row{
		RowFromStrings(seriesColumns, []string{"A", "1", "5", "n", "3"}),
		RowFromStrings(seriesColumns, []string{"B", "2", "x", "", ""}),
		RowFromStrings(seriesColumns, []string{"C", "", "7", "", "4"}),
		RowFromStrings(seriesColumns, []string{"D", "n/a", "", "", "6"}),
	}
}

func numbers(ns []Number) []interface{} {
	out := make([]interface{}, len(ns))
	for i, n := range ns {
		if n.Valid {
			out[i] = n.Value
		}
	}
	return out
}

func TestGatherSeries_SingleMetric(t *testing.T) {
	rows := seriesRows()
	series, err := GatherSeries(seriesColumns, rows, SeriesRequest{Metric: "calls", XColumn: "oper"}, nil)
	require.NoError(t, err)
	require.Len(t, series, 1)

	s := series[0]
	assert.Equal(t, "Calls", s.MetricID)
	assert.Equal(t, "Oper", s.XColumn)
	assert.Equal(t, []string{"01012024_Calls", "01082024_Calls"}, s.Columns)
	assert.Equal(t, []string{"01/01/2024", "01/08/2024"}, s.DisplayLabels)

	assert.Equal(t, []string{"A", "B", "C"}, s.XValues, "row D has no numeric value")
	assert.Equal(t, []interface{}{5.0, nil, 7.0}, numbers(s.ColumnValues(0)))
	assert.Equal(t, []interface{}{1.0, 2.0, nil}, numbers(s.ColumnValues(1)))
	assert.Len(t, rows, 4, "source rows are untouched")
}

func TestGatherSeries_Wildcard(t *testing.T) {
	series, err := GatherSeries(seriesColumns, seriesRows(), SeriesRequest{Metric: "*", XColumn: FirstColumn}, nil)
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, "Calls", series[0].MetricID)
	assert.Equal(t, "LastWk", series[1].MetricID)
	assert.Equal(t, []string{"A", "C", "D"}, series[1].XValues)
}

func TestGatherSeries_SortX(t *testing.T) {
	columns := []string{"Week", "01012024_Calls"}
	build := func(xs ...string) []Row {
		var rows []Row
		for i, x := range xs {
			rows = append(rows, RowFromStrings(columns, []string{x, string(rune('1' + i))}))
		}
		return rows
	}

	tests := []struct {
		name  string
		xs    []string
		order SortOrder
		want  []string
	}{
		{"numeric ascending", []string{"10", "9", "2"}, SortAsc, []string{"2", "9", "10"}},
		{"numeric descending", []string{"10", "9", "2"}, SortDesc, []string{"10", "9", "2"}},
		{"lexicographic when mixed", []string{"10", "9", "b"}, SortAsc, []string{"10", "9", "b"}},
		{"stable ties", []string{"b", "a", "b", "a"}, SortAsc, []string{"a", "a", "b", "b"}},
		{"none keeps order", []string{"3", "1", "2"}, SortNone, []string{"3", "1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := GatherSeries(columns, build(tt.xs...), SeriesRequest{Metric: "Calls", Sort: tt.order}, nil)
			require.NoError(t, err)
			require.Len(t, series, 1)
			assert.Equal(t, tt.want, series[0].XValues)
		})
	}

	series, err := GatherSeries(columns, build("b", "a", "b", "a"), SeriesRequest{Metric: "Calls", Sort: SortAsc}, nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2.0, 4.0, 1.0, 3.0}, numbers(series[0].ColumnValues(0)))
}

func TestGatherSeries_ConfigReferenceErrors(t *testing.T) {
	tests := []struct {
		name string
		req  SeriesRequest
	}{
		{"unknown x column", SeriesRequest{Metric: "Calls", XColumn: "Vname"}},
		{"unknown metric", SeriesRequest{Metric: "Logins", XColumn: "Oper"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := GatherSeries(seriesColumns, seriesRows(), tt.req, nil)
			require.Error(t, err)
			assert.Nil(t, series)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfigReference))
		})
	}
}

func TestSeries_Summary(t *testing.T) {
	series, err := GatherSeries(seriesColumns, seriesRows(), SeriesRequest{Metric: "Calls"}, nil)
	require.NoError(t, err)

	summary, err := series[0].Summary()
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Count)
	assert.Equal(t, 1.0, summary.Min)
	assert.Equal(t, 7.0, summary.Max)
	assert.InDelta(t, 3.75, summary.Mean, 1e-9)

	_, err = (&Series{MetricID: "Empty"}).Summary()
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"5", 5, true},
		{" 1,250.5 ", 1250.5, true},
		{"-3", -3, true},
		{"x", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.False(t, Coerce(Null).Valid)
	assert.Equal(t, Number{Value: 5, Valid: true}, Coerce(Value("5")))
}

func TestParseSortOrder(t *testing.T) {
	o, err := ParseSortOrder(" ASC ")
	require.NoError(t, err)
	assert.Equal(t, SortAsc, o)

	o, err = ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortNone, o)

	_, err = ParseSortOrder("up")
	assert.Error(t, err)
}

func TestGatherSeries_LogsInvalidDateToken(t *testing.T) {
	columns := []string{"Oper", "13012024_Calls", "01012024_Calls"}
	rows := []Row{RowFromStrings(columns, []string{"A", "1", "2"})}
	logger, logs := testutil.NewTestLogger(t)

	series, err := GatherSeries(columns, rows, SeriesRequest{Metric: "Calls", XColumn: "Oper"}, logger)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, []string{"01012024_Calls"}, series[0].Columns)

	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Column date token is not a calendar date, treating column as opaque")
	testutil.AssertLogAttr(t, logs, "token", "13012024")
}
