package temporal

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	apperrors "snapcli/internal/errors"
)

const (
	// WildcardMetric requests one series per distinct metric.
	WildcardMetric = "*"
	// FirstColumn selects the sheet's first column as the x axis.
	FirstColumn = "first_column"
)

// SortOrder controls how series points are ordered by their x value.
type SortOrder string

const (
	SortNone SortOrder = "none"
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder maps a configuration value to a SortOrder. Empty means none.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNone:
		return SortNone, nil
	case SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// Number is a coerced numeric cell; Valid is false for cells that did not parse.
type Number struct {
	Value float64
	Valid bool
}

// ParseNumber parses a numeric cell. Thousands separators are ignored;
// NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Coerce converts a cell to a Number.
func Coerce(c Cell) Number {
	if !c.Valid {
		return Number{}
	}
	v, ok := ParseNumber(c.Text)
	return Number{Value: v, Valid: ok}
}

// SeriesRequest describes one series to extract.
type SeriesRequest struct {
	// Metric is a metric identifier or WildcardMetric.
	Metric string
	// XColumn names the category column, or FirstColumn.
	XColumn string
	Sort    SortOrder
	// Duplicates resolves columns sharing date and metric; empty keeps the first.
	Duplicates DuplicatePolicy
}

// Series is a chart-ready extraction of one cluster. XValues[i] and
// YValues[i] describe row i; YValues[i][j] is the value of Columns[j],
// labelled DisplayLabels[j].
type Series struct {
	MetricID      string
	XColumn       string
	XValues       []string
	Columns       []string
	DisplayLabels []string
	YValues       [][]Number
}

// Len returns the number of points (rows) in the series.
func (s *Series) Len() int {
	return len(s.XValues)
}

// ColumnValues returns the values of the j-th dated column across all rows.
func (s *Series) ColumnValues(j int) []Number {
	out := make([]Number, len(s.YValues))
	for i, ys := range s.YValues {
		out[i] = ys[j]
	}
	return out
}

// SeriesSummary holds descriptive statistics over every valid y value.
type SeriesSummary struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
}

// Summary computes min, max and mean over the valid y values. It fails when
// the series holds no valid value.
func (s *Series) Summary() (SeriesSummary, error) {
	var data stats.Float64Data
	for _, ys := range s.YValues {
		for _, y := range ys {
			if y.Valid {
				data = append(data, y.Value)
			}
		}
	}
	if len(data) == 0 {
		return SeriesSummary{}, fmt.Errorf("series %s has no numeric values", s.MetricID)
	}
	lo, err := stats.Min(data)
	if err != nil {
		return SeriesSummary{}, err
	}
	hi, err := stats.Max(data)
	if err != nil {
		return SeriesSummary{}, err
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return SeriesSummary{}, err
	}
	return SeriesSummary{Count: len(data), Min: lo, Max: hi, Mean: mean}, nil
}

// GatherSeries extracts chart series from raw columns and rows. Dated
// columns are re-tagged and re-sorted here, so the input does not need to
// have been assembled. A wildcard metric yields one series per distinct
// metric in first-encountered order. A request naming an absent x column or
// a metric with no columns returns a CONFIG_REFERENCE error; the skip is
// logged and is never fatal to the caller.
func GatherSeries(columns []string, rows []Row, req SeriesRequest, logger *slog.Logger) ([]*Series, error) {
	logger = loggerOrDiscard(logger)

	xColumn, err := resolveXColumn(columns, req.XColumn)
	if err != nil {
		logger.Warn("Series skipped, x column not found",
			slog.String("x_column", req.XColumn),
			slog.String("metric", req.Metric))
		return nil, err
	}

	tags := NewTagger(nil, logger).TagAll(columns)
	groups, order := groupDated(tags)

	var keys []string
	if strings.TrimSpace(req.Metric) == WildcardMetric {
		keys = order
	} else if _, ok := groups[NormalizeName(req.Metric)]; ok {
		keys = []string{NormalizeName(req.Metric)}
	}
	if len(keys) == 0 {
		logger.Warn("Series skipped, no dated columns match metric",
			slog.String("metric", req.Metric))
		return nil, apperrors.NewConfigReferenceError(
			fmt.Sprintf("no columns match metric %q", req.Metric), nil).
			WithContext("metric", req.Metric)
	}

	policy := req.Duplicates
	if policy == "" {
		policy = KeepFirst
	}

	var out []*Series
	for _, key := range keys {
		members := groups[key]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Date.Before(members[j].Date)
		})
		members, _ = resolveDuplicates(members, policy)
		s := buildSeries(members, xColumn, rows)
		sortSeries(s, req.Sort)

		if dropped := len(rows) - s.Len(); dropped > 0 {
			logger.Info("Rows without numeric values excluded from series",
				slog.String("metric", s.MetricID),
				slog.Int("excluded", dropped))
		}
		out = append(out, s)
	}
	return out, nil
}

func resolveXColumn(columns []string, name string) (string, error) {
	if strings.TrimSpace(name) == "" || NormalizeName(name) == NormalizeName(FirstColumn) {
		if len(columns) == 0 {
			return "", apperrors.NewConfigReferenceError("sheet has no columns", nil)
		}
		return columns[0], nil
	}
	if col, ok := FindColumn(columns, name); ok {
		return col, nil
	}
	return "", apperrors.NewConfigReferenceError(
		fmt.Sprintf("x column %q not found", name), nil).
		WithContext("column", name)
}

func groupDated(tags []ColumnTag) (map[string][]ColumnTag, []string) {
	groups := make(map[string][]ColumnTag)
	var order []string
	for _, tag := range tags {
		if !tag.Dated() {
			continue
		}
		key := tag.MetricKey()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tag)
	}
	return groups, order
}

func buildSeries(members []ColumnTag, xColumn string, rows []Row) *Series {
	s := &Series{
		MetricID: members[0].MetricID,
		XColumn:  xColumn,
	}
	for _, m := range members {
		s.Columns = append(s.Columns, m.RawName)
		s.DisplayLabels = append(s.DisplayLabels, m.DisplayLabel())
	}

	for _, row := range rows {
		ys := make([]Number, len(members))
		hasValue := false
		for j, m := range members {
			ys[j] = Coerce(row.Get(m.RawName))
			hasValue = hasValue || ys[j].Valid
		}
		if !hasValue {
			continue
		}
		s.XValues = append(s.XValues, row.Get(xColumn).String())
		s.YValues = append(s.YValues, ys)
	}
	return s
}

// sortSeries orders points by x: numerically when every x parses as a
// number, lexicographically otherwise. Ties keep their original order.
func sortSeries(s *Series, order SortOrder) {
	if order != SortAsc && order != SortDesc {
		return
	}

	numeric := true
	nums := make([]float64, len(s.XValues))
	for i, x := range s.XValues {
		v, ok := ParseNumber(x)
		if !ok {
			numeric = false
			break
		}
		nums[i] = v
	}

	idx := make([]int, len(s.XValues))
	for i := range idx {
		idx[i] = i
	}
	less := func(a, b int) bool {
		if numeric {
			return nums[a] < nums[b]
		}
		return s.XValues[a] < s.XValues[b]
	}
	sort.SliceStable(idx, func(i, j int) bool {
		if order == SortDesc {
			return less(idx[j], idx[i])
		}
		return less(idx[i], idx[j])
	})

	xs := make([]string, len(idx))
	ys := make([][]Number, len(idx))
	for i, k := range idx {
		xs[i] = s.XValues[k]
		ys[i] = s.YValues[k]
	}
	s.XValues = xs
	s.YValues = ys
}
