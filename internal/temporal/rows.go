package temporal

import (
	"log/slog"
	"sort"
	"strings"
)

// DropBlankInCluster returns the rows that have at least one non-blank cell
// among the cluster's members. A row is dropped only when every member cell
// is null, empty or whitespace. The input slice is not modified.
func DropBlankInCluster(rows []Row, cluster Cluster, logger *slog.Logger) []Row {
	logger = loggerOrDiscard(logger)
	if len(cluster.Members) == 0 {
		return append([]Row(nil), rows...)
	}

	columns := cluster.Columns()
	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		if allBlank(row, columns) {
			continue
		}
		kept = append(kept, row)
	}

	if dropped := len(rows) - len(kept); dropped > 0 {
		logger.Info("Dropped rows blank across cluster",
			slog.String("metric", cluster.MetricID),
			slog.Int("dropped", dropped),
			slog.Int("remaining", len(kept)))
	}
	return kept
}

func allBlank(row Row, columns []string) bool {
	for _, c := range columns {
		if !row.Get(c).Blank() {
			return false
		}
	}
	return true
}

// SortRows returns the rows stably sorted ascending by the column matching
// key under NormalizeName. Values that all parse as numbers compare
// numerically, text compares lexicographically after numbers, and blanks sort
// last. When no column matches, the rows come back in their original order
// and the omission is logged.
func SortRows(rows []Row, columns []string, key string, logger *slog.Logger) []Row {
	logger = loggerOrDiscard(logger)
	out := append([]Row(nil), rows...)
	if strings.TrimSpace(key) == "" {
		return out
	}

	column, ok := FindColumn(columns, key)
	if !ok {
		logger.Warn("Sort key column not found, rows left unsorted",
			slog.String("sort_key", key))
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessCell(out[i].Get(column), out[j].Get(column))
	})
	logger.Info("Rows sorted", slog.String("column", column), slog.Int("rows", len(out)))
	return out
}

// lessCell orders numbers before text before blanks.
func lessCell(a, b Cell) bool {
	ra, rb := cellRank(a), cellRank(b)
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case 0:
		na, _ := ParseNumber(a.Text)
		nb, _ := ParseNumber(b.Text)
		return na < nb
	case 1:
		return strings.TrimSpace(a.Text) < strings.TrimSpace(b.Text)
	default:
		return false
	}
}

func cellRank(c Cell) int {
	if c.Blank() {
		return 2
	}
	if _, ok := ParseNumber(c.Text); ok {
		return 0
	}
	return 1
}

// Tidy cleans a freshly read sheet: text cells are trimmed, fully empty rows
// and rows repeating the header are removed, and opaque columns that are
// empty in every row are dropped. Dated and identity columns are always kept.
func Tidy(columns []string, rows []Row, tagger *Tagger, logger *slog.Logger) ([]string, []Row) {
	logger = loggerOrDiscard(logger)

	cleaned := make([]Row, 0, len(rows))
	var emptyRows, headerRows int
	for _, row := range rows {
		trimmed := make(Row, len(row))
		for k, v := range row {
			if v.Valid {
				v.Text = strings.TrimSpace(v.Text)
			}
			trimmed[k] = v
		}
		if allBlank(trimmed, columns) {
			emptyRows++
			continue
		}
		if repeatsHeader(trimmed, columns) {
			headerRows++
			continue
		}
		cleaned = append(cleaned, trimmed)
	}

	var kept []string
	var droppedColumns []string
	for _, tag := range tagger.TagAll(columns) {
		if tag.Kind() == KindOpaque && columnEmpty(cleaned, tag.RawName) {
			droppedColumns = append(droppedColumns, tag.RawName)
			continue
		}
		kept = append(kept, tag.RawName)
	}

	if emptyRows > 0 || headerRows > 0 || len(droppedColumns) > 0 {
		logger.Info("Sheet tidied",
			slog.Int("empty_rows_dropped", emptyRows),
			slog.Int("header_rows_dropped", headerRows),
			slog.Any("empty_columns_dropped", droppedColumns))
	}
	return kept, cleaned
}

func repeatsHeader(row Row, columns []string) bool {
	for _, c := range columns {
		if strings.TrimSpace(row.Get(c).Text) != strings.TrimSpace(c) {
			return false
		}
	}
	return len(columns) > 0
}

func columnEmpty(rows []Row, column string) bool {
	for _, row := range rows {
		if !row.Get(column).Blank() {
			return false
		}
	}
	return true
}
