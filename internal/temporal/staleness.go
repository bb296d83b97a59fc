package temporal

import (
	"log/slog"
	"strings"
)

// CellRef addresses one cell of a table by row index and column name.
type CellRef struct {
	Row    int
	Column string
}

// StaleFlags is the set of cells whose value did not change since the
// previous snapshot.
type StaleFlags map[CellRef]bool

// Has reports whether the cell at row/column is flagged.
func (f StaleFlags) Has(row int, column string) bool {
	return f[CellRef{Row: row, Column: column}]
}

// Count returns the number of flagged cells.
func (f StaleFlags) Count() int {
	return len(f)
}

// DetectStale compares, for every row and every cluster with two or more
// members, the most recent member against the one before it. The most recent
// cell is flagged when it is non-blank and equal after trimming. Only that
// single pair is examined.
func DetectStale(rows []Row, clusters []Cluster, logger *slog.Logger) StaleFlags {
	logger = loggerOrDiscard(logger)
	flags := make(StaleFlags)

	for _, cluster := range clusters {
		n := len(cluster.Members)
		if n < 2 {
			continue
		}
		last := cluster.Members[n-1].RawName
		prev := cluster.Members[n-2].RawName

		flagged := 0
		for i, row := range rows {
			if IsStale(row.Get(prev), row.Get(last)) {
				flags[CellRef{Row: i, Column: last}] = true
				flagged++
			}
		}
		logger.Debug("Staleness checked",
			slog.String("metric", cluster.MetricID),
			slog.String("column", last),
			slog.String("previous_column", prev),
			slog.Int("stale_cells", flagged))
	}
	return flags
}

// IsStale reports whether latest repeats previous: latest is non-blank and
// both are equal after trimming whitespace.
func IsStale(previous, latest Cell) bool {
	if latest.Blank() || !previous.Valid {
		return false
	}
	return strings.TrimSpace(latest.Text) == strings.TrimSpace(previous.Text)
}
