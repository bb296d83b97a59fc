package consolidate

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "snapcli/internal/errors"
	"snapcli/internal/temporal"
	"snapcli/internal/workbook"
)

// reportDateLayouts are tried in order when reading a report date cell.
var reportDateLayouts = []string{
	"01/02/06",
	"1/2/06",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01-02-2006",
	"1-2-06",
	"01-02-06",
	"2006/01/02",
	temporal.DateTokenLayout,
}

// ParseReportDate reads a report date cell: one of the accepted text layouts
// or an Excel serial day number. Only the calendar date is kept.
func ParseReportDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range reportDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return dateOnly(t), true
		}
	}
	if serial, ok := temporal.ParseNumber(value); ok && serial >= 1 && serial < 2958466 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Snapshot is one dated section file reduced to key and renamed compare columns.
type Snapshot struct {
	Path   string
	Folder string
	Date   time.Time
	Frame  Frame
}

// Token returns the snapshot date as MMDDYYYY.
func (s Snapshot) Token() string {
	return temporal.FormatDateToken(s.Date)
}

// loadSnapshot reads the first sheet of path. Key columns are required; a
// missing compare column is logged and left out. Failures are PARSING errors.
func loadSnapshot(path, dateColumn string, keys, compare []string, logger *slog.Logger) (Snapshot, error) {
	folder := filepath.Base(filepath.Dir(path))
	snap := Snapshot{Path: path, Folder: folder}

	r, err := workbook.Open(path, logger)
	if err != nil {
		return snap, err
	}
	defer r.Close()

	names := r.SheetNames()
	if len(names) == 0 {
		return snap, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
	}
	sheet, err := r.ReadSheet(names[0])
	if err != nil {
		return snap, err
	}

	keyColumns := make([]string, len(keys))
	for i, k := range keys {
		col, ok := temporal.FindColumn(sheet.Columns, k)
		if !ok {
			return snap, apperrors.NewParsingError(fmt.Sprintf("key column %q not found", k), nil).
				WithContext("path", path)
		}
		keyColumns[i] = col
	}

	date, ok := snapshotDate(sheet, dateColumn, folder)
	if !ok {
		return snap, apperrors.NewParsingError("no usable report date", nil).
			WithContext("path", path).
			WithContext("date_column", dateColumn)
	}
	snap.Date = date

	snap.Frame.Columns = append(snap.Frame.Columns, keys...)
	type pick struct{ source, target string }
	var picks []pick
	for _, c := range compare {
		col, ok := temporal.FindColumn(sheet.Columns, c)
		if !ok {
			logger.Warn("Compare column not found, left out",
				slog.String("path", path),
				slog.String("column", c))
			continue
		}
		target := temporal.DatedColumnName(date, c)
		picks = append(picks, pick{source: col, target: target})
		snap.Frame.Columns = append(snap.Frame.Columns, target)
	}

	for _, row := range sheet.Rows {
		out := make(temporal.Row, len(snap.Frame.Columns))
		for i, k := range keys {
			out[k] = row.Get(keyColumns[i])
		}
		for _, p := range picks {
			out[p.target] = row.Get(p.source)
		}
		snap.Frame.Rows = append(snap.Frame.Rows, out)
	}
	return snap, nil
}

// snapshotDate takes the first row's report date, falling back to a folder
// named MMDDYYYY.
func snapshotDate(sheet *workbook.Sheet, dateColumn, folder string) (time.Time, bool) {
	if col, ok := temporal.FindColumn(sheet.Columns, dateColumn); ok && len(sheet.Rows) > 0 {
		if date, ok := ParseReportDate(sheet.Rows[0].Get(col).String()); ok {
			return date, true
		}
	}
	if date, err := temporal.ParseDateToken(folder); err == nil {
		return date, true
	}
	return time.Time{}, false
}
