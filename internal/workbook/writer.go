package workbook

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "snapcli/internal/errors"
	"snapcli/internal/temporal"
)

const defaultSheet = "Sheet1"

// ChartType selects the excelize chart used for a series sheet.
type ChartType string

const (
	ChartColumn        ChartType = "column"
	ChartBar           ChartType = "bar"
	ChartStackedColumn ChartType = "stacked_column"
	ChartLine          ChartType = "line"
	ChartScatter       ChartType = "scatter"
)

func (c ChartType) chartType() excelize.ChartType {
	switch c {
	case ChartBar:
		return excelize.Bar
	case ChartStackedColumn:
		return excelize.ColStacked
	case ChartLine:
		return excelize.Line
	case ChartScatter:
		return excelize.Scatter
	default:
		return excelize.Col
	}
}

// ChartAnchor is the cell the chart's top left corner is placed on.
const ChartAnchor = "H2"

// Writer builds an output workbook sheet by sheet.
type Writer struct {
	file   *excelize.File
	logger *slog.Logger
	sheets []string
	styles map[string]int
}

// NewWriter creates an empty workbook.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		file:   excelize.NewFile(),
		logger: logger,
		styles: make(map[string]int),
	}
}

// Sheets returns the names of the sheets added so far, in order.
func (w *Writer) Sheets() []string {
	return append([]string(nil), w.sheets...)
}

// Close releases the workbook.
func (w *Writer) Close() error {
	return w.file.Close()
}

// newSheet creates a sheet named after base and returns the final name.
func (w *Writer) newSheet(base string) (string, error) {
	name := SafeSheetName(base, w.sheets)
	if len(w.sheets) == 0 {
		if err := w.file.SetSheetName(defaultSheet, name); err != nil {
			return "", apperrors.NewWriteError("failed to name sheet", err).WithContext("sheet", name)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return "", apperrors.NewWriteError("failed to add sheet", err).WithContext("sheet", name)
	}
	w.sheets = append(w.sheets, name)
	return name, nil
}

// AddRows writes rows as a plain values-only sheet.
func (w *Writer) AddRows(base string, rows [][]string) (string, error) {
	name, err := w.newSheet(base)
	if err != nil {
		return "", err
	}
	for i, row := range rows {
		if err := w.setRow(name, i+1, cellValues(row)); err != nil {
			return "", err
		}
	}
	return name, nil
}

// AddTable writes an assembled table and fills every stale cell with
// fillColor (RRGGBB). It returns the sheet name.
func (w *Writer) AddTable(base string, table *temporal.Table, fillColor string) (string, error) {
	name, err := w.newSheet(base)
	if err != nil {
		return "", err
	}

	columns := table.Columns()
	header := make([]interface{}, len(columns))
	for j, c := range columns {
		header[j] = c
	}
	if err := w.setRow(name, 1, header); err != nil {
		return "", err
	}
	for i := range table.Rows {
		if err := w.setRow(name, i+2, cellValues(table.Values(i))); err != nil {
			return "", err
		}
	}

	if table.Flags.Count() > 0 {
		style, err := w.fillStyle(fillColor)
		if err != nil {
			return "", err
		}
		for j, c := range columns {
			for i := range table.Rows {
				if !table.Flags.Has(i, c) {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
				if err := w.file.SetCellStyle(name, cell, cell, style); err != nil {
					return "", apperrors.NewWriteError("failed to style cell", err).
						WithContext("sheet", name).WithContext("cell", cell)
				}
			}
		}
	}

	if len(columns) > 0 {
		if err := w.file.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			w.logger.Debug("Failed to freeze header row", slog.String("sheet", name), slog.String("error", err.Error()))
		}
	}

	w.logger.Info("Table sheet written",
		slog.String("sheet", name),
		slog.Int("rows", len(table.Rows)),
		slog.Int("stale_cells", table.Flags.Count()))
	return name, nil
}

// SeriesChart describes the chart placed next to a series table.
type SeriesChart struct {
	Type  ChartType
	Title string
}

// AddSeries writes the series table (x column followed by one column per
// snapshot, labelled MM/DD/YYYY) and anchors a chart at ChartAnchor. The
// value axis range is derived from the series summary.
func (w *Writer) AddSeries(base string, s *temporal.Series, chart SeriesChart) (string, error) {
	name, err := w.newSheet(base)
	if err != nil {
		return "", err
	}

	header := make([]interface{}, 0, len(s.DisplayLabels)+1)
	header = append(header, s.XColumn)
	for _, label := range s.DisplayLabels {
		header = append(header, label)
	}
	if err := w.setRow(name, 1, header); err != nil {
		return "", err
	}

	for i, x := range s.XValues {
		row := make([]interface{}, 0, len(s.Columns)+1)
		row = append(row, cellValue(x))
		for _, y := range s.YValues[i] {
			if y.Valid {
				row = append(row, y.Value)
			} else {
				row = append(row, nil)
			}
		}
		if err := w.setRow(name, i+2, row); err != nil {
			return "", err
		}
	}

	if s.Len() == 0 {
		return name, nil
	}

	def := &excelize.Chart{
		Type:      chart.Type.chartType(),
		Series:    chartSeries(name, s),
		Title:     []excelize.RichTextRun{{Text: chart.Title}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 720, Height: 400},
	}
	if summary, err := s.Summary(); err == nil {
		lo, hi := axisRange(summary.Min, summary.Max)
		def.YAxis.Minimum = &lo
		def.YAxis.Maximum = &hi
	}

	if err := w.file.AddChart(name, ChartAnchor, def); err != nil {
		return "", apperrors.NewWriteError("failed to add chart", err).WithContext("sheet", name)
	}

	w.logger.Info("Series sheet written",
		slog.String("sheet", name),
		slog.String("metric", s.MetricID),
		slog.Int("series", len(s.Columns)),
		slog.Int("rows", s.Len()),
		slog.String("x_column", s.XColumn))
	return name, nil
}

func chartSeries(sheet string, s *temporal.Series) []excelize.ChartSeries {
	ref := quoteSheet(sheet)
	last := s.Len() + 1
	out := make([]excelize.ChartSeries, len(s.Columns))
	for j := range s.Columns {
		col, _ := excelize.ColumnNumberToName(j + 2)
		out[j] = excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", ref, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", ref, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", ref, col, col, last),
		}
	}
	return out
}

// axisRange pads [lo, hi] by a tenth of its span. Non-negative data keeps a
// zero floor.
func axisRange(lo, hi float64) (float64, float64) {
	pad := (hi - lo) / 10
	if pad == 0 {
		pad = math.Abs(hi) / 10
	}
	if pad == 0 {
		pad = 1
	}
	floor, ceil := lo-pad, hi+pad
	if lo >= 0 && floor < 0 {
		floor = 0
	}
	return floor, ceil
}

func (w *Writer) fillStyle(color string) (int, error) {
	color = strings.TrimPrefix(strings.ToUpper(color), "#")
	if id, ok := w.styles[color]; ok {
		return id, nil
	}
	id, err := w.file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	})
	if err != nil {
		return 0, apperrors.NewWriteError("failed to create fill style", err).WithContext("color", color)
	}
	w.styles[color] = id
	return id, nil
}

func (w *Writer) setRow(sheet string, row int, values []interface{}) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := w.file.SetSheetRow(sheet, cell, &values); err != nil {
		return apperrors.NewWriteError("failed to write row", err).
			WithContext("sheet", sheet).WithContext("row", row)
	}
	return nil
}

// SaveAs writes the workbook to path. A workbook with no sheets cannot be
// saved.
func (w *Writer) SaveAs(path string) error {
	if len(w.sheets) == 0 {
		return apperrors.NewWriteError("workbook has no sheets", nil).WithContext("path", path)
	}
	w.file.SetActiveSheet(0)
	if err := w.file.SaveAs(path); err != nil {
		return apperrors.NewWriteError("failed to save workbook", err).WithContext("path", path)
	}
	w.logger.Info("Workbook saved", slog.String("path", path), slog.Int("sheets", len(w.sheets)))
	return nil
}

func cellValues(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = cellValue(v)
	}
	return out
}

// cellValue writes numeric text as a number so charts and formulas see it.
// Codes with leading zeros stay text; empty strings stay empty cells.
func cellValue(s string) interface{} {
	if s == "" {
		return nil
	}
	t := strings.TrimSpace(s)
	if len(t) > 1 && t[0] == '0' && t[1] != '.' {
		return s
	}
	if v, err := strconv.ParseFloat(t, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		return v
	}
	return s
}
