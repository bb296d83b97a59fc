package workbook

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "snapcli/internal/errors"
	"snapcli/internal/temporal"
)

// Sheet is one worksheet read as a header row plus data rows.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []temporal.Row
	// Raw holds every row as read, header included.
	Raw [][]string
}

// Reader reads snapshot workbooks.
type Reader struct {
	path   string
	file   *excelize.File
	logger *slog.Logger
}

// Open opens the workbook at path. Failures are PARSING errors.
func Open(path string, logger *slog.Logger) (*Reader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).
			WithContext("path", path)
	}
	return &Reader{path: path, file: f, logger: logger}, nil
}

// Close releases the workbook.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Path returns the workbook path.
func (r *Reader) Path() string {
	return r.path
}

// SheetNames returns the worksheet names in workbook order.
func (r *Reader) SheetNames() []string {
	return r.file.GetSheetList()
}

// ReadSheet reads name. The first row is the header; blank header cells are
// named by position and repeated names get a numeric suffix.
func (r *Reader) ReadSheet(name string) (*Sheet, error) {
	raw, err := r.file.GetRows(name)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).
			WithContext("path", r.path).
			WithContext("sheet", name)
	}

	sheet := &Sheet{Name: name, Raw: raw}
	if len(raw) == 0 {
		r.logger.Debug("Sheet is empty", slog.String("sheet", name))
		return sheet, nil
	}

	sheet.Columns = headerNames(raw[0], widest(raw))
	for _, values := range raw[1:] {
		sheet.Rows = append(sheet.Rows, temporal.RowFromStrings(sheet.Columns, values))
	}

	r.logger.Debug("Sheet read",
		slog.String("sheet", name),
		slog.Int("columns", len(sheet.Columns)),
		slog.Int("rows", len(sheet.Rows)))
	return sheet, nil
}

func widest(rows [][]string) int {
	n := 0
	for _, row := range rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

func headerNames(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("Column%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = temporal.RepeatHeader(name, n)
		}
		names[i] = name
	}
	return names
}

// FindSheet returns the first sheet equal to one of candidates under
// temporal.NormalizeName, else the first sheet whose normalised name
// contains contains.
func FindSheet(names, candidates []string, contains string) (string, bool) {
	for _, candidate := range candidates {
		for _, name := range names {
			if temporal.SameName(name, candidate) {
				return name, true
			}
		}
	}
	if needle := temporal.NormalizeName(contains); needle != "" {
		for _, name := range names {
			if strings.Contains(temporal.NormalizeName(name), needle) {
				return name, true
			}
		}
	}
	return "", false
}

// FindSheetByPrefix returns the first sheet whose normalised name starts with
// the normalised prefix.
func FindSheetByPrefix(names []string, prefix string) (string, bool) {
	needle := temporal.NormalizeName(prefix)
	if needle == "" {
		return "", false
	}
	for _, name := range names {
		if strings.HasPrefix(temporal.NormalizeName(name), needle) {
			return name, true
		}
	}
	return "", false
}
