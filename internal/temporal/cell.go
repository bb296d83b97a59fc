package temporal

import "strings"

// Cell is a raw cell value as read from a snapshot. The zero Cell is null.
type Cell struct {
	Text  string
	Valid bool
}

// Null is the absent cell.
var Null = Cell{}

// Value wraps a present string cell.
func Value(s string) Cell {
	return Cell{Text: s, Valid: true}
}

// Blank reports whether the cell is null, empty or whitespace only.
func (c Cell) Blank() bool {
	return !c.Valid || strings.TrimSpace(c.Text) == ""
}

// String returns the cell text, or "" for null.
func (c Cell) String() string {
	if !c.Valid {
		return ""
	}
	return c.Text
}

// Row maps column names to cells. A missing column reads as Null.
type Row map[string]Cell

// Get returns the cell stored under column, or Null.
func (r Row) Get(column string) Cell {
	if r == nil {
		return Null
	}
	return r[column]
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RowFromStrings builds a row from positional values. Empty strings become
// Null, matching how spreadsheet readers report empty cells.
func RowFromStrings(columns []string, values []string) Row {
	row := make(Row, len(columns))
	for i, col := range columns {
		if i < len(values) && values[i] != "" {
			row[col] = Value(values[i])
			continue
		}
		row[col] = Null
	}
	return row
}
