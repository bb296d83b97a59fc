package consolidate

import (
	"strings"

	"snapcli/internal/temporal"
)

// Frame is a table with an explicit column order.
type Frame struct {
	Columns []string
	Rows    []temporal.Row
}

// Values returns the rows as positional strings in column order.
func (f Frame) Values() [][]string {
	out := make([][]string, len(f.Rows))
	for i, row := range f.Rows {
		values := make([]string, len(f.Columns))
		for j, c := range f.Columns {
			values[j] = row.Get(c).String()
		}
		out[i] = values
	}
	return out
}

// Merge outer-joins right onto left on the key columns. Left rows keep their
// order; right rows whose key never appears in left follow in their own
// order. When a key occurs several times, the n-th left occurrence pairs with
// the n-th right occurrence and surplus rows on either side are kept with
// blanks. Rows are never deduplicated. Right columns already present in left
// are ignored, so the earlier snapshot wins.
func Merge(left, right Frame, keys []string) Frame {
	if len(left.Columns) == 0 {
		return right
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	present := make(map[string]bool, len(left.Columns))
	for _, c := range left.Columns {
		present[c] = true
	}

	out := Frame{Columns: append([]string(nil), left.Columns...)}
	var added []string
	for _, c := range right.Columns {
		if isKey[c] || present[c] {
			continue
		}
		added = append(added, c)
		out.Columns = append(out.Columns, c)
	}

	pending := make(map[string][]temporal.Row)
	var order []string
	for _, row := range right.Rows {
		k := keyOf(row, keys)
		if _, ok := pending[k]; !ok {
			order = append(order, k)
		}
		pending[k] = append(pending[k], row)
	}

	for _, row := range left.Rows {
		merged := row.Clone()
		k := keyOf(row, keys)
		if queue := pending[k]; len(queue) > 0 {
			match := queue[0]
			pending[k] = queue[1:]
			for _, c := range added {
				merged[c] = match.Get(c)
			}
		}
		out.Rows = append(out.Rows, merged)
	}

	for _, k := range order {
		for _, row := range pending[k] {
			merged := make(temporal.Row, len(out.Columns))
			for _, c := range keys {
				merged[c] = row.Get(c)
			}
			for _, c := range added {
				merged[c] = row.Get(c)
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}

func keyOf(row temporal.Row, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strings.TrimSpace(row.Get(k).String())
	}
	return strings.Join(parts, "\x1f")
}
