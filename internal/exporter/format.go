package exporter

import (
	"strconv"

	"snapcli/internal/temporal"
)

// formatNumber renders a series value for CSV output. Values that did not
// parse are written as empty fields.
func formatNumber(n temporal.Number) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}
