package report

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// SourceTimestampLayout renders the source workbook time as DDMMYY_HH_MM.
	SourceTimestampLayout = "020106_15_04"
	// RunTimestampLayout renders the run time as MMDDYYYY_HHMM.
	RunTimestampLayout = "01022006_1504"
)

// OutputName expands the filename pattern tokens {group}, {src_ts} and
// {run_ts}. Both times are rendered in loc. A missing .xlsx extension is
// appended.
func OutputName(pattern, group string, source, run time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	name := strings.NewReplacer(
		"{group}", group,
		"{src_ts}", source.In(loc).Format(SourceTimestampLayout),
		"{run_ts}", run.In(loc).Format(RunTimestampLayout),
	).Replace(pattern)
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		name += ".xlsx"
	}
	return name
}

// seriesTitle names one chart: the configured title (or the sheet name),
// suffixed with the metric when the request was a wildcard or had no title.
func seriesTitle(configured, sheet, metric string, wildcard bool) string {
	if configured == "" {
		return sheet + "_" + metric
	}
	if wildcard {
		return configured + "_" + metric
	}
	return configured
}
