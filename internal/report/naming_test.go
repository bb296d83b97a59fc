package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutputName(t *testing.T) {
	utc := time.UTC
	source := time.Date(2025, time.January, 10, 8, 0, 0, 0, utc)
	run := time.Date(2025, time.January, 20, 9, 5, 0, 0, utc)

	tests := []struct {
		name    string
		pattern string
		loc     *time.Location
		want    string
	}{
		{"default pattern", "{group}_Src_{src_ts}__Grph_{run_ts}.xlsx", utc, "Cono1_Src_100125_08_00__Grph_01202025_0905.xlsx"},
		{"extension appended", "{group}_{run_ts}", utc, "Cono1_01202025_0905.xlsx"},
		{"other timezone", "{run_ts}.xlsx", time.FixedZone("EST", -5*3600), "01202025_0405.xlsx"},
		{"literal text kept", "report.XLSX", utc, "report.XLSX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputName(tt.pattern, "Cono1", source, run, tt.loc))
		})
	}
}

func TestSeriesTitle(t *testing.T) {
	assert.Equal(t, "LW_Summary_LastWk", seriesTitle("", "LW_Summary", "LastWk", true))
	assert.Equal(t, "LW_Summary_LastWk", seriesTitle("", "LW_Summary", "LastWk", false))
	assert.Equal(t, "Weekly_LastWk", seriesTitle("Weekly", "LW_Summary", "LastWk", true))
	assert.Equal(t, "Weekly", seriesTitle("Weekly", "LW_Summary", "LastWk", false))
}
