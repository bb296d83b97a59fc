package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStale(t *testing.T) {
	tests := []struct {
		name     string
		previous Cell
		latest   Cell
		want     bool
	}{
		{"equal values", Value("10"), Value("10"), true},
		{"equal after trimming", Value(" 10"), Value("10 "), true},
		{"changed value", Value("10"), Value("11"), false},
		{"numeric text differs", Value("10"), Value("10.0"), false},
		{"previous null", Null, Value("5"), false},
		{"latest null", Value("5"), Null, false},
		{"both blank", Value(" "), Value(""), false},
		{"both null", Null, Null, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStale(tt.previous, tt.latest))
		})
	}
}

func TestDetectStale(t *testing.T) {
	columns := []string{"Oper", "01012024_X", "01082024_X", "01152024_X", "01012024_Solo"}
	layout := assemble(columns, nil, KeepFirst)
	require.Len(t, layout.Clusters, 2)

	rows := []Row{
		RowFromStrings(columns, []string{"A", "8", "10", "10", "1"}),
		RowFromStrings(columns, []string{"B", "10", "10", "11", "1"}),
		RowFromStrings(columns, []string{"C", "10", "", "10", "1"}),
		RowFromStrings(columns, []string{"D", "10", "10", "", "1"}),
	}

	flags := DetectStale(rows, layout.Clusters, nil)

	assert.True(t, flags.Has(0, "01152024_X"))
	assert.False(t, flags.Has(1, "01152024_X"))
	assert.False(t, flags.Has(2, "01152024_X"), "only the last two snapshots are compared")
	assert.False(t, flags.Has(3, "01152024_X"))
	assert.False(t, flags.Has(0, "01082024_X"), "earlier members are never flagged")
	for i := range rows {
		assert.False(t, flags.Has(i, "01012024_Solo"), "single member clusters are never flagged")
	}
	assert.Equal(t, 1, flags.Count())
}
