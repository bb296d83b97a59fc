package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestFindWorkbooks(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		extensions []string
		expected   []string
	}{
		{
			name:     "xlsx only by default",
			files:    []string{"b.xlsx", "a.XLSX", "c.xls", "data.csv"},
			expected: []string{"a.XLSX", "b.xlsx"},
		},
		{
			name:       "configured extensions",
			files:      []string{"b.xlsx", "c.xls", "data.csv"},
			extensions: []string{"xls", ".xlsx"},
			expected:   []string{"b.xlsx", "c.xls"},
		},
		{
			name:     "lock files skipped",
			files:    []string{"~$report.xlsx", "report.xlsx"},
			expected: []string{"report.xlsx"},
		},
		{
			name:     "empty directory",
			files:    []string{},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(dir, f), time.Now())
			}
			require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.xlsx"), 0755))

			found, err := NewDiscovery("", tt.extensions...).FindWorkbooks(dir)
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFindWorkbooks_MissingDirectory(t *testing.T) {
	_, err := NewDiscovery(t.TempDir()).FindWorkbooks("missing")
	assert.Error(t, err)
}

func TestDiscoverGroups(t *testing.T) {
	base := t.TempDir()
	for _, dir := range []string{"Report_by_cono/Cono2", "Report_by_cono/Cono1", "Report_by_cono/Other"} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, dir), 0755))
	}
	touch(t, filepath.Join(base, "Report_by_cono", "Cono3.xlsx"), time.Now())

	groups, err := NewDiscovery(base).DiscoverGroups([]string{
		"Report_by_cono/Cono*",
		filepath.Join(base, "Report_by_cono", "Cono1"),
	})
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, "Cono1", groups[0].Name)
	assert.Equal(t, filepath.Join(base, "Report_by_cono", "Cono1"), groups[0].Dir)
	assert.Equal(t, "Cono2", groups[1].Name)

	_, err = NewDiscovery(base).DiscoverGroups([]string{"[bad"})
	assert.Error(t, err)
}

func TestDiscoveryAndSelection(t *testing.T) {
	dir := t.TempDir()
	t1 := time.Date(2024, 1, 5, 9, 30, 0, 0, time.Local)

	touch(t, filepath.Join(dir, "cono1_01052024_09_30.xlsx"), t1)
	touch(t, filepath.Join(dir, "cono1_01062024_10_00.xlsx"), t1)
	touch(t, filepath.Join(dir, "cono1.xlsx"), t1.Add(-72*time.Hour))
	touch(t, filepath.Join(dir, "cono1_Src_060124_10_00__Grph_01072024_1000.xlsx"), time.Now())

	found, err := NewDiscovery("").FindWorkbooks(dir)
	require.NoError(t, err)
	require.Len(t, found, 4)

	latest, ok := NewSelector([]string{"_grph"}, time.Local, nil).Pick(found)
	require.True(t, ok)
	assert.Equal(t, "cono1_01062024_10_00.xlsx", latest.Name)
	assert.Equal(t, RecencyFilename, latest.Source)
}

func TestManager_EnsureDirectory(t *testing.T) {
	base := t.TempDir()
	m := NewManager(base)

	require.NoError(t, m.EnsureDirectory("out/reports"))
	assert.True(t, m.FileExists("out/reports"))
	assert.Equal(t, filepath.Join(base, "out", "reports"), m.ResolvePath("out/reports"))

	abs := filepath.Join(t.TempDir(), "elsewhere")
	assert.Equal(t, abs, m.ResolvePath(abs))
	require.NoError(t, m.EnsureDirectory(abs))
	assert.True(t, m.FileExists(abs))
}
