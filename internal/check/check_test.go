package check

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Check_CompleteSet(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "data-download-1.zip"), map[string]string{
		"sunset_51111111111_o.jpg": "0123456789",
		"ducks_52222222222_o.png":  "01234",
	})
	writeZip(t, filepath.Join(dir, "data-download-2.zip"), map[string]string{
		"albums.json": `{"albums": [
			{"id": "72157700000000001", "title": "Vacation", "photos": ["51111111111", "52222222222"]}
		]}`,
		"photo_51111111111.json": `{"id": "51111111111"}`,
		"photo_52222222222.json": `{"id": "52222222222"}`,
	})

	checker := NewChecker(log.NewLogger())
	report, err := checker.Check(CheckInput{ArchiveGlobs: []string{filepath.Join(dir, "*.zip")}})
	require.NoError(t, err)

	assert.True(t, report.Complete())
	assert.Len(t, report.Archives, 2)
	assert.Empty(t, report.WrongPaths)
	assert.Equal(t, 2, report.ItemCount)
	assert.Equal(t, 2, report.InfoCount)
	assert.Equal(t, int64(15), report.TotalSize)
	assert.True(t, report.HasAlbums)
	require.Len(t, report.Albums, 1)
	assert.Equal(t, AlbumCoverage{Title: "Vacation", Expected: 2, Present: 2}, report.Albums[0])
}

func Test_Check_IncompleteSet(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "data-download-1.zip"), map[string]string{
		"sunset_51111111111_o.jpg": "media",
		"orphan_53333333333_o.jpg": "media",
	})
	writeZip(t, filepath.Join(dir, "data-download-2.zip"), map[string]string{
		"photo_51111111111.json": `{"id": "51111111111"}`,
		"photo_54444444444.json": `{"id": "54444444444"}`,
	})

	checker := NewChecker(log.NewLogger())
	report, err := checker.Check(CheckInput{ArchiveGlobs: []string{filepath.Join(dir, "*.zip")}})
	require.NoError(t, err)

	assert.False(t, report.Complete())
	assert.Equal(t, []string{"53333333333"}, report.ItemsWithoutInfo)
	assert.Equal(t, []string{"54444444444"}, report.InfosWithoutItem)
	assert.False(t, report.HasAlbums)
}

func Test_Check_WrongPathsOnly(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.zip")
	require.NoError(t, os.WriteFile(broken, []byte("not a zip"), 0644))

	checker := NewChecker(log.NewLogger())
	report, err := checker.Check(CheckInput{ArchiveGlobs: []string{broken}})
	require.ErrorIs(t, err, ErrNoArchives)
	assert.Equal(t, []string{broken}, report.WrongPaths)
}

func Test_Check_NoInput(t *testing.T) {
	checker := NewChecker(log.NewLogger())
	_, err := checker.Check(CheckInput{})
	require.Error(t, err)
}

func Test_Report_Complete(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   bool
	}{
		{
			name:   "empty report is complete",
			report: Report{},
			want:   true,
		},
		{
			name:   "wrong paths make it incomplete",
			report: Report{WrongPaths: []string{"x"}},
			want:   false,
		},
		{
			name:   "missing metadata makes it incomplete",
			report: Report{ItemsWithoutInfo: []string{"1"}},
			want:   false,
		},
		{
			name:   "missing media makes it incomplete",
			report: Report{InfosWithoutItem: []string{"1"}},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.Complete())
		})
	}
}

func writeZip(t *testing.T, path string, entries map[string]string) string {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}
