package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverFilesBasic(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "part-b.csv"), "1,0\n")
	mustWrite(t, filepath.Join(dir, "nested", "part-a.CSV"), "1,0\n")
	mustWrite(t, filepath.Join(dir, "ignore.txt"), "")

	files, err := DiscoverFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "nested", "part-a.CSV"),
		filepath.Join(dir, "part-b.csv"),
	}, files)
}

func TestDiscoverFilesSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	mustWrite(t, path, "1,0\n")

	files, err := DiscoverFiles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestDiscoverFilesMissingRoot(t *testing.T) {
	_, err := DiscoverFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func mustWrite(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}
