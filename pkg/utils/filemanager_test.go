package utils

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
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	touch(t, filepath.Join(dir, "telemetry_b.csv"), now)
	touch(t, filepath.Join(dir, "telemetry_a.csv"), now)
	touch(t, filepath.Join(dir, "other.csv"), now)
	touch(t, filepath.Join(dir, "telemetry_a.xlsx"), now)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "telemetry_dir.csv"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	touch(t, filepath.Join(dir, "nested", "telemetry_c.csv"), now)

	fm := NewFileManager(dir, "telemetry_*.csv", ".xlsx")
	files, err := fm.DiscoverInputFiles()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "telemetry_a.csv"),
		filepath.Join(dir, "telemetry_b.csv"),
	}, files)
}

func TestDiscoverInputFilesEmpty(t *testing.T) {
	fm := NewFileManager(t.TempDir(), "telemetry_*.csv", ".xlsx")
	files, err := fm.DiscoverInputFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverInputFilesBadPattern(t *testing.T) {
	fm := NewFileManager(t.TempDir(), "[", ".xlsx")
	_, err := fm.DiscoverInputFiles()
	assert.Error(t, err)
}

func TestScanDirExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, NewFileManager(dir, "", "").ScanDirExists())
	assert.False(t, NewFileManager(filepath.Join(dir, "missing"), "", "").ScanDirExists())

	file := filepath.Join(dir, "file")
	touch(t, file, time.Now())
	assert.False(t, NewFileManager(file, "", "").ScanDirExists())
}

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/data/csv/telemetry_a.csv", "/data/csv/telemetry_a.xlsx"},
		{"/data/csv/telemetry.csv.csv", "/data/csv/telemetry.csv.xlsx"},
		{"/data/a.csv/telemetry_b.csv", "/data/a.csv/telemetry_b.xlsx"},
		{"/data/csv/telemetry", "/data/csv/telemetry.xlsx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReplaceExt(tt.in, ".xlsx"), tt.in)
	}

	fm := NewFileManager("/data/csv", "telemetry_*.csv", ".xlsx")
	assert.Equal(t, "/data/csv/telemetry_x.xlsx", fm.OutputPathFor("/data/csv/telemetry_x.csv"))
}

func TestNeedsConversion(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "telemetry_a.csv")
	out := filepath.Join(dir, "telemetry_a.xlsx")
	fm := NewFileManager(dir, "telemetry_*.csv", ".xlsx")
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	touch(t, in, base)
	need, reason, err := fm.NeedsConversion(in, out)
	require.NoError(t, err)
	assert.True(t, need)
	assert.Equal(t, ReasonMissing, reason)

	touch(t, out, base)
	need, reason, err = fm.NeedsConversion(in, out)
	require.NoError(t, err)
	assert.False(t, need, "equal mtimes are up to date")
	assert.Equal(t, ReasonUpToDate, reason)

	require.NoError(t, os.Chtimes(in, base.Add(time.Minute), base.Add(time.Minute)))
	need, reason, err = fm.NeedsConversion(in, out)
	require.NoError(t, err)
	assert.True(t, need)
	assert.Equal(t, ReasonStale, reason)

	require.NoError(t, os.Chtimes(out, base.Add(time.Hour), base.Add(time.Hour)))
	need, _, err = fm.NeedsConversion(in, out)
	require.NoError(t, err)
	assert.False(t, need)

	_, _, err = fm.NeedsConversion(filepath.Join(dir, "gone.csv"), out)
	assert.Error(t, err)
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.xlsx")

	require.NoError(t, AtomicWrite(target, []byte("first")))
	require.NoError(t, AtomicWrite(target, []byte("second")))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestAtomicWriteFailureKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.xlsx")
	require.NoError(t, os.Mkdir(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), []byte("k"), 0644))

	err := AtomicWrite(target, []byte("data"))
	require.Error(t, err)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	leftovers, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRunLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.lock")

	first := NewRunLock(path)
	second := NewRunLock(path)
	assert.Equal(t, path, first.Path())

	ok, err := first.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.TryLock()
	require.NoError(t, err)
	assert.False(t, ok, "lock is held")

	require.NoError(t, first.Unlock())

	ok, err = second.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Unlock())
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	mtime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	touch(t, path, mtime)

	assert.True(t, FileExists(path))
	assert.False(t, FileExists(filepath.Join(dir, "nope")))

	size, err := GetFileSize(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	got, err := GetFileModTime(path)
	require.NoError(t, err)
	assert.True(t, mtime.Equal(got))
}
