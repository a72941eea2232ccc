package scanner

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/telemetry-xlsx/internal/config"
	"github.com/ginjaninja78/telemetry-xlsx/internal/converter"
	"github.com/ginjaninja78/telemetry-xlsx/internal/logging"
	"github.com/ginjaninja78/telemetry-xlsx/internal/xlsxparser"
	"github.com/ginjaninja78/telemetry-xlsx/pkg/utils"
)

const telemetryCSV = `Timestamp,UnixTimestamp,Voltage,Temperature,IsActive
2024-01-15 10:30:00,1705314600,12.5,21.25,TRUE
2024-01-15 10:31:00,1705314660,12.4,21.30,FALSE
`

type fixture struct {
	dir    string
	cfg    *config.Config
	logs   *bytes.Buffer
	conv   *recordingConverter
	runner *Scanner
}

// recordingConverter wraps the real converter and records every call.
type recordingConverter struct {
	inner *converter.Converter
	calls []string
}

func (r *recordingConverter) Convert(path string) converter.Result {
	r.calls = append(r.calls, path)
	return r.inner.Convert(path)
}

func newFixture(t *testing.T, dir string) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.ScanDir = dir

	logs := &bytes.Buffer{}
	logger := logging.New(config.LoggingConfig{Level: "debug", Format: "text"}, logs)

	conv := &recordingConverter{inner: converter.New(cfg, logger)}
	fm := utils.NewFileManager(cfg.ScanDir, cfg.FilePattern, cfg.OutputExt)

	return &fixture{
		dir:    dir,
		cfg:    cfg,
		logs:   logs,
		conv:   conv,
		runner: New(cfg, fm, conv, logger),
	}
}

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

func TestRunConvertsNewFile(t *testing.T) {
	fx := newFixture(t, t.TempDir())
	writeFile(t, filepath.Join(fx.dir, "telemetry_001.csv"), telemetryCSV, time.Now())

	summary, err := fx.runner.Run(Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Candidates)
	assert.Equal(t, 1, summary.Converted)
	assert.Zero(t, summary.Failed)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, fx.dir, summary.ScanDir)
	require.Len(t, summary.ProcessedFiles, 1)
	assert.Equal(t, utils.ReasonMissing, summary.ProcessedFiles[0].Reason)
	assert.Equal(t, 2, summary.ProcessedFiles[0].Rows)

	assert.Contains(t, fx.logs.String(), "Conversion complete: 1 file(s) processed")
	assert.Contains(t, fx.logs.String(), "run_id="+summary.RunID)

	sheet, err := xlsxparser.Read(filepath.Join(fx.dir, "telemetry_001.xlsx"), config.DefaultSheetName)
	require.NoError(t, err)
	assert.Equal(t, []string{"Timestamp", "UnixTimestamp", "Voltage", "Temperature", "IsActive"}, sheet.Headers)
	assert.Equal(t, []string{"TRUE", "FALSE"}, sheet.Column("IsActive"))
}

func TestRunSkipsUpToDateOutput(t *testing.T) {
	fx := newFixture(t, t.TempDir())
	past := time.Now().Add(-time.Hour)

	writeFile(t, filepath.Join(fx.dir, "telemetry_001.csv"), telemetryCSV, past)
	writeFile(t, filepath.Join(fx.dir, "telemetry_001.xlsx"), "existing", past.Add(time.Minute))

	summary, err := fx.runner.Run(Options{})
	require.NoError(t, err)

	assert.Zero(t, summary.Converted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, fx.conv.calls)
	assert.Contains(t, fx.logs.String(), "Conversion complete: 0 file(s) processed")

	data, err := os.ReadFile(filepath.Join(fx.dir, "telemetry_001.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))
}

func TestRunReconvertsStaleOutput(t *testing.T) {
	fx := newFixture(t, t.TempDir())
	past := time.Now().Add(-time.Hour)

	writeFile(t, filepath.Join(fx.dir, "telemetry_001.xlsx"), "old", past)
	writeFile(t, filepath.Join(fx.dir, "telemetry_001.csv"), telemetryCSV, past.Add(time.Minute))

	summary, err := fx.runner.Run(Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Converted)
	assert.Equal(t, utils.ReasonStale, summary.ProcessedFiles[0].Reason)

	_, err = xlsxparser.Read(filepath.Join(fx.dir, "telemetry_001.xlsx"), "")
	require.NoError(t, err)
}

func TestRunMissingScanDir(t *testing.T) {
	parent := t.TempDir()
	fx := newFixture(t, filepath.Join(parent, "missing"))
	fx.cfg.LockFile = filepath.Join(parent, "run.lock")

	summary, err := fx.runner.Run(Options{})
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, errors.Is(err, ErrScanDirNotFound))

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	assert.Empty(t, listDir(t, parent), "no file operations are performed")
	assert.Empty(t, fx.conv.calls)
}

func TestRunScanDirIsFile(t *testing.T) {
	parent := t.TempDir()
	path := filepath.Join(parent, "not_a_dir")
	writeFile(t, path, "x", time.Now())

	_, err := newFixture(t, path).runner.Run(Options{})
	assert.True(t, errors.Is(err, ErrScanDirNotFound))
}

func TestRunNoFiles(t *testing.T) {
	fx := newFixture(t, t.TempDir())
	writeFile(t, filepath.Join(fx.dir, "other.csv"), telemetryCSV, time.Now())

	summary, err := fx.runner.Run(Options{})
	require.NoError(t, err)

	assert.Zero(t, summary.Candidates)
	assert.Zero(t, summary.Converted)
	assert.Contains(t, fx.logs.String(), "No CSV files found")
	assert.Contains(t, fx.logs.String(), "Conversion complete: 0 file(s) processed")
}

func TestRunContinuesAfterFailure(t *testing.T) {
	fx := newFixture(t, t.TempDir())
	now := time.Now()

	writeFile(t, filepath.Join(fx.dir, "telemetry_001.csv"), "", now)
	writeFile(t, filepath.Join(fx.dir, "telemetry_002.csv"), telemetryCSV, now)

	summary, err := fx.runner.Run(Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(fx.dir, "telemetry_001.csv"),
		filepath.Join(fx.dir, "telemetry_002.csv"),
	}, fx.conv.calls, "candidates are processed in name order")

	assert.Equal(t, 1, summary.Converted)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.FailedFiles, 1)
	assert.Equal(t, filepath.Join(fx.dir, "telemetry_001.csv"), summary.FailedFiles[0].InputFile)
	assert.Contains(t, summary.FailedFiles[0].ErrorMessage, "empty")

	assert.Contains(t, fx.logs.String(), "Conversion failed")
	assert.False(t, utils.FileExists(filepath.Join(fx.dir, "telemetry_001.xlsx")))
	assert.True(t, utils.FileExists(filepath.Join(fx.dir, "telemetry_002.xlsx")))
}

func TestRunForce(t *testing.T) {
	fx := newFixture(t, t.TempDir())
	past := time.Now().Add(-time.Hour)

	writeFile(t, filepath.Join(fx.dir, "telemetry_001.csv"), telemetryCSV, past)
	writeFile(t, filepath.Join(fx.dir, "telemetry_001.xlsx"), "existing", past.Add(time.Minute))

	summary, err := fx.runner.Run(Options{Force: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Converted)
	assert.Equal(t, "forced", summary.ProcessedFiles[0].Reason)

	_, err = xlsxparser.Read(filepath.Join(fx.dir, "telemetry_001.xlsx"), "")
	require.NoError(t, err, "the placeholder was replaced by a real workbook")
}

func TestRunDryRun(t *testing.T) {
	fx := newFixture(t, t.TempDir())
	writeFile(t, filepath.Join(fx.dir, "telemetry_001.csv"), telemetryCSV, time.Now())

	summary, err := fx.runner.Run(Options{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Converted)
	assert.Empty(t, fx.conv.calls)
	assert.Equal(t, []string{"telemetry_001.csv"}, listDir(t, fx.dir))
	assert.Contains(t, fx.logs.String(), "Would convert")
	assert.Contains(t, fx.logs.String(), "Dry run complete: 1 file(s) would be converted")
	assert.NotContains(t, fx.logs.String(), "Conversion complete")
}

func TestRunSingleFile(t *testing.T) {
	fx := newFixture(t, t.TempDir())
	past := time.Now().Add(-time.Hour)

	target := filepath.Join(fx.dir, "custom_name.csv")
	writeFile(t, target, telemetryCSV, past)
	writeFile(t, filepath.Join(fx.dir, "custom_name.xlsx"), "existing", past.Add(time.Minute))
	writeFile(t, filepath.Join(fx.dir, "telemetry_001.csv"), telemetryCSV, past)

	summary, err := fx.runner.Run(Options{File: target})
	require.NoError(t, err)

	assert.Equal(t, []string{target}, fx.conv.calls)
	assert.Equal(t, 1, summary.Candidates)
	assert.Equal(t, "requested", summary.ProcessedFiles[0].Reason)
	assert.False(t, utils.FileExists(filepath.Join(fx.dir, "telemetry_001.xlsx")))
}

func TestRunSingleFileMissing(t *testing.T) {
	fx := newFixture(t, t.TempDir())
	target := filepath.Join(fx.dir, "telemetry_404.csv")

	for _, dry := range []bool{false, true} {
		summary, err := fx.runner.Run(Options{File: target, DryRun: dry})
		require.NoError(t, err)

		assert.Empty(t, fx.conv.calls)
		assert.Equal(t, 0, summary.Converted)
		assert.Equal(t, 1, summary.Failed)
		assert.Contains(t, summary.FailedFiles[0].ErrorMessage, ErrInputNotFound.Error())
	}
	assert.Empty(t, listDir(t, fx.dir))
}

func TestRunLocked(t *testing.T) {
	fx := newFixture(t, t.TempDir())
	fx.cfg.LockFile = filepath.Join(t.TempDir(), "telemetry.lock")
	writeFile(t, filepath.Join(fx.dir, "telemetry_001.csv"), telemetryCSV, time.Now())

	held := utils.NewRunLock(fx.cfg.LockFile)
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = fx.runner.Run(Options{})
	assert.True(t, errors.Is(err, ErrLocked))
	assert.Empty(t, fx.conv.calls)

	require.NoError(t, held.Unlock())

	summary, err := fx.runner.Run(Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Converted)
}
