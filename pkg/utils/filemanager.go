// =============================================================================
// Telemetry XLSX Converter - File Manager Utility
// =============================================================================
//
// This module provides the file handling used by the scanner and converter:
//   - Discovery of telemetry files in the scan directory
//   - Output path derivation
//   - Staleness checks (is the output missing or older than its input?)
//   - Atomic writes (temp file + rename)
//   - The optional run lock
//
// OUTPUT STRATEGY:
//   - Each output is a sibling of its input: same stem, output extension
//   - Outputs are replaced only by a complete new file; a failed write
//     leaves the previous output in place
//   - Input files are never moved, modified or deleted
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// Reasons returned by NeedsConversion.
const (
	ReasonMissing  = "missing"
	ReasonStale    = "stale"
	ReasonUpToDate = "up-to-date"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// ScanDir is the directory scanned for telemetry files.
	ScanDir string

	// Pattern is the glob matched against file names in ScanDir.
	Pattern string

	// OutputExt is the extension of produced workbooks, including the dot.
	OutputExt string
}

// NewFileManager creates a new FileManager.
func NewFileManager(scanDir, pattern, outputExt string) *FileManager {
	return &FileManager{
		ScanDir:   scanDir,
		Pattern:   pattern,
		OutputExt: outputExt,
	}
}

// =============================================================================
// DIRECTORY CHECKS
// =============================================================================

// ScanDirExists reports whether ScanDir exists and is a directory.
func (fm *FileManager) ScanDirExists() bool {
	info, err := os.Stat(fm.ScanDir)
	return err == nil && info.IsDir()
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the files in ScanDir whose names match Pattern.
//
// RETURNS:
//   - The matching file paths, sorted by name. Subdirectories are not
//     descended into and directories matching the pattern are skipped.
//   - An error if the pattern is malformed.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	pattern := fm.Pattern
	if pattern == "" {
		pattern = "*.csv"
	}

	files, err := filepath.Glob(filepath.Join(fm.ScanDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", fm.ScanDir, err)
	}

	var result []string
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			result = append(result, file)
		}
	}

	sort.Strings(result)
	return result, nil
}

// =============================================================================
// OUTPUT PATHS AND STALENESS
// =============================================================================

// OutputPathFor returns the output path for an input file.
func (fm *FileManager) OutputPathFor(inputPath string) string {
	return ReplaceExt(inputPath, fm.OutputExt)
}

// ReplaceExt swaps the final extension of path for ext. A path without an
// extension gets ext appended.
//
// EXAMPLE:
//   ReplaceExt("/data/telemetry_a.csv", ".xlsx")       -> "/data/telemetry_a.xlsx"
//   ReplaceExt("/data/telemetry_a.csv.csv", ".xlsx")   -> "/data/telemetry_a.csv.xlsx"
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// NeedsConversion decides whether input must be converted.
//
// RETURNS:
//   - true with ReasonMissing when output does not exist.
//   - true with ReasonStale when input was modified strictly after output.
//   - false with ReasonUpToDate otherwise.
//   - An error if either file cannot be inspected.
func (fm *FileManager) NeedsConversion(inputPath, outputPath string) (bool, string, error) {
	inTime, err := GetFileModTime(inputPath)
	if err != nil {
		return false, "", fmt.Errorf("failed to stat input %s: %w", inputPath, err)
	}

	outTime, err := GetFileModTime(outputPath)
	if os.IsNotExist(err) {
		return true, ReasonMissing, nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to stat output %s: %w", outputPath, err)
	}

	if inTime.After(outTime) {
		return true, ReasonStale, nil
	}
	return false, ReasonUpToDate, nil
}

// =============================================================================
// ATOMIC WRITE
// =============================================================================

// AtomicWrite writes data to path through a temporary file in the same
// directory followed by a rename. Readers see either the old file or the
// complete new one. On any failure the temporary file is removed and the
// existing file at path is left as it was.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}

// =============================================================================
// RUN LOCK
// =============================================================================

// RunLock is an advisory lock that keeps two scans from overlapping.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// NewRunLock creates a lock backed by the file at path. The file is created
// on first use.
func NewRunLock(path string) *RunLock {
	return &RunLock{
		flock: flock.New(path),
		path:  path,
	}
}

// TryLock attempts to take the lock without blocking.
// Returns false if another process holds it.
func (l *RunLock) TryLock() (bool, error) {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (l *RunLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// GetFileModTime returns the modification time of a file.
func GetFileModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
