// =============================================================================
// Telemetry XLSX Converter - Directory Scanner
// =============================================================================
//
// This module drives a conversion run over the scan directory. It finds the
// telemetry files, decides which of them need (re)conversion and hands each
// one to the converter in turn.
//
// RUN SEQUENCE:
//   1. Check that the scan directory exists (fatal if not, nothing is touched)
//   2. Take the optional run lock
//   3. Discover candidate files (sorted by name)
//   4. For each: convert if the output is missing or older than the input
//   5. Log the summary line
//
// Per-file failures are logged and counted; they never abort the run.
//
// =============================================================================

package scanner

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/telemetry-xlsx/internal/config"
	"github.com/ginjaninja78/telemetry-xlsx/internal/converter"
	"github.com/ginjaninja78/telemetry-xlsx/pkg/utils"
)

var (
	// ErrInputNotFound is reported for a requested file that does not exist.
	ErrInputNotFound = errors.New("input file not found")

	// ErrScanDirNotFound is returned when the scan directory is missing or
	// is not a directory.
	ErrScanDirNotFound = errors.New("scan directory not found")

	// ErrLocked is returned when another run holds the run lock.
	ErrLocked = errors.New("another conversion run is in progress")
)

// ConfigError marks a run that could not start because of its configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Converter converts a single file.
type Converter interface {
	Convert(csvPath string) converter.Result
}

// Options controls a single run.
type Options struct {
	// Force converts every candidate regardless of staleness.
	Force bool

	// DryRun reports what would be converted without writing anything.
	DryRun bool

	// File converts exactly this path, skipping discovery and the
	// staleness check.
	File string
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary describes the outcome of a run.
type Summary struct {
	RunID     string
	ScanDir   string
	StartTime time.Time
	EndTime   time.Time

	// Candidates is the number of files matching the pattern.
	Candidates int

	// Converted is the number of files converted (or, in a dry run, that
	// would have been).
	Converted int

	// Skipped is the number of up-to-date files left alone.
	Skipped int

	// Failed is the number of files whose conversion failed.
	Failed int

	ProcessedFiles []ProcessedFileInfo
	FailedFiles    []FailedFileInfo
}

// ProcessedFileInfo contains information about a converted file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	Reason      string
	Rows        int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// =============================================================================
// SCANNER
// =============================================================================

// Scanner runs conversions over a directory.
type Scanner struct {
	cfg    *config.Config
	fm     *utils.FileManager
	conv   Converter
	logger *slog.Logger
}

// New creates a Scanner.
func New(cfg *config.Config, fm *utils.FileManager, conv Converter, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		cfg:    cfg,
		fm:     fm,
		conv:   conv,
		logger: logger,
	}
}

// Run performs one scan.
//
// RETURNS:
//   - The run summary. It is non-nil whenever the run started.
//   - A *ConfigError wrapping ErrScanDirNotFound if the scan directory is
//     missing, ErrLocked if the run lock is held, or a discovery error.
//     Per-file failures are reported in the summary, not here.
func (s *Scanner) Run(opts Options) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.New().String(),
		ScanDir:   s.fm.ScanDir,
		StartTime: time.Now(),
	}
	log := s.logger.With("run_id", summary.RunID)

	if !s.fm.ScanDirExists() {
		return nil, &ConfigError{Err: fmt.Errorf("%w: %s", ErrScanDirNotFound, s.fm.ScanDir)}
	}

	if s.cfg.LockFile != "" && !opts.DryRun {
		lock := utils.NewRunLock(s.cfg.LockFile)
		acquired, err := lock.TryLock()
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, lock.Path())
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				log.Warn("Failed to release run lock", "error", err)
			}
		}()
	}

	log.Info("Scanning directory", "dir", s.fm.ScanDir, "pattern", s.fm.Pattern)

	var candidates []string
	if opts.File != "" {
		candidates = []string{opts.File}
	} else {
		files, err := s.fm.DiscoverInputFiles()
		if err != nil {
			return nil, err
		}
		candidates = files
	}
	summary.Candidates = len(candidates)

	if len(candidates) == 0 {
		log.Warn("No CSV files found", "dir", s.fm.ScanDir)
	}

	for _, input := range candidates {
		s.process(log, input, opts, summary)
	}

	summary.EndTime = time.Now()

	msg := fmt.Sprintf("Conversion complete: %d file(s) processed", summary.Converted)
	if opts.DryRun {
		msg = fmt.Sprintf("Dry run complete: %d file(s) would be converted", summary.Converted)
	}
	log.Info(msg,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", summary.Duration())

	return summary, nil
}

// process handles one candidate file.
func (s *Scanner) process(log *slog.Logger, input string, opts Options, summary *Summary) {
	output := s.fm.OutputPathFor(input)
	var reason string

	switch {
	case opts.File != "":
		if !utils.FileExists(input) {
			s.fail(log, input, fmt.Errorf("%w: %s", ErrInputNotFound, input), summary)
			return
		}
		reason = "requested"
	case opts.Force:
		reason = "forced"
	default:
		need, why, err := s.fm.NeedsConversion(input, output)
		if err != nil {
			s.fail(log, input, err, summary)
			return
		}
		if !need {
			log.Debug("Output is up to date", "source", input, "destination", output)
			summary.Skipped++
			return
		}
		reason = why
	}

	if opts.DryRun {
		log.Info("Would convert", "source", input, "destination", output, "reason", reason)
		summary.Converted++
		summary.ProcessedFiles = append(summary.ProcessedFiles, ProcessedFileInfo{
			InputFile:  input,
			OutputFile: output,
			Reason:     reason,
		})
		return
	}

	if size, err := utils.GetFileSize(input); err == nil {
		log.Debug("Converting", "source", input, "bytes", size, "reason", reason)
	}

	result := s.conv.Convert(input)
	if !result.Success {
		s.fail(log, input, result.Error, summary)
		return
	}

	summary.Converted++
	summary.ProcessedFiles = append(summary.ProcessedFiles, ProcessedFileInfo{
		InputFile:   input,
		OutputFile:  result.OutputFile,
		Reason:      reason,
		Rows:        result.Stats.RowsProcessed,
		ProcessTime: result.Stats.ProcessingTime,
	})
}

func (s *Scanner) fail(log *slog.Logger, input string, err error, summary *Summary) {
	if err == nil {
		err = errors.New("conversion failed")
	}
	log.Error("Conversion failed", "file", input, "error", err)

	summary.Failed++
	summary.FailedFiles = append(summary.FailedFiles, FailedFileInfo{
		InputFile:    input,
		ErrorMessage: err.Error(),
	})
}
