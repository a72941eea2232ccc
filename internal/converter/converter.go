// =============================================================================
// Telemetry XLSX Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It runs the pipeline for a
// single file, from CSV parsing to the finished workbook on disk.
//
// CONVERSION PIPELINE:
//   1. Parse the input CSV file
//   2. Coerce the recognized columns into typed values
//   3. Report header diagnostics as warnings
//   4. Generate the XLSX workbook
//   5. Write it next to the input, replacing any previous output atomically
//
// The input file is never modified. A failure at any step leaves the
// previous output (if any) exactly as it was.
//
// =============================================================================

package converter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ginjaninja78/telemetry-xlsx/internal/config"
	"github.com/ginjaninja78/telemetry-xlsx/internal/csvparser"
	"github.com/ginjaninja78/telemetry-xlsx/internal/types"
	"github.com/ginjaninja78/telemetry-xlsx/internal/validation"
	"github.com/ginjaninja78/telemetry-xlsx/internal/xlsxwriter"
	"github.com/ginjaninja78/telemetry-xlsx/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the generated workbook.
	// This is empty if processing failed.
	OutputFile string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	// This is nil if processing was successful.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsProcessed is the number of data rows written.
	RowsProcessed int

	// ColumnsWritten is the number of columns in the workbook.
	ColumnsWritten int

	// RecognizedColumns is how many of the five recognized columns were found.
	RecognizedColumns int

	// CoercionMisses is the number of non-empty values that could not be
	// coerced and were written as empty cells.
	CoercionMisses int

	// Warnings is the number of header diagnostics reported.
	Warnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter converts telemetry CSV files to XLSX workbooks.
// A Converter holds no per-file state and may be reused.
type Converter struct {
	cfg     *config.Config
	options xlsxwriter.GenerateOptions
	logger  *slog.Logger
}

// New creates a new Converter.
//
// PARAMETERS:
//   - cfg: The application configuration.
//   - logger: The logger for conversion and diagnostic messages.
//
// RETURNS:
//   - A new Converter instance.
func New(cfg *config.Config, logger *slog.Logger) *Converter {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	options := xlsxwriter.DefaultGenerateOptions()
	options.SheetName = cfg.SheetName
	options.FormatBinding = cfg.FormatBinding

	return &Converter{
		cfg:     cfg,
		options: options,
		logger:  logger,
	}
}

// OutputPath returns where the workbook for csvPath is written: the same
// directory and stem with outputExt in place of the final extension.
func OutputPath(csvPath, outputExt string) string {
	return utils.ReplaceExt(csvPath, outputExt)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Convert executes the conversion pipeline for one file.
//
// PARAMETERS:
//   - csvPath: The path to the input CSV file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Convert(csvPath string) Result {
	startTime := time.Now()
	result := Result{
		FilePath: csvPath,
		Success:  false,
	}
	outputPath := OutputPath(csvPath, c.cfg.OutputExt)
	log := c.logger.With("file", csvPath)

	// =========================================================================
	// STEP 1: PARSE INPUT CSV
	// =========================================================================

	csvData, err := csvparser.Parse(csvPath, c.cfg.CSV)
	if err != nil {
		result.Error = fmt.Errorf("failed to parse CSV: %w", err)
		return result
	}

	log.Debug("Parsed CSV", "rows", csvData.RowCount, "columns", csvData.ColumnCount)

	// =========================================================================
	// STEP 2: COERCE RECOGNIZED COLUMNS
	// =========================================================================

	coercer := NewCoercer()
	table := coercer.Coerce(csvData)

	result.Stats.RowsProcessed = len(table.Records)
	result.Stats.ColumnsWritten = len(table.Columns)
	result.Stats.RecognizedColumns = table.RecognizedCount()
	result.Stats.CoercionMisses = coercer.TotalMisses()

	for _, kind := range types.RecognizedKinds {
		n := coercer.Misses(kind)
		if n == 0 {
			continue
		}
		col, _ := table.Column(kind)
		log.Warn("Values could not be coerced and were left empty",
			"column", col.Name,
			"position", col.Index+1,
			"count", n,
			"first_line", coercer.FirstMiss(kind))
	}

	// =========================================================================
	// STEP 3: HEADER DIAGNOSTICS
	// =========================================================================

	diagnostics := validation.ValidateHeaders(table.Columns, c.options.FormatBinding)
	result.Stats.Warnings = len(diagnostics)

	for _, d := range diagnostics {
		log.Warn("Header diagnostic", "column", d.Field, "rule", d.Rule, "detail", d.Message)
	}

	// =========================================================================
	// STEP 4: GENERATE WORKBOOK
	// =========================================================================

	payload, err := xlsxwriter.Generate(table, c.options)
	if err != nil {
		result.Error = fmt.Errorf("failed to generate workbook: %w", err)
		return result
	}

	// =========================================================================
	// STEP 5: WRITE OUTPUT FILE
	// =========================================================================

	if err := utils.AtomicWrite(outputPath, payload); err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}

	result.OutputFile = outputPath
	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	c.logger.Info("Converted",
		"source", csvPath,
		"destination", outputPath,
		"rows", result.Stats.RowsProcessed,
		"duration", result.Stats.ProcessingTime)

	return result
}
