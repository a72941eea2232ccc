// =============================================================================
// Telemetry XLSX Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which runs one scan of the
// telemetry directory.
//
// COMMAND USAGE:
//   telemetry-xlsx convert [flags]
//
// FLAGS:
//   --dry-run : Report what would be converted without writing anything
//   --force   : Convert every file, even when its output is up to date
//   --file    : Convert only this file
//
// PROCESSING PIPELINE:
//   1. Load configuration (defaults, YAML file, environment)
//   2. Build the logger
//   3. Run the scanner
//   4. Print the summary block
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/telemetry-xlsx/internal/config"
	"github.com/ginjaninja78/telemetry-xlsx/internal/converter"
	"github.com/ginjaninja78/telemetry-xlsx/internal/logging"
	"github.com/ginjaninja78/telemetry-xlsx/internal/scanner"
	"github.com/ginjaninja78/telemetry-xlsx/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun reports what would be converted without writing output files.
var dryRun bool

// force converts every candidate regardless of staleness.
var force bool

// filePath is the path to a single file to convert.
var filePath string

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

// convertCmd represents the 'convert' command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert new or changed telemetry CSV files to XLSX",
	Long: `The convert command scans the telemetry directory for files matching the
configured pattern (default telemetry_*.csv) and converts each one whose
workbook is missing or older than the CSV.

Files are processed one at a time in name order. A file that fails to
convert is logged and skipped; its previous workbook, if any, is left
untouched and the run continues with the next file.`,

	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(convertCmd)
	addConvertFlags(convertCmd)
}

// addConvertFlags registers the run flags on cmd. The root command and the
// convert command share them.
func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Report what would be converted without writing output files",
	)

	cmd.Flags().BoolVar(
		&force,
		"force",
		false,
		"Convert every file, even when its workbook is up to date",
	)

	cmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Convert only this file",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runConvert loads configuration and performs one conversion run.
func runConvert(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --log-format: %w", err)
		}
	}

	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())

	fm := utils.NewFileManager(cfg.ScanDir, cfg.FilePattern, cfg.OutputExt)
	conv := converter.New(cfg, logger)
	sc := scanner.New(cfg, fm, conv, logger)

	summary, err := sc.Run(scanner.Options{
		Force:  force,
		DryRun: dryRun,
		File:   filePath,
	})
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), summary, dryRun)
	return nil
}

// =============================================================================
// SUMMARY OUTPUT
// =============================================================================

// printSummary writes the human-readable run summary. Colors are dropped
// automatically when stdout is not a terminal.
func printSummary(w io.Writer, summary *scanner.Summary, dryRun bool) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	title := "=== Conversion Complete ==="
	if dryRun {
		title = "=== Dry Run ==="
	}

	fmt.Fprintln(w)
	bold.Fprintln(w, title)

	for _, pf := range summary.ProcessedFiles {
		verb := "Converted"
		if dryRun {
			verb = "Would convert"
		}
		green.Fprintf(w, "  ✓ %s ", verb)
		fmt.Fprintf(w, "%s -> %s (%s)\n", filepath.Base(pf.InputFile), filepath.Base(pf.OutputFile), pf.Reason)
	}
	for _, ff := range summary.FailedFiles {
		red.Fprint(w, "  ✗ ")
		fmt.Fprintf(w, "%s: %s\n", filepath.Base(ff.InputFile), ff.ErrorMessage)
	}

	fmt.Fprintf(w, "Scan directory:  %s\n", summary.ScanDir)
	fmt.Fprintf(w, "Candidates:      %d\n", summary.Candidates)
	green.Fprintf(w, "Processed:       %d\n", summary.Converted)
	if summary.Skipped > 0 {
		yellow.Fprintf(w, "Up to date:      %d\n", summary.Skipped)
	} else {
		fmt.Fprintf(w, "Up to date:      %d\n", summary.Skipped)
	}
	if summary.Failed > 0 {
		red.Fprintf(w, "Failed:          %d\n", summary.Failed)
	} else {
		fmt.Fprintf(w, "Failed:          %d\n", summary.Failed)
	}
	fmt.Fprintf(w, "Time elapsed:    %s\n", summary.Duration())
}
