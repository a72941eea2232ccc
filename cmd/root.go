// =============================================================================
// Telemetry XLSX Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Run without a
// subcommand, the root command performs a conversion run, the same as
// 'telemetry-xlsx convert'.
//
// COBRA CLI STRUCTURE:
//   rootCmd (telemetry-xlsx)
//   ├── convertCmd (telemetry-xlsx convert)
//   ├── inspectCmd (telemetry-xlsx inspect PATH)
//   └── versionCmd (telemetry-xlsx version)
//
// EXIT STATUS:
//   0 - run completed (per-file failures do not change this)
//   1 - command error (bad config file, run lock held, bad flags)
//   2 - configuration error: the scan directory does not exist
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/telemetry-xlsx/internal/scanner"
)

// Exit statuses.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitConfigError = 2
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to an optional YAML configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// logFormat overrides the configured log format when set.
var logFormat string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "telemetry-xlsx",
	Short: "Telemetry XLSX Converter - Turn telemetry CSV exports into formatted workbooks",
	Long: `Telemetry XLSX Converter scans a directory for telemetry CSV files and
converts each new or changed file into a formatted XLSX workbook next to it.

The recognized columns Timestamp, UnixTimestamp, Voltage, Temperature and
IsActive are typed and formatted; every other column is copied as text.

The scan directory comes from CSV_OUT_DIR (default /data/csv).

Example Usage:
  telemetry-xlsx                        # Convert new or changed files
  telemetry-xlsx convert --force        # Reconvert everything
  telemetry-xlsx convert --dry-run      # Show what would be converted
  telemetry-xlsx inspect out.xlsx       # Summarize a workbook`,

	SilenceErrors: true,
	SilenceUsage:  true,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd)
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI and exits with the status matching the outcome.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErr *scanner.ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	return ExitError
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to a YAML configuration file (optional)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Log format: text, json or auto (overrides configuration)",
	)

	addConvertFlags(rootCmd)
}
