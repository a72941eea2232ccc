// =============================================================================
// Telemetry XLSX Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Telemetry XLSX Converter CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   telemetry-xlsx            - Convert new or changed telemetry files
//   telemetry-xlsx convert    - Same, with --force / --dry-run / --file
//   telemetry-xlsx inspect    - Summarize a converted workbook
//   telemetry-xlsx version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Conversion pipeline, scanner, configuration, logging
//   - pkg/           : File management utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/telemetry-xlsx/cmd"
)

func main() {
	cmd.Execute()
}
