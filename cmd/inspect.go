// =============================================================================
// Telemetry XLSX Converter - Inspect Command
// =============================================================================
//
// This file defines the 'inspect' command, which prints a short summary of
// a converted workbook: sheet name, headers, row count and column widths.
//
// COMMAND USAGE:
//   telemetry-xlsx inspect PATH [--sheet NAME]
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/telemetry-xlsx/internal/types"
	"github.com/ginjaninja78/telemetry-xlsx/internal/xlsxparser"
)

// sheetName selects the worksheet to inspect. Empty means the first sheet.
var sheetName string

// inspectCmd represents the 'inspect' command.
var inspectCmd = &cobra.Command{
	Use:   "inspect PATH",
	Short: "Summarize a converted workbook",
	Long: `Print the sheet name, headers, data row count and column widths of an
XLSX workbook. Recognized telemetry columns are marked.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sheet, err := xlsxparser.Read(args[0], sheetName)
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", args[0], err)
		}
		printSheet(cmd.OutOrStdout(), args[0], sheet)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(
		&sheetName,
		"sheet",
		"",
		"Worksheet to inspect (default is the first sheet)",
	)
}

func printSheet(w io.Writer, path string, sheet *xlsxparser.Sheet) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)

	bold.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "Sheet:   %s\n", sheet.Name)
	fmt.Fprintf(w, "Rows:    %d\n", len(sheet.Rows))
	fmt.Fprintf(w, "Columns: %d\n", len(sheet.Headers))

	for i, h := range sheet.Headers {
		width := 0.0
		if i < len(sheet.Widths) {
			width = sheet.Widths[i]
		}

		kind := types.KindForHeader(h)
		if kind == types.KindText {
			fmt.Fprintf(w, "  %2d. %-20s width %5.1f\n", i+1, h, width)
			continue
		}
		fmt.Fprintf(w, "  %2d. %-20s width %5.1f  ", i+1, h, width)
		cyan.Fprintf(w, "[%s]\n", kind)
	}
}
