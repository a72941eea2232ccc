// =============================================================================
// Telemetry XLSX Converter - XLSX Reader
// =============================================================================
//
// This module reads converted workbooks back. It is used by the inspect
// command to summarize an output file and by tests to check what the
// writer produced.
//
// Cell values are returned as displayed by Excel (number formats applied),
// so a timestamp reads back as "2024-01-15 10:30:00" and a voltage of 12.5
// as "12.50".
//
// =============================================================================

package xlsxparser

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet is the content of one worksheet.
type Sheet struct {
	// Name is the worksheet title.
	Name string

	// Headers is the first row.
	Headers []string

	// Rows holds every row after the header, padded to len(Headers).
	Rows [][]string

	// Widths holds the column width of each header column.
	Widths []float64
}

// Read opens an XLSX file and returns one worksheet.
//
// PARAMETERS:
//   - path: The path to the workbook.
//   - sheetName: The worksheet to read. Empty selects the first sheet.
//
// RETURNS:
//   - A pointer to the Sheet.
//   - An error if the file cannot be opened or the sheet does not exist.
func Read(path, sheetName string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}

	idx, err := f.GetSheetIndex(sheetName)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheetName)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	sheet := &Sheet{Name: sheetName}
	if len(rows) == 0 {
		return sheet, nil
	}

	sheet.Headers = rows[0]
	width := len(sheet.Headers)

	for _, row := range rows[1:] {
		padded := make([]string, width)
		copy(padded, row)
		sheet.Rows = append(sheet.Rows, padded)
	}

	sheet.Widths = make([]float64, width)
	for i := range sheet.Headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		w, err := f.GetColWidth(sheetName, col)
		if err != nil {
			return nil, fmt.Errorf("failed to read width of column %s: %w", col, err)
		}
		sheet.Widths[i] = w
	}

	return sheet, nil
}

// Column returns the values of the named header column, or nil.
func (s *Sheet) Column(header string) []string {
	for i, h := range s.Headers {
		if h != header {
			continue
		}
		values := make([]string, len(s.Rows))
		for r, row := range s.Rows {
			values[r] = row[i]
		}
		return values
	}
	return nil
}
