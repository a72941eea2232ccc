// =============================================================================
// Telemetry XLSX Converter - CSV Parser Module
// =============================================================================
//
// This module reads telemetry CSV exports into memory. Files are small and
// always loaded whole; there is no streaming mode.
//
// FEATURES:
//   - Configurable delimiter (comma, pipe, tab, semicolon, any single char)
//   - Lazy quotes and variable field counts, so one malformed row does not
//     reject the file
//   - Header cleaning (trimmed, blank headers become Column_N)
//   - UTF-8 byte order mark stripped from the first header
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/telemetry-xlsx/internal/config"
)

// ErrEmptyFile is returned when the file contains no header row.
var ErrEmptyFile = errors.New("CSV file is empty")

const utf8BOM = "\ufeff"

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents the parsed CSV file.
type CSVData struct {
	// Headers contains the cleaned column headers.
	Headers []string

	// Rows contains the data rows in file order. Every row has exactly
	// len(Headers) cells.
	Rows [][]string

	// LineNumbers holds the 1-based line in the source file on which each
	// row starts.
	LineNumbers []int

	// SourceFile is the path to the source CSV file.
	SourceFile string

	// RowCount is the number of data rows (excluding the header).
	RowCount int

	// ColumnCount is the number of columns.
	ColumnCount int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed data.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV parsing settings.
//
// RETURNS:
//   - A pointer to the CSVData struct containing the parsed data.
//   - An error if the file cannot be opened or read, or has no header row.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	csvReader := csv.NewReader(bufio.NewReader(file))
	configureReader(csvReader, settings)

	var allRows [][]string
	var allLines []int
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := csvReader.FieldPos(0)
		allRows = append(allRows, record)
		allLines = append(allLines, line)
	}

	if len(allRows) == 0 {
		return nil, ErrEmptyFile
	}

	headers := cleanHeaders(allRows[0])
	rows, lines := extractDataRows(allRows[1:], allLines[1:], len(headers))

	return &CSVData{
		Headers:     headers,
		Rows:        rows,
		LineNumbers: lines,
		SourceFile:  filePath,
		RowCount:    len(rows),
		ColumnCount: len(headers),
	}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = Delimiter(settings.Delimiter)

	// Allow variable number of fields per row; rows are normalized later.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// Delimiter resolves a configured delimiter name to a rune.
func Delimiter(name string) rune {
	switch name {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	default:
		if r := []rune(name); len(r) > 0 {
			return r[0]
		}
		return ','
	}
}

// cleanHeaders trims headers and names blank ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, utf8BOM)
		}
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// extractDataRows trims cells, drops blank lines and pads or truncates each
// row to width cells. A line of bare delimiters is kept as an all-empty row.
func extractDataRows(records [][]string, recordLines []int, width int) ([][]string, []int) {
	rows := make([][]string, 0, len(records))
	lines := make([]int, 0, len(records))

	for i, record := range records {
		if isBlankLine(record) {
			continue
		}

		row := make([]string, width)
		for col := 0; col < width && col < len(record); col++ {
			row[col] = strings.TrimSpace(record[col])
		}

		rows = append(rows, row)
		lines = append(lines, recordLines[i])
	}

	return rows, lines
}

// isBlankLine reports whether record came from a line with no delimiters
// and nothing but whitespace.
func isBlankLine(record []string) bool {
	return len(record) == 0 || (len(record) == 1 && strings.TrimSpace(record[0]) == "")
}
