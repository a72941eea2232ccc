// =============================================================================
// Telemetry XLSX Converter - XLSX Writer Module
// =============================================================================
//
// This module renders a typed telemetry table as a single-sheet workbook.
//
// WORKBOOK LAYOUT:
//
//   | Timestamp           | UnixTimestamp | Voltage | Temperature | IsActive | ...  |
//   |---------------------|---------------|---------|-------------|----------|------|
//   | 2024-01-15 10:30:00 | 1705314600    | 12.50   | 21.25       |   TRUE   | text |
//
//   Row 1      : header, bold white text on a solid blue fill, centered
//   Timestamp  : yyyy-mm-dd hh:mm:ss (only on cells holding a date-time)
//   UnixTime   : integer, no decimals
//   Voltage    : two decimals
//   Temperature: two decimals
//   IsActive   : literal TRUE/FALSE text, centered
//   Others     : plain text
//
// Column widths are min(longest value + padding, max width) per column.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/telemetry-xlsx/internal/config"
	"github.com/ginjaninja78/telemetry-xlsx/internal/types"
)

// =============================================================================
// FORMAT CONSTANTS
// =============================================================================

const (
	// TimestampFormat is the custom number format for date-time cells.
	TimestampFormat = "yyyy-mm-dd hh:mm:ss"

	// NumFmtInteger is the built-in "0" format.
	NumFmtInteger = 1

	// NumFmtTwoDecimals is the built-in "0.00" format.
	NumFmtTwoDecimals = 2

	// HeaderFill is the solid fill color of header cells.
	HeaderFill = "4472C4"

	// HeaderFontColor is the font color of header cells.
	HeaderFontColor = "FFFFFF"

	// timestampDisplay is the layout used when measuring timestamp width.
	timestampDisplay = "2006-01-02 15:04:05"

	boolTrue  = "TRUE"
	boolFalse = "FALSE"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for workbook generation.
type GenerateOptions struct {
	// SheetName is the title of the single worksheet.
	SheetName string

	// FormatBinding selects display rules by column name ("name") or by
	// column position ("positional").
	FormatBinding string

	// MaxColumnWidth caps auto-sized columns.
	MaxColumnWidth int

	// ColumnPadding is added to the longest value of each column.
	ColumnPadding int
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		SheetName:      config.DefaultSheetName,
		FormatBinding:  config.BindingName,
		MaxColumnWidth: 50,
		ColumnPadding:  2,
	}
}

// styles holds the style IDs registered on a workbook.
type styles struct {
	header    int
	timestamp int
	integer   int
	decimal   int
	centered  int
}

// cell is one rendered value plus its stringified form for width sizing.
type cell struct {
	value   interface{}
	display string
	truthy  bool
}

// =============================================================================
// WORKBOOK GENERATION
// =============================================================================

// Generate renders the table as an XLSX workbook.
//
// PARAMETERS:
//   - table: The typed telemetry table.
//   - options: The generation options.
//
// RETURNS:
//   - The encoded workbook.
//   - An error if any cell, style or the final encoding fails.
func Generate(table *types.Table, options GenerateOptions) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := options.SheetName
	if sheet == "" {
		sheet = config.DefaultSheetName
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	st, err := registerStyles(f)
	if err != nil {
		return nil, err
	}

	// Header row.
	for _, col := range table.Columns {
		ref, err := excelize.CoordinatesToCellName(col.Index+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, ref, col.Name); err != nil {
			return nil, fmt.Errorf("failed to write header %s: %w", ref, err)
		}
		if err := f.SetCellStyle(sheet, ref, ref, st.header); err != nil {
			return nil, fmt.Errorf("failed to style header %s: %w", ref, err)
		}
	}

	// Data rows.
	for i := range table.Records {
		record := &table.Records[i]
		row := i + 2

		for _, col := range table.Columns {
			kind := FormatKind(col, options.FormatBinding)
			c := render(record, col, kind)
			if c.value == nil {
				continue
			}

			styleID := 0
			switch kind {
			case types.KindTimestamp:
				if _, ok := c.value.(time.Time); ok {
					styleID = st.timestamp
				}
			case types.KindUnixTimestamp:
				styleID = st.integer
			case types.KindVoltage, types.KindTemperature:
				styleID = st.decimal
			case types.KindIsActive:
				styleID = st.centered
			}

			ref, err := excelize.CoordinatesToCellName(col.Index+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, ref, c.value); err != nil {
				return nil, fmt.Errorf("failed to write cell %s: %w", ref, err)
			}
			if styleID != 0 {
				if err := f.SetCellStyle(sheet, ref, ref, styleID); err != nil {
					return nil, fmt.Errorf("failed to style cell %s: %w", ref, err)
				}
			}
		}
	}

	for idx, width := range ColumnWidths(table, options) {
		name, err := excelize.ColumnNumberToName(idx + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return nil, fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}

	return buf.Bytes(), nil
}

// ColumnWidths returns the width of every column of table: the longest
// stringified header or data value plus padding, capped at the maximum.
func ColumnWidths(table *types.Table, options GenerateOptions) []float64 {
	longest := make([]int, len(table.Columns))

	for _, col := range table.Columns {
		longest[col.Index] = utf8.RuneCountInString(col.Name)
	}

	for i := range table.Records {
		record := &table.Records[i]
		for _, col := range table.Columns {
			c := render(record, col, FormatKind(col, options.FormatBinding))
			if n := utf8.RuneCountInString(c.display); n > longest[col.Index] {
				longest[col.Index] = n
			}
		}
	}

	widths := make([]float64, len(longest))
	for i, n := range longest {
		widths[i] = ColumnWidth(n, options.ColumnPadding, options.MaxColumnWidth)
	}
	return widths
}

// ColumnWidth returns min(longest+padding, max). A non-positive max
// disables the cap.
func ColumnWidth(longest, padding, max int) float64 {
	w := longest + padding
	if max > 0 && w > max {
		w = max
	}
	return float64(w)
}

// FormatKind returns the display rule applied to a column. With positional
// binding the rule follows the column's position, not its header.
func FormatKind(col types.Column, binding string) types.Kind {
	if binding == config.BindingPositional {
		return types.KindForPosition(col.Index + 1)
	}
	return col.Kind
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// registerStyles creates the styles used by Generate.
func registerStyles(f *excelize.File) (*styles, error) {
	timestampFmt := TimestampFormat
	st := &styles{}

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.header, &excelize.Style{
			Font: &excelize.Font{Bold: true, Color: HeaderFontColor},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{HeaderFill}},
			Alignment: &excelize.Alignment{
				Horizontal: "center",
				Vertical:   "center",
			},
		}},
		{&st.timestamp, &excelize.Style{CustomNumFmt: &timestampFmt}},
		{&st.integer, &excelize.Style{NumFmt: NumFmtInteger}},
		{&st.decimal, &excelize.Style{NumFmt: NumFmtTwoDecimals}},
		{&st.centered, &excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center"}}},
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
		*d.dst = id
	}

	return st, nil
}

// render returns the cell written for col when the display rule is kind.
// The IsActive rule replaces any value with TRUE/FALSE by truthiness. A null
// counts as true there, so an empty or unrecognized flag reads TRUE.
func render(record *types.Record, col types.Column, kind types.Kind) cell {
	c := valueOf(record, col)
	if kind == types.KindIsActive {
		if c.value == nil {
			return boolCell(true)
		}
		return boolCell(c.truthy)
	}
	return c
}

// valueOf returns the typed value of col in record. The value is chosen by
// the column's own kind, whatever display rule is later applied.
func valueOf(record *types.Record, col types.Column) cell {
	switch col.Kind {
	case types.KindTimestamp:
		if record.Timestamp.Valid {
			t := record.Timestamp.Time
			return cell{value: t, display: t.Format(timestampDisplay), truthy: true}
		}
	case types.KindUnixTimestamp:
		if record.UnixTimestamp.Valid {
			n := record.UnixTimestamp.Int64
			return cell{value: n, display: strconv.FormatInt(n, 10), truthy: n != 0}
		}
	case types.KindVoltage:
		if record.Voltage.Valid {
			return floatCell(record.Voltage.Float64)
		}
	case types.KindTemperature:
		if record.Temperature.Valid {
			return floatCell(record.Temperature.Float64)
		}
	case types.KindIsActive:
		if record.IsActive.Valid {
			return boolCell(record.IsActive.Bool)
		}
	default:
		if col.Index < len(record.Text) && record.Text[col.Index] != "" {
			s := record.Text[col.Index]
			return cell{value: s, display: s, truthy: true}
		}
	}

	return cell{}
}

func floatCell(v float64) cell {
	return cell{value: v, display: floatText(v), truthy: v != 0}
}

// floatText formats v the way a width is measured for floats: shortest
// round-trip digits, scientific notation outside 1e-4 <= |v| < 1e16, and a
// trailing ".0" on integral values.
func floatText(v float64) string {
	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && v != 0 && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func boolCell(b bool) cell {
	if b {
		return cell{value: boolTrue, display: boolTrue, truthy: true}
	}
	return cell{value: boolFalse, display: boolFalse}
}
