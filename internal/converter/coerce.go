// =============================================================================
// Telemetry XLSX Converter - Coercion Engine
// =============================================================================
//
// This module turns the raw text of a parsed CSV into a typed table. Each of
// the five recognized columns has a coercer; every other column is kept as
// text. Coercion is non-strict: a token that cannot be converted becomes a
// null value, never an error.
//
// COERCION RULES:
//   - Timestamp      : date-time in one of timestampLayouts, normalized to UTC
//   - UnixTimestamp  : 64-bit integer (integral decimals such as "17.0" accepted)
//   - Voltage        : finite float
//   - Temperature    : finite float
//   - IsActive       : TRUE/FALSE, true/false (any case), 1/0
//
// =============================================================================

package converter

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/telemetry-xlsx/internal/csvparser"
	"github.com/ginjaninja78/telemetry-xlsx/internal/types"
)

// timestampLayouts are tried in order. Layouts with a zone keep the parsed
// instant; the rest are read as UTC wall clock.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// =============================================================================
// COERCER
// =============================================================================

// Coercer builds typed tables from parsed CSV data.
type Coercer struct {
	// misses counts non-empty tokens that coerced to null, by kind.
	misses map[types.Kind]int

	// firstMiss is the source line of the first miss, by kind.
	firstMiss map[types.Kind]int
}

// NewCoercer creates a Coercer with zeroed miss counters.
func NewCoercer() *Coercer {
	return &Coercer{
		misses:    make(map[types.Kind]int),
		firstMiss: make(map[types.Kind]int),
	}
}

// Coerce converts every row of data into a typed Record.
//
// PARAMETERS:
//   - data: The parsed CSV data.
//
// RETURNS:
//   - The typed table. Rows keep their original order.
func (c *Coercer) Coerce(data *csvparser.CSVData) *types.Table {
	table := &types.Table{
		SourceFile: data.SourceFile,
		Columns:    types.BuildColumns(data.Headers),
		Records:    make([]types.Record, len(data.Rows)),
	}

	for i, row := range data.Rows {
		record := types.Record{Text: row}
		if i < len(data.LineNumbers) {
			record.RowNumber = data.LineNumbers[i]
		}

		for _, col := range table.Columns {
			if col.Kind == types.KindText || col.Index >= len(row) {
				continue
			}
			c.apply(&record, col.Kind, row[col.Index])
		}

		table.Records[i] = record
	}

	return table
}

// apply coerces one token into the record field for kind.
func (c *Coercer) apply(record *types.Record, kind types.Kind, value string) {
	var ok bool

	switch kind {
	case types.KindTimestamp:
		record.Timestamp = ParseTimestamp(value)
		ok = record.Timestamp.Valid

	case types.KindUnixTimestamp:
		record.UnixTimestamp = ParseInt(value)
		ok = record.UnixTimestamp.Valid

	case types.KindVoltage:
		record.Voltage = ParseFloat(value)
		ok = record.Voltage.Valid

	case types.KindTemperature:
		record.Temperature = ParseFloat(value)
		ok = record.Temperature.Valid

	case types.KindIsActive:
		record.IsActive = ParseBool(value)
		ok = record.IsActive.Valid

	default:
		return
	}

	if !ok && strings.TrimSpace(value) != "" {
		if c.misses[kind] == 0 {
			c.firstMiss[kind] = record.RowNumber
		}
		c.misses[kind]++
	}
}

// Misses returns the number of non-empty tokens of kind that became null.
func (c *Coercer) Misses(kind types.Kind) int {
	return c.misses[kind]
}

// FirstMiss returns the source line of the first token of kind that became
// null, or 0 if there was none.
func (c *Coercer) FirstMiss(kind types.Kind) int {
	return c.firstMiss[kind]
}

// TotalMisses returns the number of non-empty tokens that became null.
func (c *Coercer) TotalMisses() int {
	total := 0
	for _, n := range c.misses {
		total += n
	}
	return total
}

// =============================================================================
// VALUE PARSERS
// =============================================================================

// ParseTimestamp parses a date-time token. Unparsable input yields null.
func ParseTimestamp(value string) sql.NullTime {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullTime{}
	}

	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return sql.NullTime{Time: t.UTC(), Valid: true}
		}
	}

	return sql.NullTime{}
}

// ParseInt parses a base-10 integer token. Decimal text with no fractional
// part is accepted; anything else yields null.
func ParseInt(value string) sql.NullInt64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullInt64{}
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return sql.NullInt64{Int64: n, Valid: true}
	}

	f, ok := parseFinite(value)
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: int64(f), Valid: true}
}

// ParseFloat parses a decimal token. NaN and infinities yield null.
func ParseFloat(value string) sql.NullFloat64 {
	f, ok := parseFinite(strings.TrimSpace(value))
	if !ok {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// ParseBool maps boolean tokens. Anything unrecognized yields null.
func ParseBool(value string) sql.NullBool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1":
		return sql.NullBool{Bool: true, Valid: true}
	case "false", "0":
		return sql.NullBool{Bool: false, Valid: true}
	default:
		return sql.NullBool{}
	}
}

func parseFinite(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
