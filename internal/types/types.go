// =============================================================================
// Telemetry XLSX Converter - Shared Types
// =============================================================================
//
// This package contains the typed in-memory table shared by the converter,
// validation and xlsxwriter packages. Types live here to avoid import cycles.
//
// A telemetry file has five recognized columns. Each gets an explicit
// nullable field on Record; every other column is carried as raw text.
//
// =============================================================================

package types

import (
	"database/sql"
)

// =============================================================================
// COLUMN KINDS
// =============================================================================

// Kind identifies how a column is typed and formatted.
type Kind int

const (
	// KindText is any unrecognized column; values pass through as text.
	KindText Kind = iota
	KindTimestamp
	KindUnixTimestamp
	KindVoltage
	KindTemperature
	KindIsActive
)

// Recognized header names.
const (
	HeaderTimestamp     = "Timestamp"
	HeaderUnixTimestamp = "UnixTimestamp"
	HeaderVoltage       = "Voltage"
	HeaderTemperature   = "Temperature"
	HeaderIsActive      = "IsActive"
)

var kindByHeader = map[string]Kind{
	HeaderTimestamp:     KindTimestamp,
	HeaderUnixTimestamp: KindUnixTimestamp,
	HeaderVoltage:       KindVoltage,
	HeaderTemperature:   KindTemperature,
	HeaderIsActive:      KindIsActive,
}

// RecognizedKinds lists the typed kinds in canonical column order.
var RecognizedKinds = []Kind{
	KindTimestamp,
	KindUnixTimestamp,
	KindVoltage,
	KindTemperature,
	KindIsActive,
}

// KindForHeader returns the kind for a header name. Matching is exact.
func KindForHeader(name string) Kind {
	if k, ok := kindByHeader[name]; ok {
		return k
	}
	return KindText
}

// KindForPosition returns the kind whose canonical position is pos (1-based).
// Positions outside 1..5 are KindText.
func KindForPosition(pos int) Kind {
	if pos < 1 || pos > len(RecognizedKinds) {
		return KindText
	}
	return RecognizedKinds[pos-1]
}

// CanonicalPosition returns the 1-based position the kind occupies in a
// canonical telemetry export, or 0 for KindText.
func CanonicalPosition(k Kind) int {
	for i, rk := range RecognizedKinds {
		if rk == k {
			return i + 1
		}
	}
	return 0
}

// String returns the recognized header name, or "Text".
func (k Kind) String() string {
	switch k {
	case KindTimestamp:
		return HeaderTimestamp
	case KindUnixTimestamp:
		return HeaderUnixTimestamp
	case KindVoltage:
		return HeaderVoltage
	case KindTemperature:
		return HeaderTemperature
	case KindIsActive:
		return HeaderIsActive
	default:
		return "Text"
	}
}

// =============================================================================
// TABLE TYPES
// =============================================================================

// Column describes one column of the input file.
type Column struct {
	// Name is the header text as written in the output.
	Name string

	// Index is the 0-based column position.
	Index int

	// Kind is the coercion kind chosen from the header name.
	Kind Kind
}

// Record is a single typed data row.
type Record struct {
	Timestamp     sql.NullTime
	UnixTimestamp sql.NullInt64
	Voltage       sql.NullFloat64
	Temperature   sql.NullFloat64
	IsActive      sql.NullBool

	// Text holds the trimmed source text of every column, indexed like
	// Table.Columns. Unrecognized columns are written from here.
	Text []string

	// RowNumber is the 1-based line of the row in the source file.
	RowNumber int
}

// Table is a fully materialized, typed telemetry file.
type Table struct {
	SourceFile string
	Columns    []Column
	Records    []Record
}

// Column returns the typed column of the given kind, if present.
func (t *Table) Column(k Kind) (Column, bool) {
	if k == KindText {
		return Column{}, false
	}
	for _, c := range t.Columns {
		if c.Kind == k {
			return c, true
		}
	}
	return Column{}, false
}

// RecognizedCount returns how many of the five recognized columns are present.
func (t *Table) RecognizedCount() int {
	n := 0
	for _, c := range t.Columns {
		if c.Kind != KindText {
			n++
		}
	}
	return n
}

// BuildColumns assigns kinds to headers. Only the first occurrence of a
// recognized name is typed; repeats are treated as text.
func BuildColumns(headers []string) []Column {
	columns := make([]Column, len(headers))
	seen := make(map[Kind]bool)

	for i, h := range headers {
		k := KindForHeader(h)
		if k != KindText && seen[k] {
			k = KindText
		}
		seen[k] = true
		columns[i] = Column{Name: h, Index: i, Kind: k}
	}

	return columns
}
