// =============================================================================
// Telemetry XLSX Converter - Header Diagnostics
// =============================================================================
//
// This module inspects the header row of a telemetry file and reports
// conditions an operator should know about. It never rejects a file; every
// finding is a warning that the converter logs and carries on.
//
// CHECKS:
//   - Recognized columns that are absent (their rule is skipped)
//   - Duplicate header names (only the first occurrence is typed)
//   - Recognized columns away from their canonical position. With
//     positional format binding this means a display format lands on the
//     wrong column.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/telemetry-xlsx/internal/config"
	"github.com/ginjaninja78/telemetry-xlsx/internal/types"
)

// Rules reported by ValidateHeaders.
const (
	RuleMissingColumn   = "missing_column"
	RuleDuplicateHeader = "duplicate_header"
	RuleOutOfPosition   = "out_of_position"
)

// SeverityWarning is the only severity produced; diagnostics never stop a
// conversion.
const SeverityWarning = "warning"

// ValidationError represents a single header diagnostic.
type ValidationError struct {
	// Severity is always "warning".
	Severity string

	// Field is the header the diagnostic is about.
	Field string

	// Rule is the check that fired.
	Rule string

	// Message is a human-readable description.
	Message string

	// Position is the 1-based column position, or 0 when the column is absent.
	Position int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("[%s] column %d '%s': %s", strings.ToUpper(e.Severity), e.Position, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] '%s': %s", strings.ToUpper(e.Severity), e.Field, e.Message)
}

// ValidateHeaders checks columns against the five recognized names.
//
// PARAMETERS:
//   - columns: The typed columns of the file.
//   - binding: The configured format binding.
//
// RETURNS:
//   - The diagnostics, in column order. Empty for a canonical header row.
func ValidateHeaders(columns []types.Column, binding string) []*ValidationError {
	var errs []*ValidationError

	seen := make(map[string]int)
	present := make(map[types.Kind]bool)

	for _, col := range columns {
		pos := col.Index + 1

		if first, dup := seen[col.Name]; dup {
			errs = append(errs, &ValidationError{
				Severity: SeverityWarning,
				Field:    col.Name,
				Rule:     RuleDuplicateHeader,
				Message:  fmt.Sprintf("duplicate of column %d; treated as text", first),
				Position: pos,
			})
			continue
		}
		seen[col.Name] = pos

		if col.Kind == types.KindText {
			if binding == config.BindingPositional {
				if k := types.KindForPosition(pos); k != types.KindText {
					errs = append(errs, &ValidationError{
						Severity: SeverityWarning,
						Field:    col.Name,
						Rule:     RuleOutOfPosition,
						Message:  fmt.Sprintf("receives the %s display format by position", k),
						Position: pos,
					})
				}
			}
			continue
		}
		present[col.Kind] = true

		if canonical := types.CanonicalPosition(col.Kind); canonical != pos {
			msg := fmt.Sprintf("expected at column %d", canonical)
			if binding == config.BindingPositional {
				msg += fmt.Sprintf("; display format of column %d is %s", pos, types.KindForPosition(pos))
			}
			errs = append(errs, &ValidationError{
				Severity: SeverityWarning,
				Field:    col.Name,
				Rule:     RuleOutOfPosition,
				Message:  msg,
				Position: pos,
			})
		}
	}

	for _, k := range types.RecognizedKinds {
		if !present[k] {
			errs = append(errs, &ValidationError{
				Severity: SeverityWarning,
				Field:    k.String(),
				Rule:     RuleMissingColumn,
				Message:  "column not present; rule skipped",
			})
		}
	}

	return errs
}
