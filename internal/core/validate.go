package core

// validate.go implements the type-aware cell validation engine.
//
// Each recognized type has a grammar deciding whether a non-empty cell
// value is acceptable. Empty and whitespace-only cells are always valid
// regardless of type: nullability is implicit and there is no "required"
// concept. A cell is invalid only when it is non-empty and fails the
// grammar for the column's effective type (override if set, else the
// detected type).
//
// Validation is not incremental. ValidateSheet recomputes the complete
// error set over all rows and columns on every call, which keeps errors
// from going stale after edits, renames, overrides, or row deletion.

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// integerPattern: optional sign followed by digits only. No decimal
	// point, no thousands separators.
	integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)

	// floatPattern: optional sign, digits with an optional decimal part,
	// optional exponent.
	floatPattern = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// booleanTokens is the fixed, case-insensitive set of accepted boolean
// literals.
var booleanTokens = map[string]struct{}{
	"true": {}, "false": {},
	"yes": {}, "no": {},
	"1": {}, "0": {},
	"y": {}, "n": {},
}

// dateLayouts is the fixed set of accepted date/time patterns. Ambiguous
// numeric dates follow the month-before-day convention ("01/02/2006" is
// January 2nd), applied uniformly rather than inferred per row.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func isIntegerLiteral(s string) bool {
	return integerPattern.MatchString(s)
}

func isFloatLiteral(s string) bool {
	return floatPattern.MatchString(s)
}

func isBooleanLiteral(s string) bool {
	_, ok := booleanTokens[strings.ToLower(s)]
	return ok
}

func isDateLiteral(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// matchesType reports whether a trimmed, non-empty value parses under
// the grammar for the given type. TypeString accepts anything.
func matchesType(s string, t CellType) bool {
	switch t {
	case TypeInteger:
		return isIntegerLiteral(s)
	case TypeFloat:
		return isFloatLiteral(s)
	case TypeBoolean:
		return isBooleanLiteral(s)
	case TypeDate:
		return isDateLiteral(s)
	default:
		return true
	}
}

// CheckCell validates a single cell value against an effective type.
// It returns true when the cell is valid, or false plus a human-readable
// reason when it is not.
func CheckCell(value any, effective CellType) (bool, string) {
	if isEmptyCell(value) {
		return true, ""
	}
	s := strings.TrimSpace(CellString(value))
	if matchesType(s, effective) {
		return true, ""
	}
	return false, fmt.Sprintf("Expected %s, received '%s'", effective, s)
}

// ValidateSheet recomputes the full error set for the sheet. Output is
// deterministic: rows in row order, columns in column order.
func ValidateSheet(columns []Column, rows []Row) []CellError {
	errs := make([]CellError, 0)
	for _, row := range rows {
		for _, col := range columns {
			effective := col.Binding().Effective()
			value := row.Values[col.Name]
			if ok, reason := CheckCell(value, effective); !ok {
				errs = append(errs, CellError{
					RowID:        row.RowID,
					Column:       col.Name,
					ExpectedType: effective,
					ActualValue:  value,
					Message:      reason,
				})
			}
		}
	}
	return errs
}
