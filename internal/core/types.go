// Package core provides the business logic for workbook validation sessions.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// CellType is a column data type recognized by the validation engine.
type CellType string

const (
	TypeString  CellType = "string"
	TypeInteger CellType = "integer"
	TypeFloat   CellType = "float"
	TypeBoolean CellType = "boolean"
	TypeDate    CellType = "date"
)

// typePriority orders candidate types from most to least specific.
// Inference picks the first type in this order whose parse-success
// fraction meets the acceptance threshold.
var typePriority = []CellType{TypeBoolean, TypeInteger, TypeFloat, TypeDate, TypeString}

// ParseCellType normalizes a type token from a client payload.
// The second return value is false for unrecognized tokens.
func ParseCellType(s string) (CellType, bool) {
	switch CellType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeString:
		return TypeString, true
	case TypeInteger:
		return TypeInteger, true
	case TypeFloat:
		return TypeFloat, true
	case TypeBoolean:
		return TypeBoolean, true
	case TypeDate:
		return TypeDate, true
	}
	return "", false
}

// TypeBinding is the type assignment used to validate a column: the
// detected type, optionally superseded by an analyst override. Callers
// must resolve the precedence through Effective rather than inline.
type TypeBinding struct {
	Detected CellType
	Override CellType // zero value means no override is set
}

// Effective returns the type validation must use for the column.
func (b TypeBinding) Effective() CellType {
	if b.Override != "" {
		return b.Override
	}
	if b.Detected != "" {
		return b.Detected
	}
	return TypeString
}

// Column describes one column of a sheet as exposed to clients.
type Column struct {
	Name         string    `json:"name"`
	DetectedType CellType  `json:"detectedType"`
	OverrideType *CellType `json:"overrideType"`
}

// Binding returns the column's type binding.
func (c Column) Binding() TypeBinding {
	b := TypeBinding{Detected: c.DetectedType}
	if c.OverrideType != nil {
		b.Override = *c.OverrideType
	}
	return b
}

// Row is one data row. RowID is unique within a sheet and renumbered to
// a dense zero-based sequence after row deletion. Values maps column
// name to a scalar (string, number, boolean, or nil for empty).
type Row struct {
	RowID  int            `json:"rowId"`
	Values map[string]any `json:"values"`
}

// CellError marks one invalid cell. The full error set is recomputed on
// every mutation; error records are never edited in place.
type CellError struct {
	RowID        int      `json:"rowId"`
	Column       string   `json:"column"`
	ExpectedType CellType `json:"expectedType"`
	ActualValue  any      `json:"actualValue"`
	Message      string   `json:"message"`
}

// DuplicateGroup lists the rowIds of rows with identical content, in
// original row order. Groups always have at least two members.
type DuplicateGroup []int

// SheetState is the committed state of one sheet: column definitions,
// rows, and the findings computed from them.
type SheetState struct {
	Columns         []Column
	Rows            []Row
	Errors          []CellError
	DuplicateGroups []DuplicateGroup
}

// Payload is the shared response shape returned by every session
// operation so clients can apply results uniformly.
type Payload struct {
	SessionID       string           `json:"sessionId,omitempty"`
	SheetName       string           `json:"sheetName"`
	SheetNames      []string         `json:"sheetNames"`
	Columns         []Column         `json:"columns"`
	Rows            []Row            `json:"rows"`
	Errors          []CellError      `json:"errors"`
	DuplicateGroups []DuplicateGroup `json:"duplicateGroups"`
}

// CellString renders a scalar cell value as the string the grammars
// operate on. Empty strings and nil both mean an empty cell.
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		// JSON numbers decode as float64; keep integral values clean.
		if val == float64(int64(val)) && val < 1e15 && val > -1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// isEmptyCell reports whether a cell holds no usable value. Blank and
// whitespace-only strings count as empty.
func isEmptyCell(v any) bool {
	return strings.TrimSpace(CellString(v)) == ""
}
