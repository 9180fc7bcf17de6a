package core

// workbook.go turns uploaded file bytes into a row/column table.
//
// Two formats are supported: Excel workbooks (.xlsx, .xlsm) read with
// excelize, and CSV files read with encoding/csv. A CSV file presents
// as a workbook with a single sheet named "Sheet1". The first row is
// the header; blank header cells are named Column_N and duplicate
// header names get a numeric suffix so column names stay unique within
// a sheet.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// csvSheetName is the synthetic sheet name given to CSV uploads.
const csvSheetName = "Sheet1"

// ParsedSheet is the raw tabular content of one sheet, before type
// inference and validation.
type ParsedSheet struct {
	Columns []string
	Rows    []Row
}

// SheetNames lists the sheets of an uploaded workbook.
func SheetNames(data []byte, filename string) ([]string, error) {
	switch workbookExt(filename) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
		}
		defer f.Close()
		names := f.GetSheetList()
		if len(names) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrParseFailure)
		}
		return names, nil
	case ".csv":
		return []string{csvSheetName}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ParseSheet reads one sheet of the workbook into header names and rows
// with dense zero-based rowIds.
func ParseSheet(data []byte, filename, sheetName string) (ParsedSheet, error) {
	switch workbookExt(filename) {
	case ".xlsx", ".xlsm":
		return parseExcelSheet(data, sheetName)
	case ".csv":
		if sheetName != csvSheetName {
			return ParsedSheet{}, fmt.Errorf("%w: %q", ErrUnknownSheet, sheetName)
		}
		return parseCSV(data)
	default:
		return ParsedSheet{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func parseExcelSheet(data []byte, sheetName string) (ParsedSheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return ParsedSheet{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	defer f.Close()

	records, err := f.GetRows(sheetName)
	if err != nil {
		return ParsedSheet{}, fmt.Errorf("%w: %q", ErrUnknownSheet, sheetName)
	}
	return tableFromRecords(records), nil
}

func parseCSV(data []byte) (ParsedSheet, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return ParsedSheet{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	return tableFromRecords(records), nil
}

// tableFromRecords builds a ParsedSheet from raw string records. The
// first record is the header row; short data rows are padded with empty
// cells. A sheet with no records parses as empty rather than failing,
// so switching to a blank sheet is not an error.
func tableFromRecords(records [][]string) ParsedSheet {
	if len(records) == 0 {
		return ParsedSheet{Columns: []string{}, Rows: []Row{}}
	}

	columns := headerNames(records[0])
	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		values := make(map[string]any, len(columns))
		for c, name := range columns {
			if c < len(record) {
				values[name] = record[c]
			} else {
				values[name] = ""
			}
		}
		rows = append(rows, Row{RowID: i, Values: values})
	}
	return ParsedSheet{Columns: columns, Rows: rows}
}

// headerNames trims header cells, names blank ones Column_N, and
// disambiguates repeats with a numeric suffix.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Column_%d", i+1)
		}
		if n, taken := used[name]; taken {
			used[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		used[name]++
		names[i] = name
	}
	return names
}

func workbookExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
