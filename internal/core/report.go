package core

// report.go renders workbook state into downloadable Excel documents.
//
// BuildReport produces the annotated report: the data table with every
// invalid cell filled in the same light-red marker the grid uses, an
// "Errors" sheet addressing each finding, and a "Duplicates" sheet
// listing group members. Row numbers in the extra sheets are the Data
// sheet's 1-based spreadsheet rows (rowId + 2, accounting for the
// header), so a reader can jump straight to the offending cell.
//
// ExportRows writes the client's edited table with no annotations.

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	dataSheet       = "Data"
	errorsSheet     = "Errors"
	duplicatesSheet = "Duplicates"
	exportSheet     = "Edited Data"

	// Excel's standard "Bad" cell appearance.
	invalidFillColor = "FFC7CE"
	invalidFontColor = "9C0006"
)

// BuildReport renders columns, rows, and findings into an xlsx
// document. Read-only with respect to session state.
func BuildReport(columns []Column, rows []Row, errs []CellError, groups []DuplicateGroup) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	if err := writeTable(f, dataSheet, columns, rows); err != nil {
		return nil, err
	}
	if err := markInvalidCells(f, columns, rows, errs); err != nil {
		return nil, err
	}
	if err := writeErrorsSheet(f, errs); err != nil {
		return nil, err
	}
	if err := writeDuplicatesSheet(f, groups); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportRows writes the edited table to a plain xlsx document. Column
// order follows the given column list; cells with no value are written
// empty.
func ExportRows(columns []Column, rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := writeTable(f, exportSheet, columns, rows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, columns []Column, rows []Row) error {
	for c, col := range columns {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col.Name); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	for r, row := range rows {
		for c, col := range columns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, row.Values[col.Name]); err != nil {
				return fmt.Errorf("report: %w", err)
			}
		}
	}
	return nil
}

func markInvalidCells(f *excelize.File, columns []Column, rows []Row, errs []CellError) error {
	if len(errs) == 0 {
		return nil
	}
	styleID, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{invalidFillColor}},
		Font: &excelize.Font{Color: invalidFontColor},
	})
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	colIndex := make(map[string]int, len(columns))
	for i, col := range columns {
		colIndex[col.Name] = i + 1
	}
	rowIndex := make(map[int]int, len(rows))
	for i, row := range rows {
		rowIndex[row.RowID] = i + 2
	}

	for _, cellErr := range errs {
		c, okC := colIndex[cellErr.Column]
		r, okR := rowIndex[cellErr.RowID]
		if !okC || !okR {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(c, r)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		if err := f.SetCellStyle(dataSheet, cell, cell, styleID); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	return nil
}

func writeErrorsSheet(f *excelize.File, errs []CellError) error {
	if len(errs) == 0 {
		return nil
	}
	if _, err := f.NewSheet(errorsSheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	header := []any{"Row", "Column", "Expected Type", "Value", "Message"}
	if err := f.SetSheetRow(errorsSheet, "A1", &header); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	for i, cellErr := range errs {
		record := []any{
			cellErr.RowID + 2,
			cellErr.Column,
			string(cellErr.ExpectedType),
			CellString(cellErr.ActualValue),
			cellErr.Message,
		}
		anchor := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(errorsSheet, anchor, &record); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	return nil
}

func writeDuplicatesSheet(f *excelize.File, groups []DuplicateGroup) error {
	if len(groups) == 0 {
		return nil
	}
	if _, err := f.NewSheet(duplicatesSheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	header := []any{"Group", "Rows"}
	if err := f.SetSheetRow(duplicatesSheet, "A1", &header); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	for i, group := range groups {
		members := make([]string, len(group))
		for j, id := range group {
			members[j] = fmt.Sprintf("%d", id+2)
		}
		record := []any{i + 1, strings.Join(members, ", ")}
		anchor := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(duplicatesSheet, anchor, &record); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	return nil
}
