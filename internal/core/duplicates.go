package core

// duplicates.go implements exact-duplicate row detection and removal.
//
// Rows are grouped by exact value-tuple equality over the compared
// columns (by default all columns). There is no case or whitespace
// normalization here; cleaning is a separate concern, not part of
// duplicate detection. Missing and null cells normalize to a single
// empty sentinel so two rows both missing a column compare equal.

import (
	"fmt"
	"strings"
)

// duplicateKey builds the grouping key for a row over the compared
// columns. Values are length-prefixed so tuple boundaries can never be
// forged by cell content.
func duplicateKey(row Row, columns []string) string {
	var b strings.Builder
	for _, name := range columns {
		s := CellString(row.Values[name])
		fmt.Fprintf(&b, "%d:%s;", len(s), s)
	}
	return b.String()
}

// FindDuplicates returns groups of rows whose content is identical
// across the compared columns. Group order follows the first occurrence
// of each distinct key; members keep original row order. Groups with
// fewer than two members are never reported.
//
// Passing a subset of column names scopes the comparison to those
// columns; the server-side remove operation always compares whole rows.
func FindDuplicates(rows []Row, columns []string) []DuplicateGroup {
	seen := make(map[string][]int)
	order := make([]string, 0)
	for _, row := range rows {
		key := duplicateKey(row, columns)
		if _, ok := seen[key]; !ok {
			order = append(order, key)
		}
		seen[key] = append(seen[key], row.RowID)
	}

	groups := make([]DuplicateGroup, 0)
	for _, key := range order {
		if members := seen[key]; len(members) > 1 {
			groups = append(groups, DuplicateGroup(members))
		}
	}
	return groups
}

// RemoveRows deletes the requested rows and renumbers the survivors to
// a dense zero-based sequence in preserved order. The first member of
// every duplicate group is always kept, even if its id was submitted,
// so resolving a group can never delete all of its rows.
func RemoveRows(rows []Row, columns []string, rowIDs []int) []Row {
	removal := make(map[int]struct{}, len(rowIDs))
	for _, id := range rowIDs {
		removal[id] = struct{}{}
	}

	// Protect the keeper of each group.
	for _, group := range FindDuplicates(rows, columns) {
		delete(removal, group[0])
	}

	survivors := make([]Row, 0, len(rows))
	for _, row := range rows {
		if _, gone := removal[row.RowID]; gone {
			continue
		}
		row.RowID = len(survivors)
		survivors = append(survivors, row)
	}
	return survivors
}
