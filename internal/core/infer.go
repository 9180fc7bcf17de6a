package core

// infer.go implements the column type inference engine.
//
// Inference considers only non-empty values. For each candidate type in
// priority order (boolean, integer, float, date, string) it computes the
// fraction of non-empty values that parse under that type's grammar and
// picks the most specific type whose fraction meets the acceptance
// threshold. At the default threshold of 1.0 a type is chosen only when
// every non-empty sample parses; when no type qualifies the column falls
// back to string, which accepts anything.
//
// Inference runs on upload and on sheet switch only. Cell edits never
// change the detected type; an analyst override is the mechanism for
// changing a column's type after ingestion.

import "strings"

// DefaultAcceptanceThreshold is the fraction of non-empty values that
// must parse for a type to be selected.
const DefaultAcceptanceThreshold = 1.0

// DetectColumnType classifies a column from its raw cell values.
// A threshold <= 0 means the default.
func DetectColumnType(values []string, threshold float64) CellType {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultAcceptanceThreshold
	}

	counts := make(map[CellType]int, len(typePriority))
	total := 0
	for _, v := range values {
		s := strings.TrimSpace(v)
		if s == "" {
			continue
		}
		total++
		for _, t := range typePriority {
			if t == TypeString {
				continue
			}
			if matchesType(s, t) {
				counts[t]++
			}
		}
	}

	// Zero non-empty values defaults to string.
	if total == 0 {
		return TypeString
	}

	for _, t := range typePriority {
		if t == TypeString {
			continue
		}
		if float64(counts[t])/float64(total) >= threshold {
			return t
		}
	}
	return TypeString
}

// DetectTypes infers a type for every column of a sheet.
func DetectTypes(rows []Row, columns []string, threshold float64) map[string]CellType {
	detected := make(map[string]CellType, len(columns))
	for _, name := range columns {
		values := make([]string, 0, len(rows))
		for _, row := range rows {
			values = append(values, CellString(row.Values[name]))
		}
		detected[name] = DetectColumnType(values, threshold)
	}
	return detected
}
