package core

import "testing"

func TestDetectColumnType(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   CellType
	}{
		{
			name:   "all integers",
			values: []string{"1", "42", "-7"},
			want:   TypeInteger,
		},
		{
			name:   "integers and floats pick float",
			values: []string{"1", "2.5", "3"},
			want:   TypeFloat,
		},
		{
			name:   "zeros and ones pick boolean over integer",
			values: []string{"1", "0", "1"},
			want:   TypeBoolean,
		},
		{
			name:   "boolean tokens",
			values: []string{"yes", "NO", "true", "y"},
			want:   TypeBoolean,
		},
		{
			name:   "iso dates",
			values: []string{"2024-01-15", "2023-12-31"},
			want:   TypeDate,
		},
		{
			name:   "mixed numeric and text falls back to string",
			values: []string{"5", "abc", ""},
			want:   TypeString,
		},
		{
			name:   "plain text",
			values: []string{"alpha", "beta"},
			want:   TypeString,
		},
		{
			name:   "empty values ignored",
			values: []string{"", "  ", "3"},
			want:   TypeInteger,
		},
		{
			name:   "all empty defaults to string",
			values: []string{"", "", ""},
			want:   TypeString,
		},
		{
			name:   "no values defaults to string",
			values: nil,
			want:   TypeString,
		},
		{
			name:   "one outlier blocks inference at full threshold",
			values: []string{"1", "2", "3", "oops"},
			want:   TypeString,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectColumnType(tt.values, DefaultAcceptanceThreshold); got != tt.want {
				t.Errorf("DetectColumnType(%v) = %s, want %s", tt.values, got, tt.want)
			}
		})
	}
}

func TestDetectColumnType_LooseThreshold(t *testing.T) {
	// At 0.75, one outlier in four no longer blocks integer inference.
	// The outlier becomes a validation error instead of forcing string.
	values := []string{"1", "2", "3", "oops"}
	if got := DetectColumnType(values, 0.75); got != TypeInteger {
		t.Errorf("DetectColumnType(threshold 0.75) = %s, want integer", got)
	}
}

func TestDetectColumnType_InvalidThresholdUsesDefault(t *testing.T) {
	values := []string{"1", "2", "oops"}
	for _, threshold := range []float64{0, -1, 1.5} {
		if got := DetectColumnType(values, threshold); got != TypeString {
			t.Errorf("DetectColumnType(threshold %g) = %s, want string", threshold, got)
		}
	}
}

func TestDetectTypes(t *testing.T) {
	rows := []Row{
		{RowID: 0, Values: map[string]any{"id": "1", "price": "9.99", "when": "2024-01-15", "note": "ok"}},
		{RowID: 1, Values: map[string]any{"id": "2", "price": "15", "when": "2024-02-01", "note": ""}},
	}
	columns := []string{"id", "price", "when", "note"}

	detected := DetectTypes(rows, columns, DefaultAcceptanceThreshold)

	want := map[string]CellType{
		"id":    TypeInteger,
		"price": TypeFloat,
		"when":  TypeDate,
		"note":  TypeString,
	}
	for name, typ := range want {
		if detected[name] != typ {
			t.Errorf("detected[%q] = %s, want %s", name, detected[name], typ)
		}
	}
}
