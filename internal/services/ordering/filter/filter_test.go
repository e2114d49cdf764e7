package filter

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func upperStatus(value string) (string, bool) {
	switch strings.ToUpper(value) {
	case "RECEIVED", "SETTLED":
		return strings.ToUpper(value), true
	case "会計済み":
		return "SETTLED", true
	default:
		return "", false
	}
}

func TestParseOrderFilterEmpty(t *testing.T) {
	t.Parallel()

	cond, err := ParseOrderFilter("  ", nil)
	if err != nil {
		t.Fatalf("parse empty filter: %v", err)
	}
	if cond != nil {
		t.Fatalf("condition = %+v, want nil", cond)
	}
}

func TestParseOrderFilterTranslatesComparisons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		filter     string
		wantClause string
		wantParams []any
	}{
		{
			name:       "table equality",
			filter:     "table_number = 5",
			wantClause: "table_number = ?",
			wantParams: []any{int64(5)},
		},
		{
			name:       "status normalized",
			filter:     `status = "settled"`,
			wantClause: "status = ?",
			wantParams: []any{"SETTLED"},
		},
		{
			name:       "legacy status label",
			filter:     `status != "会計済み"`,
			wantClause: "status != ?",
			wantParams: []any{"SETTLED"},
		},
		{
			name:       "conjunction",
			filter:     `table_number = 5 AND total_price >= 1000.0`,
			wantClause: "(table_number = ? AND total_price >= ?)",
			wantParams: []any{int64(5), 1000.0},
		},
		{
			name:       "disjunction",
			filter:     `table_number = 1 OR table_number = 2`,
			wantClause: "(table_number = ? OR table_number = ?)",
			wantParams: []any{int64(1), int64(2)},
		},
		{
			name:       "timestamp function",
			filter:     `created_at >= timestamp("2026-03-01T00:00:00Z")`,
			wantClause: "created_at >= ?",
			wantParams: []any{time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC).UnixMilli()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseOrderFilter(tt.filter, upperStatus)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.filter, err)
			}
			if cond == nil {
				t.Fatal("expected condition")
			}
			if cond.Clause != tt.wantClause {
				t.Fatalf("clause = %q, want %q", cond.Clause, tt.wantClause)
			}
			if diff := cmp.Diff(tt.wantParams, cond.Params); diff != "" {
				t.Fatalf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseOrderFilterRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []string{
		`menu_item = "x"`,
		`status = "teleported"`,
		`table_number = `,
		`created_at > timestamp("yesterday")`,
	}
	for _, filter := range tests {
		if _, err := ParseOrderFilter(filter, upperStatus); err == nil {
			t.Fatalf("expected error for %q", filter)
		}
	}
}
