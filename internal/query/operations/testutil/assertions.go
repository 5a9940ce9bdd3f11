package testutil

import (
	"testing"

	"github.com/leengari/tabular/internal/domain/data"
)

// AssertRowCount checks if the result has the expected number of rows
func AssertRowCount(t *testing.T, actual, expected int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected %d rows, got %d", context, expected, actual)
	}
}

// AssertRowWidths checks that every row has the expected number of fields
func AssertRowWidths(t *testing.T, rows []data.Row, expected int, context string) {
	t.Helper()
	for i, row := range rows {
		if len(row) != expected {
			t.Errorf("%s: row %d: expected %d columns, got %d", context, i, expected, len(row))
		}
	}
}

// AssertContainsAll checks that every row of want appears in got, respecting multiplicity
func AssertContainsAll(t *testing.T, got, want []data.Row, context string) {
	t.Helper()
	counts := make(map[string]int, len(got))
	for _, row := range got {
		counts[rowKey(row)]++
	}
	for _, row := range want {
		k := rowKey(row)
		if counts[k] == 0 {
			t.Errorf("%s: missing row %q", context, row)
			continue
		}
		counts[k]--
	}
}

func rowKey(row data.Row) string {
	k := ""
	for _, f := range row {
		k += f + "\x00"
	}
	return k
}
