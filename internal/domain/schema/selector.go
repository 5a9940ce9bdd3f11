package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leengari/tabular/internal/domain/data"
	"github.com/leengari/tabular/internal/domain/errors"
)

// ColumnSpec is the ordered list of resolved 0-based column positions for one table.
// Order follows the spec string, not the table's column order.
type ColumnSpec struct {
	Indices []int    // 0-based positions into a row
	Names   []string // header names, or the positional tokens when headerless
}

// Len returns the number of key columns
func (s ColumnSpec) Len() int {
	return len(s.Indices)
}

// IsEmpty reports whether the spec selects no columns (cross join)
func (s ColumnSpec) IsEmpty() bool {
	return len(s.Indices) == 0
}

// Project returns the selected fields of row in spec order
func (s ColumnSpec) Project(row data.Row) data.Row {
	out := make(data.Row, len(s.Indices))
	for i, idx := range s.Indices {
		out[i] = row[idx]
	}
	return out
}

// SplitSpec splits a comma-separated key spec into trimmed tokens.
// A blank spec yields nil.
func SplitSpec(spec string) []string {
	if strings.TrimSpace(spec) == "" {
		return nil
	}
	parts := strings.Split(spec, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// CountTokens returns how many columns a spec names, without resolving them
func CountTokens(spec string) int {
	return len(SplitSpec(spec))
}

// ResolveSpec resolves a key spec against one table.
// With headers, tokens are matched case-sensitively against header names (first occurrence wins).
// Without headers, tokens are 1-based positions in [1, width].
// A blank spec resolves to an empty ColumnSpec; callers decide whether that is allowed.
func ResolveSpec(side, spec string, header data.Row, width int, noHeaders bool) (ColumnSpec, error) {
	tokens := SplitSpec(spec)
	out := ColumnSpec{
		Indices: make([]int, 0, len(tokens)),
		Names:   make([]string, 0, len(tokens)),
	}

	for _, tok := range tokens {
		if tok == "" {
			return ColumnSpec{}, errors.NewInvalidColumn(side, tok, "empty column name in key spec")
		}

		var idx int
		var err error
		if noHeaders {
			idx, err = resolvePosition(side, tok, width)
		} else {
			idx, err = resolveName(side, tok, header)
		}
		if err != nil {
			return ColumnSpec{}, err
		}

		out.Indices = append(out.Indices, idx)
		out.Names = append(out.Names, tok)
	}

	return out, nil
}

func resolveName(side, name string, header data.Row) (int, error) {
	for i, col := range header {
		if col == name {
			return i, nil
		}
	}
	return -1, errors.NewInvalidColumn(side, name, "column not found in header")
}

func resolvePosition(side, tok string, width int) (int, error) {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return -1, errors.NewInvalidColumn(side, tok, "column index is not a number")
	}
	if n < 1 || n > width {
		return -1, errors.NewInvalidColumn(side, tok,
			fmt.Sprintf("column index out of range (table has %d columns)", width))
	}
	return n - 1, nil
}
