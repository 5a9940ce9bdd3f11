package data

// Row represents a single record as an ordered sequence of string fields
type Row []string

// Copy creates a copy of the row so callers can reuse their buffer
func (r Row) Copy() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Width returns the number of fields in the row
func (r Row) Width() int {
	return len(r)
}

// Table is a fully materialized table: an optional header plus its rows in source order
type Table struct {
	Header Row   // nil when headers are disabled
	Rows   []Row // every row has Width() fields
	Width  int   // field count of the header, or of the first row if headerless
}

// Len returns the number of data rows (the header is not counted)
func (t *Table) Len() int {
	return len(t.Rows)
}
