package testutil

import (
	"io"

	"github.com/leengari/tabular/internal/domain/data"
)

// CitiesTable returns the left table of the cities/places scenario
func CitiesTable() *data.Table {
	return &data.Table{
		Header: data.Row{"city", "state"},
		Rows: []data.Row{
			{"Boston", "MA"},
			{"New York", "NY"},
			{"San Francisco", "CA"},
			{"Buffalo", "NY"},
		},
		Width: 2,
	}
}

// PlacesTable returns the right table of the cities/places scenario.
// BOSTON only matches Boston when case is ignored.
func PlacesTable() *data.Table {
	return &data.Table{
		Header: data.Row{"city", "place"},
		Rows: []data.Row{
			{"Boston", "Logan Airport"},
			{"Boston", "Boston Garden"},
			{"Buffalo", "Ralph Wilson Stadium"},
			{"Orlando", "Disney World"},
			{"BOSTON", "BOSTON COMMON"},
		},
		Width: 2,
	}
}

// UsersTable returns a headerless table keyed by its first column
func UsersTable() *data.Table {
	return &data.Table{
		Rows: []data.Row{
			{"1", "alice", "alice@example.com"},
			{"2", "bob", "bob@example.com"},
			{"3", "charlie", "charlie@example.com"},
		},
		Width: 3,
	}
}

// OrdersTable returns a headerless table whose second column references UsersTable.
// User 3 (charlie) has no orders and order 4 references a missing user.
func OrdersTable() *data.Table {
	return &data.Table{
		Rows: []data.Row{
			{"1", "1", "Laptop"},
			{"2", "1", "Mouse"},
			{"3", "2", "Keyboard"},
			{"4", "9", "Monitor"},
		},
		Width: 3,
	}
}

// SliceSource streams a fixed set of rows in batches
type SliceSource struct {
	rows []data.Row
	pos  int
}

func NewSliceSource(rows []data.Row) *SliceSource {
	return &SliceSource{rows: rows}
}

// NextBatch returns up to n rows, then io.EOF once exhausted
func (s *SliceSource) NextBatch(n int) ([]data.Row, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	end := min(s.pos+n, len(s.rows))
	batch := s.rows[s.pos:end]
	s.pos = end
	return batch, nil
}

// RowCollector is a sink that keeps every row written to it
type RowCollector struct {
	Rows []data.Row
}

func (c *RowCollector) WriteRow(row data.Row) error {
	c.Rows = append(c.Rows, row)
	return nil
}

// FailingSink rejects every write after the first Limit rows
type FailingSink struct {
	Limit int
	Err   error
	n     int
}

func (f *FailingSink) WriteRow(data.Row) error {
	if f.n >= f.Limit {
		return f.Err
	}
	f.n++
	return nil
}
