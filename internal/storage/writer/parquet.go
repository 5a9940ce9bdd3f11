package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/leengari/tabular/internal/domain/data"
)

const parquetBatchSize = 1000

// parquetEncoder writes every field as a required UTF-8 string column
type parquetEncoder struct {
	pw    *parquet.Writer
	order []int // order[c] is the row field stored in schema column c
	rows  []parquet.Row
}

func newParquetEncoder(dst io.Writer, header data.Row, width int, codec string) (*parquetEncoder, error) {
	names := ColumnNames(header, width)

	// Build schema as a group of named columns
	group := make(parquet.Group, len(names))
	for _, name := range names {
		group[name] = parquet.String()
	}
	schema := parquet.NewSchema("tabular", group)

	writerOpts := []parquet.WriterOption{schema}
	switch strings.ToLower(codec) {
	case "", "snappy":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Snappy))
	case "gzip":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Gzip))
	case "zstd":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Zstd))
	case "none":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Uncompressed))
	default:
		return nil, fmt.Errorf("unknown parquet compression %q", codec)
	}

	// Group fields are stored sorted by name, so map schema columns back to row positions
	position := make(map[string]int, len(names))
	for i, name := range names {
		position[name] = i
	}
	columns := schema.Columns()
	order := make([]int, len(columns))
	for c, path := range columns {
		order[c] = position[path[0]]
	}

	return &parquetEncoder{
		pw:    parquet.NewWriter(dst, writerOpts...),
		order: order,
		rows:  make([]parquet.Row, 0, parquetBatchSize),
	}, nil
}

func (e *parquetEncoder) encode(row data.Row) error {
	values := make(parquet.Row, len(e.order))
	for c, field := range e.order {
		values[c] = parquet.ByteArrayValue([]byte(row[field])).Level(0, 0, c)
	}
	e.rows = append(e.rows, values)

	// Flush batch when full
	if len(e.rows) >= parquetBatchSize {
		return e.flush()
	}
	return nil
}

func (e *parquetEncoder) flush() error {
	if len(e.rows) == 0 {
		return nil
	}
	if _, err := e.pw.WriteRows(e.rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	e.rows = e.rows[:0]
	return nil
}

func (e *parquetEncoder) close() error {
	if err := e.flush(); err != nil {
		e.pw.Close()
		return err
	}
	return e.pw.Close()
}

// ColumnNames derives unique column names for a schema-bearing format.
// Headerless tables get column_1..column_N; repeated names get _right, then _2, _3 ... suffixes.
func ColumnNames(header data.Row, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)

	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}

		if used[name] {
			candidate := name + "_right"
			for n := 2; used[candidate]; n++ {
				candidate = fmt.Sprintf("%s_%d", name, n)
			}
			name = candidate
		}

		used[name] = true
		names[i] = name
	}
	return names
}
