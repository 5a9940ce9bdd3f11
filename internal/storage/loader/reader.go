package loader

import (
	"encoding/csv"
	stderrors "errors"
	"io"
	"log/slog"
	"os"

	"github.com/leengari/tabular/internal/domain/data"
	"github.com/leengari/tabular/internal/domain/errors"
)

// Stdin is the path that selects standard input
const Stdin = "-"

// Options controls how an input table is read
type Options struct {
	Delimiter rune
	NoHeaders bool
}

// Reader streams one delimited input table.
// The header (or, without headers, the first row) is read on open so the table's width is known
// before any key column is resolved.
type Reader struct {
	side string
	path string
	rc   io.ReadCloser
	csv  *csv.Reader

	header  data.Row
	width   int
	pending data.Row // first data row, held back in headerless mode
	records int      // records consumed from the source, header included
	done    bool
}

// Open opens path (or stdin for "-") and peeks its first record.
// Compressed inputs are detected by extension.
func Open(side, path string, stdin io.Reader, opts Options) (*Reader, error) {
	var rc io.ReadCloser
	if path == Stdin {
		rc = io.NopCloser(stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.NewIOError(side, path, err)
		}
		rc, err = decompress(CodecFor(path), f)
		if err != nil {
			f.Close()
			return nil, errors.NewIOError(side, path, err)
		}
	}

	cr := csv.NewReader(rc)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	// 0 makes the reader enforce the first record's width on every following record
	cr.FieldsPerRecord = 0

	r := &Reader{
		side: side,
		path: path,
		rc:   rc,
		csv:  cr,
	}

	first, err := r.read()
	if err == io.EOF {
		r.done = true
		return r, nil
	}
	if err != nil {
		rc.Close()
		return nil, err
	}

	r.width = len(first)
	if opts.NoHeaders {
		r.pending = first
	} else {
		r.header = first
	}

	return r, nil
}

// Side returns "left" or "right"
func (r *Reader) Side() string { return r.side }

// Path returns the input path, "-" for stdin
func (r *Reader) Path() string { return r.path }

// Header returns the header row, or nil when headers are disabled or the input is empty
func (r *Reader) Header() data.Row { return r.header }

// Width returns the field count every row of this table has
func (r *Reader) Width() int { return r.width }

func (r *Reader) read() (data.Row, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	r.records++
	if err != nil {
		var perr *csv.ParseError
		if stderrors.As(err, &perr) {
			return nil, errors.NewParseError(r.side, r.path, r.records, perr.Err)
		}
		return nil, errors.NewIOError(r.side, r.path, err)
	}
	return data.Row(record), nil
}

// NextBatch returns up to n rows in source order, and io.EOF with no rows once exhausted
func (r *Reader) NextBatch(n int) ([]data.Row, error) {
	if r.done && r.pending == nil {
		return nil, io.EOF
	}

	batch := make([]data.Row, 0, n)
	if r.pending != nil {
		batch = append(batch, r.pending)
		r.pending = nil
	}

	for len(batch) < n && !r.done {
		row, err := r.read()
		if err == io.EOF {
			r.done = true
			break
		}
		if err != nil {
			return nil, err
		}
		batch = append(batch, row)
	}

	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// ReadAll materializes the remaining rows.
// Any malformed row fails the whole load, so no partial table is ever returned.
func (r *Reader) ReadAll() (*data.Table, error) {
	table := &data.Table{
		Header: r.header,
		Width:  r.width,
	}

	for {
		batch, err := r.NextBatch(4096)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, batch...)
	}

	slog.Debug("table loaded",
		slog.String("side", r.side),
		slog.String("path", r.path),
		slog.Int("rows", table.Len()),
		slog.Int("width", table.Width),
	)

	return table, nil
}

// Close releases the underlying file and decoder
func (r *Reader) Close() error {
	if err := r.rc.Close(); err != nil {
		return errors.NewIOError(r.side, r.path, err)
	}
	return nil
}
