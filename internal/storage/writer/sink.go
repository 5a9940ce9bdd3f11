package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"

	"github.com/leengari/tabular/internal/domain/data"
	"github.com/leengari/tabular/internal/domain/errors"
	"github.com/leengari/tabular/internal/storage/loader"
)

// Stdout is the path that selects standard output
const Stdout = "-"

// Output formats
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Options describes one output table
type Options struct {
	Side        string // "output" or "keys-output", used in error reports
	Path        string // destination file, "" or "-" for stdout
	Format      string // csv or parquet, "" infers from the extension
	Delimiter   rune   // csv field delimiter
	Compression string // parquet page codec: snappy, gzip, zstd or none
}

// encoder turns rows into one concrete file format
type encoder interface {
	encode(row data.Row) error
	close() error
}

// Writer is a row sink for the joined table or the keys-output table.
// File destinations are only replaced on Commit; a failed run calls Abort and leaves them untouched.
type Writer struct {
	side string
	path string

	file   *AtomicFile // temp file renamed over path, or spooled to stdout
	stream io.WriteCloser
	enc    encoder
	rows   int
}

// Create opens the destination and writes the header, if any.
// header may be nil when headers are disabled; width is the number of fields per row.
func Create(opts Options, stdout io.Writer, header data.Row, width int) (*Writer, error) {
	w := &Writer{
		side: opts.Side,
		path: opts.Path,
	}

	format, err := resolveFormat(opts)
	if err != nil {
		return nil, err
	}

	if w.isStdout() {
		w.file, err = CreateSpool(stdout)
	} else {
		w.file, err = CreateAtomic(opts.Path)
	}
	if err != nil {
		return nil, errors.NewIOError(w.side, w.path, err)
	}
	var dst io.Writer = w.file

	if format == FormatCSV && !w.isStdout() {
		w.stream, err = compress(loader.CodecFor(opts.Path), w.file)
		if err != nil {
			w.file.Abort()
			return nil, errors.NewIOError(w.side, w.path, err)
		}
		if w.stream != nil {
			dst = w.stream
		}
	}

	switch format {
	case FormatParquet:
		w.enc, err = newParquetEncoder(dst, header, width, opts.Compression)
	default:
		w.enc, err = newCSVEncoder(dst, header, opts.Delimiter)
	}
	if err != nil {
		w.Abort()
		return nil, errors.NewIOError(w.side, w.path, err)
	}

	return w, nil
}

func (w *Writer) isStdout() bool {
	return w.path == "" || w.path == Stdout
}

// WriteRow appends one row
func (w *Writer) WriteRow(row data.Row) error {
	if err := w.enc.encode(row); err != nil {
		return errors.NewIOError(w.side, w.path, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written
func (w *Writer) Rows() int {
	return w.rows
}

// Commit flushes all buffered output and publishes the file
func (w *Writer) Commit() error {
	err := w.enc.close()
	if w.stream != nil {
		err = multierr.Append(err, w.stream.Close())
	}
	if err != nil {
		err = multierr.Append(err, w.file.Abort())
		return errors.NewIOError(w.side, w.path, err)
	}

	if err := w.file.Commit(); err != nil {
		return errors.NewIOError(w.side, w.path, err)
	}
	return nil
}

// Abort discards everything written; nothing reaches the destination
func (w *Writer) Abort() error {
	if w.stream != nil {
		w.stream.Close()
	}
	return w.file.Abort()
}

// Retract removes a file that Commit already published.
// It is a no-op for stdout and for writers that were never committed.
func (w *Writer) Retract() error {
	if err := w.file.Retract(); err != nil {
		return errors.NewIOError(w.side, w.path, err)
	}
	return nil
}

func resolveFormat(opts Options) (string, error) {
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = FormatCSV
		if strings.EqualFold(filepath.Ext(opts.Path), ".parquet") {
			format = FormatParquet
		}
	}

	switch format {
	case FormatCSV:
		return format, nil
	case FormatParquet:
		if opts.Path == "" || opts.Path == Stdout {
			return "", errors.NewUsageError("parquet output requires a file destination")
		}
		return format, nil
	default:
		return "", errors.NewUsageError("unknown output format %q", opts.Format)
	}
}

// compress wraps dst with the encoder for codec, or returns nil for uncompressed output
func compress(codec loader.Codec, dst io.Writer) (io.WriteCloser, error) {
	switch codec {
	case loader.CodecGzip:
		return gzip.NewWriter(dst), nil
	case loader.CodecZstd:
		return zstd.NewWriter(dst)
	case loader.CodecSnappy:
		return snappy.NewBufferedWriter(dst), nil
	default:
		return nil, nil
	}
}

type csvEncoder struct {
	w *csv.Writer
}

func newCSVEncoder(dst io.Writer, header data.Row, delimiter rune) (*csvEncoder, error) {
	cw := csv.NewWriter(dst)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	e := &csvEncoder{w: cw}
	if header != nil {
		if err := e.encode(header); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *csvEncoder) encode(row data.Row) error {
	return e.w.Write(row)
}

func (e *csvEncoder) close() error {
	e.w.Flush()
	if err := e.w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
