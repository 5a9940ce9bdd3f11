package loader

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
)

// Codec identifies a whole-stream compression format, chosen by file extension
type Codec string

const (
	CodecNone   Codec = ""
	CodecGzip   Codec = "gzip"
	CodecZstd   Codec = "zstd"
	CodecSnappy Codec = "snappy"
)

// CodecFor returns the stream codec implied by path's extension
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CodecGzip
	case ".zst":
		return CodecZstd
	case ".sz":
		return CodecSnappy
	default:
		return CodecNone
	}
}

// decompress wraps rc with the decoder for codec.
// Closing the result closes both the decoder and rc.
func decompress(codec Codec, rc io.ReadCloser) (io.ReadCloser, error) {
	switch codec {
	case CodecGzip:
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case CodecZstd:
		zr, err := zstd.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), rc}}, nil
	case CodecSnappy:
		return &stackedReader{Reader: snappy.NewReader(rc), closers: []io.Closer{rc}}, nil
	default:
		return rc, nil
	}
}

type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var err error
	for _, c := range s.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}
