package loader

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/tabular/internal/domain/data"
	"github.com/leengari/tabular/internal/domain/errors"
)

const citiesCSV = "city,state\nBoston,MA\nNew York,NY\n\"San Francisco\",CA\nBuffalo,NY\n"

func writeFile(t *testing.T, name string, body []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, body, 0644))
	return path
}

func readTable(t *testing.T, path string, opts Options) *data.Table {
	t.Helper()
	r, err := Open("left", path, nil, opts)
	require.NoError(t, err)
	defer r.Close()

	table, err := r.ReadAll()
	require.NoError(t, err)
	return table
}

func TestReadWithHeader(t *testing.T) {
	table := readTable(t, writeFile(t, "cities.csv", []byte(citiesCSV)), Options{})

	assert.Equal(t, data.Row{"city", "state"}, table.Header)
	assert.Equal(t, 2, table.Width)
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, data.Row{"San Francisco", "CA"}, table.Rows[2])
}

func TestReadHeaderless(t *testing.T) {
	table := readTable(t, writeFile(t, "cities.csv", []byte(citiesCSV)), Options{NoHeaders: true})

	assert.Nil(t, table.Header)
	assert.Equal(t, 5, table.Len())
	assert.Equal(t, data.Row{"city", "state"}, table.Rows[0])
}

func TestReadDelimiter(t *testing.T) {
	table := readTable(t, writeFile(t, "t.tsv", []byte("a\tb\n1\t2\n")), Options{Delimiter: '\t'})
	assert.Equal(t, []data.Row{{"1", "2"}}, table.Rows)
}

func TestReadEmptyInput(t *testing.T) {
	r, err := Open("right", writeFile(t, "empty.csv", nil), nil, Options{})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 0, r.Width())
	assert.Nil(t, r.Header())
	_, err = r.NextBatch(10)
	assert.Equal(t, io.EOF, err)
}

func TestReadRaggedRow(t *testing.T) {
	path := writeFile(t, "bad.csv", []byte("city,state\nBoston,MA\nNew York\n"))

	r, err := Open("left", path, nil, Options{})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadAll()
	require.Error(t, err)
	assert.Equal(t, errors.KindParse, errors.KindOf(err))
	assert.Contains(t, err.Error(), "record 3")
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open("left", filepath.Join(t.TempDir(), "nope.csv"), nil, Options{})
	assert.Equal(t, errors.KindIO, errors.KindOf(err))
}

func TestReadStdin(t *testing.T) {
	r, err := Open("right", Stdin, strings.NewReader(citiesCSV), Options{})
	require.NoError(t, err)
	defer r.Close()

	batch, err := r.NextBatch(3)
	require.NoError(t, err)
	assert.Len(t, batch, 3)

	batch, err = r.NextBatch(3)
	require.NoError(t, err)
	assert.Equal(t, []data.Row{{"Buffalo", "NY"}}, batch)

	_, err = r.NextBatch(3)
	assert.Equal(t, io.EOF, err)
}

func TestReadCompressed(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(citiesCSV))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	zw, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := zw.EncodeAll([]byte(citiesCSV), nil)
	require.NoError(t, zw.Close())

	var sz bytes.Buffer
	sw := snappy.NewBufferedWriter(&sz)
	_, err = sw.Write([]byte(citiesCSV))
	require.NoError(t, err)
	require.NoError(t, sw.Close())

	files := map[string][]byte{
		"cities.csv.gz":  gz.Bytes(),
		"cities.csv.zst": zst,
		"cities.csv.sz":  sz.Bytes(),
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			table := readTable(t, writeFile(t, name, body), Options{})
			assert.Equal(t, 4, table.Len())
			assert.Equal(t, data.Row{"Boston", "MA"}, table.Rows[0])
		})
	}
}

func TestCodecFor(t *testing.T) {
	assert.Equal(t, CodecGzip, CodecFor("a.csv.GZ"))
	assert.Equal(t, CodecZstd, CodecFor("a.zst"))
	assert.Equal(t, CodecSnappy, CodecFor("a.sz"))
	assert.Equal(t, CodecNone, CodecFor("a.csv"))
	assert.Equal(t, CodecNone, CodecFor(Stdin))
}
