package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinErrorMessage(t *testing.T) {
	err := NewInvalidColumn("left", "zip", "column not found in header")
	assert.Equal(t, `column not found in header: column "zip": left`, err.Error())

	perr := NewParseError("right", "places.csv", 4, fmt.Errorf("wrong number of fields"))
	assert.Equal(t, "malformed row: right input places.csv: record 4: wrong number of fields", perr.Error())
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := NewIOError("output", "out.csv", io.ErrShortWrite)
	wrapped := fmt.Errorf("commit: %w", base)

	assert.Equal(t, KindIO, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindIO))
	assert.False(t, Is(wrapped, KindParse))
	require.True(t, stderrors.Is(wrapped, io.ErrShortWrite))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"usage", NewUsageError("only one join mode may be selected"), 2},
		{"missing key spec", NewMissingKeySpec("left"), 2},
		{"invalid column", NewInvalidColumn("right", "9", "index out of range"), 2},
		{"io", NewIOError("left", "a.csv", io.EOF), 1},
		{"parse", NewParseError("left", "a.csv", 3, nil), 1},
		{"foreign", fmt.Errorf("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
