package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leengari/tabular/internal/config"
	"github.com/leengari/tabular/internal/domain/data"
	"github.com/leengari/tabular/internal/domain/schema"
)

func spec(indices ...int) schema.ColumnSpec {
	return schema.ColumnSpec{Indices: indices}
}

func TestKeyExactMatch(t *testing.T) {
	b := NewKeyBuilder(spec(1), false, config.FoldASCII)
	assert.Equal(t, "MA", b.Key(data.Row{"Boston", "MA"}))
	assert.NotEqual(t, b.Key(data.Row{"x", "ma"}), b.Key(data.Row{"x", "MA"}))
}

func TestKeyIgnoreCaseASCII(t *testing.T) {
	b := NewKeyBuilder(spec(0), true, config.FoldASCII)
	assert.Equal(t, b.Key(data.Row{"BOSTON"}), b.Key(data.Row{"boston"}))
	// Non-ASCII letters are left alone under the ASCII rule
	assert.NotEqual(t, b.Key(data.Row{"ÉTÉ"}), b.Key(data.Row{"été"}))
}

func TestKeyIgnoreCaseUnicode(t *testing.T) {
	b := NewKeyBuilder(spec(0), true, config.FoldUnicode)
	assert.Equal(t, b.Key(data.Row{"ÉTÉ"}), b.Key(data.Row{"été"}))
}

func TestKeyCompositeIsUnambiguous(t *testing.T) {
	b := NewKeyBuilder(spec(0, 1), false, config.FoldASCII)
	assert.NotEqual(t, b.Key(data.Row{"a,b", "c"}), b.Key(data.Row{"a", "b,c"}))
	assert.NotEqual(t, b.Key(data.Row{"", "ab"}), b.Key(data.Row{"a", "b"}))
	assert.Equal(t, b.Key(data.Row{"x", "y"}), b.Key(data.Row{"x", "y", "ignored"}))
}

func TestKeyColumnOrderMatters(t *testing.T) {
	row := data.Row{"Boston", "MA"}
	ab := NewKeyBuilder(spec(0, 1), false, config.FoldASCII)
	ba := NewKeyBuilder(spec(1, 0), false, config.FoldASCII)
	assert.NotEqual(t, ab.Key(row), ba.Key(row))
}

func TestOriginalKeepsCase(t *testing.T) {
	b := NewKeyBuilder(spec(1, 0), true, config.FoldASCII)
	assert.Equal(t, data.Row{"MA", "Boston"}, b.Original(data.Row{"Boston", "MA"}))
}

func TestFoldASCII(t *testing.T) {
	assert.Equal(t, "new york", foldASCII("New York"))
	assert.Equal(t, "already", foldASCII("already"))
	assert.Equal(t, "straße", foldASCII("STRAßE"))
}
