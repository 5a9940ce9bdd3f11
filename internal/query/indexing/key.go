package indexing

import (
	"strconv"
	"strings"

	"github.com/leengari/tabular/internal/config"
	"github.com/leengari/tabular/internal/domain/data"
	"github.com/leengari/tabular/internal/domain/schema"
)

// KeyBuilder derives the comparable join key of a row from its key columns.
// Case folding happens here and nowhere else; the original field values are never modified.
type KeyBuilder struct {
	spec schema.ColumnSpec
	fold func(string) string
}

// NewKeyBuilder creates a builder for the given resolved key columns.
// caseFold selects the folding rule applied when ignoreCase is set.
func NewKeyBuilder(spec schema.ColumnSpec, ignoreCase bool, caseFold string) *KeyBuilder {
	b := &KeyBuilder{spec: spec}
	if ignoreCase {
		switch caseFold {
		case config.FoldUnicode:
			b.fold = strings.ToLower
		default:
			b.fold = foldASCII
		}
	}
	return b
}

// Spec returns the key columns this builder reads
func (b *KeyBuilder) Spec() schema.ColumnSpec {
	return b.spec
}

// Key returns the normalized key of row.
// Composite keys are length-prefixed so ("a,b","c") and ("a","b,c") never collide.
func (b *KeyBuilder) Key(row data.Row) string {
	idx := b.spec.Indices
	if len(idx) == 1 {
		return b.normalize(row[idx[0]])
	}

	var sb strings.Builder
	for _, i := range idx {
		v := b.normalize(row[i])
		sb.WriteString(strconv.Itoa(len(v)))
		sb.WriteByte(':')
		sb.WriteString(v)
	}
	return sb.String()
}

// Keys computes the key of every row, in row order
func (b *KeyBuilder) Keys(rows []data.Row) []string {
	keys := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = b.Key(row)
	}
	return keys
}

// Original returns the unnormalized key field values of row
func (b *KeyBuilder) Original(row data.Row) data.Row {
	return b.spec.Project(row)
}

func (b *KeyBuilder) normalize(v string) string {
	if b.fold == nil {
		return v
	}
	return b.fold(v)
}

// foldASCII lowercases A-Z only, leaving every other byte untouched
func foldASCII(s string) string {
	i := 0
	for ; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			break
		}
	}
	if i == len(s) {
		return s
	}

	buf := []byte(s)
	for ; i < len(buf); i++ {
		c := buf[i]
		if 'A' <= c && c <= 'Z' {
			buf[i] = c + ('a' - 'A')
		}
	}
	return string(buf)
}
