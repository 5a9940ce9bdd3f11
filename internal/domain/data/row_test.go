package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	left := Row{"Boston", "MA"}
	right := Row{"Boston", "Logan Airport"}

	assert.Equal(t, Row{"Boston", "MA", "Boston", "Logan Airport"}, Combine(left, 2, right, 2))
	assert.Equal(t, Row{"Boston", "MA", "", ""}, Combine(left, 2, nil, 2))
	assert.Equal(t, Row{"", "", "Boston", "Logan Airport"}, Combine(nil, 2, right, 2))
	assert.Equal(t, Row{"", "", "", ""}, Combine(nil, 2, nil, 2))
}

func TestCombineDoesNotAliasInputs(t *testing.T) {
	left := Row{"a"}
	right := Row{"b"}

	joined := Combine(left, 1, right, 1)
	joined[0] = "changed"

	assert.Equal(t, "a", left[0])
}

func TestRowCopy(t *testing.T) {
	r := Row{"x", "y"}
	c := r.Copy()
	c[0] = "z"

	assert.Equal(t, Row{"x", "y"}, r)
	assert.Equal(t, 2, c.Width())
}
