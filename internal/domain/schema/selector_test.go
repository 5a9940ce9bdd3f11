package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/tabular/internal/domain/data"
	"github.com/leengari/tabular/internal/domain/errors"
)

var citiesHeader = data.Row{"city", "state"}

func TestResolveSpecByName(t *testing.T) {
	spec, err := ResolveSpec("left", "state,city", citiesHeader, 2, false)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0}, spec.Indices)
	assert.Equal(t, []string{"state", "city"}, spec.Names)
	assert.Equal(t, 2, spec.Len())
	assert.Equal(t, data.Row{"MA", "Boston"}, spec.Project(data.Row{"Boston", "MA"}))
}

func TestResolveSpecTrimsTokens(t *testing.T) {
	spec, err := ResolveSpec("left", " city , state ", citiesHeader, 2, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, spec.Indices)
}

func TestResolveSpecNameIsCaseSensitive(t *testing.T) {
	_, err := ResolveSpec("left", "City", citiesHeader, 2, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindInvalidColumn))
}

func TestResolveSpecDuplicateHeaderUsesFirst(t *testing.T) {
	spec, err := ResolveSpec("right", "id", data.Row{"id", "name", "id"}, 3, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, spec.Indices)
}

func TestResolveSpecPositional(t *testing.T) {
	spec, err := ResolveSpec("right", "2,1", nil, 2, true)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, spec.Indices)
	assert.Equal(t, []string{"2", "1"}, spec.Names)
}

func TestResolveSpecPositionalErrors(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{"zero", "0"},
		{"past end", "3"},
		{"negative", "-1"},
		{"not a number", "city"},
		{"empty token", "1,,2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveSpec("left", tt.spec, nil, 2, true)
			require.Error(t, err)
			assert.Equal(t, errors.KindInvalidColumn, errors.KindOf(err))
		})
	}
}

func TestResolveSpecNumbersAreNamesWithHeaders(t *testing.T) {
	_, err := ResolveSpec("left", "1", citiesHeader, 2, false)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidColumn, errors.KindOf(err))
}

func TestResolveBlankSpec(t *testing.T) {
	spec, err := ResolveSpec("left", "  ", citiesHeader, 2, false)
	require.NoError(t, err)
	assert.True(t, spec.IsEmpty())
	assert.Equal(t, 0, CountTokens(""))
	assert.Equal(t, 2, CountTokens("a,b"))
}

func TestResolveAgainstEmptyTable(t *testing.T) {
	_, err := ResolveSpec("left", "1", nil, 0, true)
	assert.Equal(t, errors.KindInvalidColumn, errors.KindOf(err))
}
