package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/tabular/internal/domain/data"
	"github.com/leengari/tabular/internal/domain/errors"
)

var allModes = []Mode{
	ModeInner, ModeLeft, ModeRight, ModeFull, ModeCross,
	ModeLeftSemi, ModeLeftAnti, ModeRightSemi, ModeRightAnti,
}

func TestModeRoleTable(t *testing.T) {
	tests := []struct {
		mode  Mode
		build Side
		tail  bool
		width int
	}{
		{ModeInner, SideRight, false, 5},
		{ModeLeft, SideRight, false, 5},
		{ModeRight, SideRight, true, 5},
		{ModeFull, SideRight, true, 5},
		{ModeCross, SideRight, false, 5},
		{ModeLeftSemi, SideRight, false, 2},
		{ModeLeftAnti, SideRight, false, 2},
		{ModeRightSemi, SideLeft, false, 3},
		{ModeRightAnti, SideLeft, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.build, tt.mode.BuildSide())
			assert.Equal(t, tt.build.Other(), tt.mode.ProbeSide())
			assert.Equal(t, tt.tail, tt.mode.NeedsTailPass())
			assert.Equal(t, tt.width, tt.mode.OutputWidth(2, 3))
		})
	}
}

func TestModeRecords(t *testing.T) {
	for _, m := range allModes {
		switch m {
		case ModeCross:
			assert.False(t, m.Records(true), m.String())
			assert.False(t, m.Records(false), m.String())
		case ModeLeftAnti, ModeRightAnti:
			assert.False(t, m.Records(true), m.String())
			assert.True(t, m.Records(false), m.String())
		default:
			assert.True(t, m.Records(true), m.String())
			assert.False(t, m.Records(false), m.String())
		}
	}
}

func TestModeFromFlags(t *testing.T) {
	mode, err := ModeFromFlags(Flags{})
	require.NoError(t, err)
	assert.Equal(t, ModeInner, mode)

	mode, err = ModeFromFlags(Flags{RightAnti: true})
	require.NoError(t, err)
	assert.Equal(t, ModeRightAnti, mode)

	_, err = ModeFromFlags(Flags{Left: true, Cross: true})
	require.Error(t, err)
	assert.Equal(t, errors.KindUsage, errors.KindOf(err))
	assert.Contains(t, err.Error(), "--left, --cross")
}

func TestValidateKeySpecs(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		left  string
		right string
		kind  errors.Kind
	}{
		{"inner ok", ModeInner, "city", "city", ""},
		{"reordered composite ok", ModeLeft, "1,2", "2,1", ""},
		{"empty left", ModeInner, "", "city", errors.KindMissingKeySpec},
		{"empty right", ModeLeftAnti, "city", " ", errors.KindMissingKeySpec},
		{"cardinality mismatch", ModeFull, "city,state", "city", errors.KindUsage},
		{"cross ok", ModeCross, "", "", ""},
		{"cross with keys", ModeCross, "city", "", errors.KindUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKeySpecs(tt.mode, tt.left, tt.right)
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.kind, errors.KindOf(err))
		})
	}
}

func TestBuildHeader(t *testing.T) {
	left := data.Row{"city", "state"}
	right := data.Row{"city", "place"}

	assert.Equal(t, data.Row{"city", "state", "city", "place"}, BuildHeader(ModeFull, left, right, 2, 2))
	assert.Equal(t, data.Row{"city", "state"}, BuildHeader(ModeLeftAnti, left, right, 2, 2))
	assert.Equal(t, data.Row{"city", "place"}, BuildHeader(ModeRightSemi, left, right, 2, 2))
	assert.Nil(t, BuildHeader(ModeInner, nil, nil, 2, 2))
}

func TestPolicyEmit(t *testing.T) {
	build := []data.Row{{"Boston", "Logan Airport"}, {"Boston", "Boston Garden"}}
	probe := data.Row{"Boston", "MA"}
	l := layout{probeSide: SideLeft, leftWidth: 2, rightWidth: 2}

	combos := ModeInner.policy().emit(nil, l, probe, []int{0, 1}, build)
	assert.Equal(t, []data.Row{
		{"Boston", "MA", "Boston", "Logan Airport"},
		{"Boston", "MA", "Boston", "Boston Garden"},
	}, combos)

	padded := ModeLeft.policy().emit(nil, l, probe, nil, build)
	assert.Equal(t, []data.Row{{"Boston", "MA", "", ""}}, padded)

	semi := ModeLeftSemi.policy().emit(nil, l, probe, []int{0, 1}, build)
	assert.Equal(t, []data.Row{probe}, semi)

	assert.Empty(t, ModeLeftAnti.policy().emit(nil, l, probe, []int{0}, build))
	assert.Empty(t, ModeRight.policy().emit(nil, l, probe, nil, build))
}
