package join

import (
	"strings"

	"github.com/leengari/tabular/internal/domain/errors"
)

// Mode represents the type of JOIN operation
type Mode int

const (
	ModeInner     Mode = iota // Returns only matching combinations
	ModeLeft                  // All left rows, empty right fields for unmatched
	ModeRight                 // All right rows, empty left fields for unmatched
	ModeFull                  // All rows from both tables
	ModeCross                 // Cartesian product, key columns ignored
	ModeLeftSemi              // Left rows with at least one match, once each
	ModeLeftAnti              // Left rows without a match
	ModeRightSemi             // Right rows with at least one match, once each
	ModeRightAnti             // Right rows without a match
)

// String returns the string representation of the JOIN mode
func (m Mode) String() string {
	switch m {
	case ModeInner:
		return "INNER JOIN"
	case ModeLeft:
		return "LEFT JOIN"
	case ModeRight:
		return "RIGHT JOIN"
	case ModeFull:
		return "FULL OUTER JOIN"
	case ModeCross:
		return "CROSS JOIN"
	case ModeLeftSemi:
		return "LEFT SEMI JOIN"
	case ModeLeftAnti:
		return "LEFT ANTI JOIN"
	case ModeRightSemi:
		return "RIGHT SEMI JOIN"
	case ModeRightAnti:
		return "RIGHT ANTI JOIN"
	default:
		return "UNKNOWN JOIN"
	}
}

// Side identifies one of the two input tables
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Other returns the opposite side
func (s Side) Other() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// emitRule is what one streamed row produces for a given lookup outcome
type emitRule int

const (
	emitNothing  emitRule = iota
	emitCombos            // one left+right row per build match
	emitPadded            // streamed row plus empty fields for the build side
	emitStreamed          // the streamed row alone, once
)

// policy is one row of the mode table
type policy struct {
	build        Side
	onMatch      emitRule
	onMiss       emitRule
	tail         bool // append unmatched build rows after the probe
	recordOnHit  bool
	recordOnMiss bool
}

var policies = map[Mode]policy{
	ModeInner:     {build: SideRight, onMatch: emitCombos, onMiss: emitNothing, recordOnHit: true},
	ModeLeft:      {build: SideRight, onMatch: emitCombos, onMiss: emitPadded, recordOnHit: true},
	ModeRight:     {build: SideRight, onMatch: emitCombos, onMiss: emitNothing, tail: true, recordOnHit: true},
	ModeFull:      {build: SideRight, onMatch: emitCombos, onMiss: emitPadded, tail: true, recordOnHit: true},
	ModeLeftSemi:  {build: SideRight, onMatch: emitStreamed, onMiss: emitNothing, recordOnHit: true},
	ModeLeftAnti:  {build: SideRight, onMatch: emitNothing, onMiss: emitStreamed, recordOnMiss: true},
	ModeRightSemi: {build: SideLeft, onMatch: emitStreamed, onMiss: emitNothing, recordOnHit: true},
	ModeRightAnti: {build: SideLeft, onMatch: emitNothing, onMiss: emitStreamed, recordOnMiss: true},
	// Cross streams left against the materialized right table
	ModeCross: {build: SideRight},
}

func (m Mode) policy() policy {
	return policies[m]
}

// BuildSide returns the table that is materialized and indexed
func (m Mode) BuildSide() Side {
	return m.policy().build
}

// ProbeSide returns the table that is streamed
func (m Mode) ProbeSide() Side {
	return m.policy().build.Other()
}

// NeedsTailPass reports whether unmatched build rows are appended after the probe
func (m Mode) NeedsTailPass() bool {
	return m.policy().tail
}

// IsCross reports whether the mode ignores key columns
func (m Mode) IsCross() bool {
	return m == ModeCross
}

// EmitsCombos reports whether output rows carry both tables' fields
func (m Mode) EmitsCombos() bool {
	switch m {
	case ModeInner, ModeLeft, ModeRight, ModeFull, ModeCross:
		return true
	default:
		return false
	}
}

// Records reports whether a probe row with the given lookup outcome is captured as a key
func (m Mode) Records(matched bool) bool {
	p := m.policy()
	if matched {
		return p.recordOnHit
	}
	return p.recordOnMiss
}

// OutputWidth returns the number of fields in every output record
func (m Mode) OutputWidth(leftWidth, rightWidth int) int {
	if m.EmitsCombos() {
		return leftWidth + rightWidth
	}
	if m.ProbeSide() == SideLeft {
		return leftWidth
	}
	return rightWidth
}

// Flags mirrors the mutually exclusive mode switches of the join command
type Flags struct {
	Left      bool
	Right     bool
	Full      bool
	Cross     bool
	LeftSemi  bool
	LeftAnti  bool
	RightSemi bool
	RightAnti bool
}

// ModeFromFlags selects the join mode; no flag means inner.
// Setting more than one flag is a usage error.
func ModeFromFlags(f Flags) (Mode, error) {
	candidates := []struct {
		set  bool
		flag string
		mode Mode
	}{
		{f.Left, "--left", ModeLeft},
		{f.Right, "--right", ModeRight},
		{f.Full, "--full", ModeFull},
		{f.Cross, "--cross", ModeCross},
		{f.LeftSemi, "--left-semi", ModeLeftSemi},
		{f.LeftAnti, "--left-anti", ModeLeftAnti},
		{f.RightSemi, "--right-semi", ModeRightSemi},
		{f.RightAnti, "--right-anti", ModeRightAnti},
	}

	mode := ModeInner
	var chosen []string
	for _, c := range candidates {
		if c.set {
			mode = c.mode
			chosen = append(chosen, c.flag)
		}
	}

	if len(chosen) > 1 {
		return ModeInner, errors.NewUsageError("join modes are mutually exclusive, got %s", strings.Join(chosen, ", "))
	}
	return mode, nil
}
