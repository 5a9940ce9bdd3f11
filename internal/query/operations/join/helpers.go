package join

import (
	"github.com/leengari/tabular/internal/domain/data"
	"github.com/leengari/tabular/internal/domain/errors"
	"github.com/leengari/tabular/internal/domain/schema"
)

// ValidateKeySpecs checks the raw key column specs against the mode before any input is read.
// Cross requires both specs to be empty; every other mode requires two non-empty specs of equal length.
func ValidateKeySpecs(mode Mode, leftSpec, rightSpec string) error {
	leftN := schema.CountTokens(leftSpec)
	rightN := schema.CountTokens(rightSpec)

	if mode.IsCross() {
		if leftN != 0 || rightN != 0 {
			return errors.NewUsageError("--cross requires both key column specs to be empty")
		}
		return nil
	}

	if leftN == 0 {
		return errors.NewMissingKeySpec(SideLeft.String())
	}
	if rightN == 0 {
		return errors.NewMissingKeySpec(SideRight.String())
	}
	if leftN != rightN {
		return errors.NewUsageError("key column specs must name the same number of columns (left %d, right %d)", leftN, rightN)
	}
	return nil
}

// BuildHeader constructs the output header from the two input headers.
// Returns nil when headers are disabled.
func BuildHeader(mode Mode, leftHeader, rightHeader data.Row, leftWidth, rightWidth int) data.Row {
	if leftHeader == nil && rightHeader == nil {
		return nil
	}
	if mode.EmitsCombos() {
		return data.Combine(leftHeader, leftWidth, rightHeader, rightWidth)
	}
	streamed := rightHeader
	if mode.ProbeSide() == SideLeft {
		streamed = leftHeader
	}
	if streamed == nil {
		return nil
	}
	return streamed.Copy()
}

// layout carries the table widths and roles needed to shape output rows
type layout struct {
	probeSide  Side
	leftWidth  int
	rightWidth int
}

// combine places the probe and build rows on their own sides.
// A nil row is padded with empty fields.
func (l layout) combine(probe, build data.Row) data.Row {
	if l.probeSide == SideLeft {
		return data.Combine(probe, l.leftWidth, build, l.rightWidth)
	}
	return data.Combine(build, l.leftWidth, probe, l.rightWidth)
}

// emit applies the mode's per-row rule to one streamed row and appends the result to dst.
// matches holds the build row positions sharing the probe row's key, in build order.
func (p policy) emit(dst []data.Row, l layout, probe data.Row, matches []int, build []data.Row) []data.Row {
	rule := p.onMiss
	if len(matches) > 0 {
		rule = p.onMatch
	}

	switch rule {
	case emitCombos:
		for _, pos := range matches {
			dst = append(dst, l.combine(probe, build[pos]))
		}
	case emitPadded:
		dst = append(dst, l.combine(probe, nil))
	case emitStreamed:
		dst = append(dst, probe)
	}
	return dst
}
