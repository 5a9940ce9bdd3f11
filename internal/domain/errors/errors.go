package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies a join failure
type Kind string

const (
	KindUsage          Kind = "usage"            // conflicting or missing flags, bad arity
	KindMissingKeySpec Kind = "missing_key_spec" // empty key spec outside cross mode
	KindInvalidColumn  Kind = "invalid_column"   // unknown header name or out-of-range index
	KindIO             Kind = "io"               // unreadable input, unwritable output
	KindParse          Kind = "parse"            // malformed row
)

// JoinError represents a structural or configuration failure of a join run.
// None of these are transient, so callers never retry.
type JoinError struct {
	Kind   Kind   // failure class
	Side   string // "left", "right", "output", "keys-output" (empty if not side-specific)
	Path   string // file involved (empty if none)
	Column string // offending column token (InvalidColumn only)
	Row    int    // 1-based record number in the source (-1 if unknown)
	Reason string // human-readable explanation
	Err    error  // underlying cause (may be nil)
}

func (e *JoinError) Error() string {
	var parts []string

	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}

	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column %q", e.Column))
	}

	if e.Side != "" && e.Path != "" {
		parts = append(parts, fmt.Sprintf("%s input %s", e.Side, e.Path))
	} else if e.Side != "" {
		parts = append(parts, e.Side)
	} else if e.Path != "" {
		parts = append(parts, e.Path)
	}

	if e.Row > 0 {
		parts = append(parts, fmt.Sprintf("record %d", e.Row))
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *JoinError) Unwrap() error {
	return e.Err
}

func NewUsageError(format string, args ...any) *JoinError {
	return &JoinError{
		Kind:   KindUsage,
		Reason: fmt.Sprintf(format, args...),
		Row:    -1,
	}
}

func NewMissingKeySpec(side string) *JoinError {
	return &JoinError{
		Kind:   KindMissingKeySpec,
		Side:   side,
		Reason: "empty key column spec (only allowed with --cross)",
		Row:    -1,
	}
}

func NewInvalidColumn(side, column, reason string) *JoinError {
	return &JoinError{
		Kind:   KindInvalidColumn,
		Side:   side,
		Column: column,
		Reason: reason,
		Row:    -1,
	}
}

func NewIOError(side, path string, err error) *JoinError {
	return &JoinError{
		Kind:   KindIO,
		Side:   side,
		Path:   path,
		Reason: "i/o failure",
		Row:    -1,
		Err:    err,
	}
}

func NewParseError(side, path string, row int, err error) *JoinError {
	return &JoinError{
		Kind:   KindParse,
		Side:   side,
		Path:   path,
		Reason: "malformed row",
		Row:    row,
		Err:    err,
	}
}

// KindOf returns the Kind of the first JoinError in err's chain, or "" if there is none
func KindOf(err error) Kind {
	var je *JoinError
	if stderrors.As(err, &je) {
		return je.Kind
	}
	return ""
}

// Is reports whether err carries a JoinError of the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps an error to the process exit status.
// Configuration-type failures exit with 2, everything else with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindUsage, KindMissingKeySpec, KindInvalidColumn:
		return 2
	default:
		return 1
	}
}
