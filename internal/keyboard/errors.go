package keyboard

import (
	"errors"
	"fmt"
)

// Sentinel errors for grid, layer and layout operations. Every typed error
// below matches exactly one of them through errors.Is.
var (
	// ErrShapeMismatch indicates a row or column count that differs from the declared dimensions.
	ErrShapeMismatch = errors.New("keyboard: shape mismatch")
	// ErrOutOfBounds indicates a cell index outside the declared grid dimensions.
	ErrOutOfBounds = errors.New("keyboard: index out of bounds")
	// ErrSymmetryViolation indicates a symmetric cell whose mirror is not symmetric.
	ErrSymmetryViolation = errors.New("keyboard: symmetry violation")
	// ErrInvalidToken indicates a malformed textual cell token.
	ErrInvalidToken = errors.New("keyboard: invalid token")
	// ErrLayerIndexOutOfRange indicates a layout position beyond the declared layer count.
	ErrLayerIndexOutOfRange = errors.New("keyboard: layer index out of range")
)

// RowMismatchError reports a row count that differs from the declared row count.
type RowMismatchError struct {
	Expected int
	Actual   int
}

func (e *RowMismatchError) Error() string {
	return fmt.Sprintf("expected %d rows but found %d rows", e.Expected, e.Actual)
}

func (e *RowMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// ColMismatchError reports a row whose length differs from the declared column count.
type ColMismatchError struct {
	Row      int
	Expected int
	Actual   int
}

func (e *ColMismatchError) Error() string {
	return fmt.Sprintf("expected %d columns but found %d columns in row %d", e.Expected, e.Actual, e.Row)
}

func (e *ColMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// OutOfBoundsError reports a (row, col) access outside a rows×cols grid.
type OutOfBoundsError struct {
	Row, Col   int
	Rows, Cols int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("indices (%d, %d) out of bounds for %dx%d grid", e.Row, e.Col, e.Rows, e.Cols)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }

// SymmetryError reports a symmetric cell whose mirror cell is not flagged symmetric.
type SymmetryError struct {
	Layer                int
	Row, Col             int
	MirrorRow, MirrorCol int
}

func (e *SymmetryError) Error() string {
	return fmt.Sprintf(
		"position (%d, %d) on layer %d is marked as symmetric but its corresponding symmetric position (%d, %d) is not",
		e.Row, e.Col, e.Layer, e.MirrorRow, e.MirrorCol,
	)
}

func (e *SymmetryError) Is(target error) bool { return target == ErrSymmetryViolation }

// InvalidTokenError reports a cell token that cannot be parsed.
type InvalidTokenError struct {
	Token  string
	Reason string
}

func (e *InvalidTokenError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%q cannot be parsed into a key", e.Token)
	}
	return fmt.Sprintf("%q cannot be parsed into a key: %s", e.Token, e.Reason)
}

func (e *InvalidTokenError) Is(target error) bool { return target == ErrInvalidToken }

// LayerIndexError reports a layer index outside a layout.
type LayerIndexError struct {
	Index int
	Count int
}

func (e *LayerIndexError) Error() string {
	return fmt.Sprintf("layer index %d out of range for layout with %d layers", e.Index, e.Count)
}

func (e *LayerIndexError) Is(target error) bool { return target == ErrLayerIndexOutOfRange }
