package batch

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrBatchSize is returned when the requested batch size is not positive.
	ErrBatchSize = errors.New("batch: batch size must be > 0")
	// ErrDimension is returned when n_inputs or n_outputs is not positive.
	ErrDimension = errors.New("batch: input and output widths must be > 0")
)

// ShapeError reports an operand that cannot be reshaped to the declared
// width, or features and labels whose row counts disagree after reshaping.
// It unwraps to mat.ErrShape.
type ShapeError struct {
	Operand  string
	Elements int
	Cols     int

	// Set when both operands reshape cleanly but describe different row counts.
	Mismatch bool
	Rows     int
	WantRows int
}

func (e *ShapeError) Error() string {
	if e.Mismatch {
		return fmt.Sprintf("batch: %s has %d rows, want %d", e.Operand, e.Rows, e.WantRows)
	}
	return fmt.Sprintf("batch: cannot reshape %s of %d elements into (-1, %d)", e.Operand, e.Elements, e.Cols)
}

func (e *ShapeError) Unwrap() error { return mat.ErrShape }
