// Package batch partitions a feature matrix and its labels into shuffled
// mini-batches for iterative training loops.
package batch

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Tail selects how the rows past the last full batch are emitted.
type Tail int

const (
	// TailLoop slices rows/batchSize+1 consecutive windows and then appends
	// the remainder window when rows is not a multiple of batchSize. Exact
	// multiples end with an empty batch; otherwise the remainder is emitted
	// twice.
	TailLoop Tail = iota
	// TailExact emits every row exactly once and never an empty batch.
	TailExact
)

func (t Tail) String() string {
	switch t {
	case TailLoop:
		return "loop"
	case TailExact:
		return "exact"
	default:
		return "unknown"
	}
}

// Options tunes CreateMiniBatches.
type Options struct {
	// Rand drives the row shuffle. Nil uses the global math/rand source.
	Rand *rand.Rand
	Tail Tail
}

// MiniBatch is one contiguous row range of the shuffled data.
type MiniBatch struct {
	// Features is nil when the batch holds no rows.
	Features *mat.Dense
	// Labels holds nOutputs values per row, row-major.
	Labels []float64
}

// Len returns the number of rows in the batch.
func (b MiniBatch) Len() int {
	if b.Features == nil {
		return 0
	}
	r, _ := b.Features.Dims()
	return r
}

// Empty reports whether the batch holds no rows.
func (b MiniBatch) Empty() bool { return b.Features == nil }

// CreateMiniBatches reshapes x to (-1, nInputs) and y to (-1, nOutputs), joins
// them column-wise, shuffles the rows and slices them into batches of
// batchSize rows. The caller's slices are left untouched and every returned
// batch owns its memory.
func CreateMiniBatches(x, y []float64, batchSize, nInputs, nOutputs int, opts Options) ([]MiniBatch, error) {
	if nInputs <= 0 || nOutputs <= 0 {
		return nil, ErrDimension
	}
	if batchSize <= 0 {
		return nil, ErrBatchSize
	}
	if len(x)%nInputs != 0 {
		return nil, &ShapeError{Operand: "x", Elements: len(x), Cols: nInputs}
	}
	if len(y)%nOutputs != 0 {
		return nil, &ShapeError{Operand: "y", Elements: len(y), Cols: nOutputs}
	}
	rows := len(x) / nInputs
	if yRows := len(y) / nOutputs; yRows != rows {
		return nil, &ShapeError{Operand: "y", Elements: len(y), Cols: nOutputs, Mismatch: true, Rows: yRows, WantRows: rows}
	}

	spans := windows(rows, batchSize, opts.Tail)
	out := make([]MiniBatch, 0, len(spans))
	if rows == 0 {
		// gonum has no zero-row matrix; every window is empty.
		for range spans {
			out = append(out, MiniBatch{})
		}
		return out, nil
	}

	data := stack(x, y, rows, nInputs, nOutputs)
	shuffleRows(data, opts.Rand)
	for _, w := range spans {
		out = append(out, slice(data, w[0], w[1], nInputs))
	}
	return out, nil
}

// Count returns how many batches CreateMiniBatches produces for rows rows.
func Count(rows, batchSize int, tail Tail) int {
	if batchSize <= 0 || rows < 0 {
		return 0
	}
	return len(windows(rows, batchSize, tail))
}

func windows(rows, batchSize int, tail Tail) [][2]int {
	full := rows / batchSize
	if tail == TailExact {
		out := make([][2]int, 0, full+1)
		for lo := 0; lo < rows; lo += batchSize {
			out = append(out, [2]int{lo, min(lo+batchSize, rows)})
		}
		return out
	}
	out := make([][2]int, 0, full+2)
	for i := 0; i <= full; i++ {
		out = append(out, [2]int{min(i*batchSize, rows), min((i+1)*batchSize, rows)})
	}
	if rows%batchSize != 0 {
		out = append(out, [2]int{full * batchSize, rows})
	}
	return out
}

func stack(x, y []float64, rows, nInputs, nOutputs int) *mat.Dense {
	cols := nInputs + nOutputs
	raw := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		raw = append(raw, x[r*nInputs:(r+1)*nInputs]...)
		raw = append(raw, y[r*nOutputs:(r+1)*nOutputs]...)
	}
	return mat.NewDense(rows, cols, raw)
}

func shuffleRows(m *mat.Dense, rng *rand.Rand) {
	rows, cols := m.Dims()
	tmp := make([]float64, cols)
	swap := func(i, j int) {
		ri, rj := m.RawRowView(i), m.RawRowView(j)
		copy(tmp, ri)
		copy(ri, rj)
		copy(rj, tmp)
	}
	if rng != nil {
		rng.Shuffle(rows, swap)
		return
	}
	rand.Shuffle(rows, swap)
}

func slice(m *mat.Dense, lo, hi, nInputs int) MiniBatch {
	if hi <= lo {
		return MiniBatch{}
	}
	_, cols := m.Dims()
	features := mat.DenseCopyOf(m.Slice(lo, hi, 0, nInputs))
	labels := make([]float64, 0, (hi-lo)*(cols-nInputs))
	for r := lo; r < hi; r++ {
		labels = append(labels, m.RawRowView(r)[nInputs:]...)
	}
	return MiniBatch{Features: features, Labels: labels}
}
