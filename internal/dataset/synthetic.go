package dataset

import "math/rand"

// Synthetic returns rows samples drawn from classes Gaussian blobs in nInputs
// dimensions, one integer class label per row. Blob centers sit on the axes
// so the classes are linearly separable.
func Synthetic(rows, nInputs, classes int, rng *rand.Rand) *Dataset {
	if nInputs <= 0 {
		nInputs = 2
	}
	if classes <= 0 {
		classes = 2
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(42))
	}
	ds := &Dataset{
		X:        make([]float64, 0, rows*nInputs),
		Y:        make([]float64, 0, rows),
		NInputs:  nInputs,
		NOutputs: 1,
		Rows:     rows,
	}
	for r := 0; r < rows; r++ {
		class := r % classes
		for c := 0; c < nInputs; c++ {
			center := 0.0
			if c == class%nInputs {
				center = 3 * float64(1+class/nInputs)
			}
			ds.X = append(ds.X, center+rng.NormFloat64()*0.3)
		}
		ds.Y = append(ds.Y, float64(class))
	}
	return ds
}
