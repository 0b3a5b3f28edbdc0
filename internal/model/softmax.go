package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"minibatch/internal/batch"
)

// Softmax is a linear classifier trained with softmax cross-entropy. Labels
// are class indices carried as float64 in the first label column.
type Softmax struct {
	numClasses int
	inputSize  int
	labelWidth int
	weights    *mat.Dense
	bias       *mat.VecDense
	lr         float64
}

// NewSoftmax constructs the model with small random weights. labelWidth is
// the number of label values per row in the batches it will see.
func NewSoftmax(numClasses, inputSize, labelWidth int, lr float64, seed int64) *Softmax {
	if numClasses <= 1 {
		numClasses = 2
	}
	if inputSize <= 0 {
		inputSize = 1
	}
	if labelWidth <= 0 {
		labelWidth = 1
	}
	if lr <= 0 {
		lr = 0.01
	}
	rng := rand.New(rand.NewSource(seed))
	raw := make([]float64, numClasses*inputSize)
	for i := range raw {
		raw[i] = (rng.Float64()*2 - 1) * 0.01
	}
	return &Softmax{
		numClasses: numClasses,
		inputSize:  inputSize,
		labelWidth: labelWidth,
		weights:    mat.NewDense(numClasses, inputSize, raw),
		bias:       mat.NewVecDense(numClasses, nil),
		lr:         lr,
	}
}

// TrainStep executes one SGD pass over the batch and returns average loss.
func (m *Softmax) TrainStep(b batch.MiniBatch) float64 {
	rows := b.Len()
	if rows == 0 {
		return 0
	}
	if _, cols := b.Features.Dims(); cols != m.inputSize {
		return 0
	}
	totalLoss := 0.0
	for r := 0; r < rows; r++ {
		input := b.Features.RawRowView(r)
		label := m.classOf(b.Labels[r*m.labelWidth])
		probs := softmax(m.logits(input))
		totalLoss += -math.Log(math.Max(probs[label], 1e-9))

		probs[label] -= 1
		for c := 0; c < m.numClasses; c++ {
			grad := probs[c]
			m.bias.SetVec(c, m.bias.AtVec(c)-m.lr*grad)
			row := m.weights.RawRowView(c)
			for j := range row {
				row[j] -= m.lr * grad * input[j]
			}
		}
	}
	return totalLoss / float64(rows)
}

// Predict returns the most likely class for one feature row.
func (m *Softmax) Predict(input []float64) int {
	logits := m.logits(input)
	best := 0
	for c, v := range logits {
		if v > logits[best] {
			best = c
		}
	}
	return best
}

// Accuracy returns the share of rows in features whose prediction matches
// labels, read with the model's label width.
func (m *Softmax) Accuracy(features *mat.Dense, labels []float64) float64 {
	if features == nil {
		return 0
	}
	rows, _ := features.Dims()
	correct := 0
	for r := 0; r < rows; r++ {
		if m.Predict(features.RawRowView(r)) == m.classOf(labels[r*m.labelWidth]) {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}

func (m *Softmax) logits(input []float64) []float64 {
	var out mat.VecDense
	out.MulVec(m.weights, mat.NewVecDense(len(input), input))
	out.AddVec(&out, m.bias)
	return out.RawVector().Data
}

func (m *Softmax) classOf(v float64) int {
	label := int(math.Round(v)) % m.numClasses
	if label < 0 {
		label += m.numClasses
	}
	return label
}

func softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, v := range logits {
		if v > maxLogit {
			maxLogit = v
		}
	}
	sum := 0.0
	out := make([]float64, len(logits))
	for i, v := range logits {
		exp := math.Exp(v - maxLogit)
		out[i] = exp
		sum += exp
	}
	inv := 1.0 / sum
	for i := range out {
		out[i] *= inv
	}
	return out
}
