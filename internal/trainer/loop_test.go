package trainer

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"minibatch/internal/batch"
	"minibatch/internal/dataset"
	"minibatch/internal/model"
)

type countingModel struct {
	rows  []int
	calls int
}

func (m *countingModel) TrainStep(b batch.MiniBatch) float64 {
	m.calls++
	m.rows = append(m.rows, b.Len())
	return 1
}

func TestRunSkipsTrailingEmptyBatch(t *testing.T) {
	ds := dataset.Synthetic(10, 2, 2, rand.New(rand.NewSource(1)))
	mdl := &countingModel{}

	res, err := Run(context.Background(), RunConfig{Epochs: 2, BatchSize: 5, Seed: 3}, ds, mdl, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Epochs)
	assert.Equal(t, 4, res.Steps)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, []int{5, 5, 5, 5}, mdl.rows)
}

func TestRunExactTail(t *testing.T) {
	ds := dataset.Synthetic(11, 2, 2, nil)
	mdl := &countingModel{}

	res, err := Run(context.Background(), RunConfig{Epochs: 1, BatchSize: 5, Seed: 3, Tail: batch.TailExact}, ds, mdl, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Steps)
	assert.Zero(t, res.Skipped)
	assert.Equal(t, []int{5, 5, 1}, mdl.rows)
}

func TestRunLearnsSyntheticBlobs(t *testing.T) {
	ds := dataset.Synthetic(200, 3, 3, rand.New(rand.NewSource(5)))
	mdl := model.NewSoftmax(3, 3, 1, 0.1, 5)

	core, logs := observer.New(zap.InfoLevel)
	res, err := Run(context.Background(), RunConfig{Epochs: 20, BatchSize: 16, LogEvery: 10, Seed: 9, Tail: batch.TailExact}, ds, mdl, zap.New(core))
	require.NoError(t, err)

	assert.Greater(t, res.Accuracy, 0.9)
	assert.NotZero(t, logs.FilterMessage("step").Len())
	assert.Equal(t, 1, logs.FilterMessage("training finished").Len())
}

func TestRunHonorsCancellation(t *testing.T) {
	ds := dataset.Synthetic(20, 2, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, RunConfig{Epochs: 1, BatchSize: 4}, ds, &countingModel{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunValidation(t *testing.T) {
	ds := dataset.Synthetic(4, 2, 2, nil)
	ctx := context.Background()

	_, err := Run(ctx, RunConfig{Epochs: 0, BatchSize: 2}, ds, &countingModel{}, nil)
	assert.Error(t, err)
	_, err = Run(ctx, RunConfig{Epochs: 1, BatchSize: 0}, ds, &countingModel{}, nil)
	assert.Error(t, err)
	_, err = Run(ctx, RunConfig{Epochs: 1, BatchSize: 2}, &dataset.Dataset{}, &countingModel{}, nil)
	assert.Error(t, err)
	_, err = Run(ctx, RunConfig{Epochs: 1, BatchSize: 2}, ds, nil, nil)
	assert.Error(t, err)
}

func TestRunPropagatesShapeErrors(t *testing.T) {
	ds := &dataset.Dataset{X: []float64{1, 2, 3}, Y: []float64{0}, NInputs: 2, NOutputs: 1, Rows: 1}
	_, err := Run(context.Background(), RunConfig{Epochs: 1, BatchSize: 1}, ds, &countingModel{}, nil)

	var shapeErr *batch.ShapeError
	assert.ErrorAs(t, err, &shapeErr)
}
