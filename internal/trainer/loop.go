package trainer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"minibatch/internal/batch"
	"minibatch/internal/dataset"
	"minibatch/internal/metrics"
	"minibatch/internal/model"
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Epochs    int
	BatchSize int
	LogEvery  int
	// Seed drives the per-epoch shuffle. Zero shuffles with the global
	// math/rand source.
	Seed int64
	Tail batch.Tail
}

// Result summarizes a finished run.
type Result struct {
	Epochs    int
	Steps     int
	Skipped   int
	FinalLoss float64
	Accuracy  float64
}

type scorer interface {
	Accuracy(features *mat.Dense, labels []float64) float64
}

// Run trains mdl on ds for cfg.Epochs passes, re-partitioning the data into
// shuffled mini-batches at the start of every epoch.
func Run(ctx context.Context, cfg RunConfig, ds *dataset.Dataset, mdl model.Model, logger *zap.Logger) (Result, error) {
	if cfg.Epochs <= 0 {
		return Result{}, errors.New("trainer: epochs must be > 0")
	}
	if cfg.BatchSize <= 0 {
		return Result{}, errors.New("trainer: batch size must be > 0")
	}
	if ds == nil || ds.Rows == 0 {
		return Result{}, errors.New("trainer: dataset is empty")
	}
	if mdl == nil {
		return Result{}, errors.New("trainer: model is nil")
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := batch.Options{Tail: cfg.Tail}
	if cfg.Seed != 0 {
		opts.Rand = rand.New(rand.NewSource(cfg.Seed))
	}

	logger.Info("training started",
		zap.Int("rows", ds.Rows),
		zap.Int("n_inputs", ds.NInputs),
		zap.Int("n_outputs", ds.NOutputs),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int("batches_per_epoch", batch.Count(ds.Rows, cfg.BatchSize, cfg.Tail)),
		zap.Stringer("tail", cfg.Tail),
	)

	var (
		res    Result
		window metrics.Window
	)
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		startData := time.Now()
		batches, err := batch.CreateMiniBatches(ds.X, ds.Y, cfg.BatchSize, ds.NInputs, ds.NOutputs, opts)
		if err != nil {
			return res, fmt.Errorf("trainer: epoch %d: %w", epoch, err)
		}
		dataTime := time.Since(startData) / time.Duration(len(batches))

		for _, b := range batches {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if b.Empty() {
				res.Skipped++
				logger.Debug("skipping empty batch", zap.Int("epoch", epoch))
				continue
			}

			startCompute := time.Now()
			loss := mdl.TrainStep(b)
			computeTime := time.Since(startCompute)

			res.Steps++
			res.FinalLoss = loss
			window.Record(b.Len(), dataTime, computeTime, loss)

			if res.Steps%cfg.LogEvery == 0 {
				snap := window.Snapshot()
				logger.Info("step",
					zap.Int("step", res.Steps),
					zap.Int("epoch", epoch),
					zap.Float64("samples_per_sec", snap.SamplesPerSec),
					zap.Float64("data_ms", snap.AvgDataMS),
					zap.Float64("compute_ms", snap.AvgComputeMS),
					zap.Float64("avg_loss", snap.AvgLoss),
					zap.Float64("loss", snap.LastLoss),
				)
			}
		}
		res.Epochs = epoch
	}

	if s, ok := mdl.(scorer); ok {
		features := mat.NewDense(ds.Rows, ds.NInputs, ds.X)
		res.Accuracy = s.Accuracy(features, ds.Y)
	}
	logger.Info("training finished",
		zap.Int("epochs", res.Epochs),
		zap.Int("steps", res.Steps),
		zap.Int("skipped", res.Skipped),
		zap.Float64("loss", res.FinalLoss),
		zap.Float64("accuracy", res.Accuracy),
	)
	return res, nil
}
