package model

import "minibatch/internal/batch"

// Model defines the minimal training functionality required by the trainer.
type Model interface {
	TrainStep(b batch.MiniBatch) float64
}
