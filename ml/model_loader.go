package ml

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ModelHolder owns the process-wide artifact. It is set once by LoadOrTrain
// and replaced only by Retrain; readers take the current pointer without
// locking.
type ModelHolder struct {
	current atomic.Pointer[Artifact]
	trainMu sync.Mutex

	trainer *Trainer
	dataset DatasetConfig
	logger  *zap.Logger
}

func NewModelHolder(trainer *Trainer, dataset DatasetConfig, logger *zap.Logger) *ModelHolder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelHolder{trainer: trainer, dataset: dataset, logger: logger}
}

// LoadOrTrain loads the artifact from the trainer's model path. When no
// artifact exists yet a fresh one is trained on synthetic data. A present but
// unreadable artifact is an error.
func (h *ModelHolder) LoadOrTrain(ctx context.Context) (*Artifact, error) {
	path := h.trainer.ModelPath()
	artifact, err := LoadArtifact(path)
	switch {
	case err == nil:
		h.current.Store(artifact)
		h.logger.Info("model loaded",
			zap.String("path", path),
			zap.String("run_id", artifact.RunID),
			zap.Float64("accuracy", artifact.Accuracy))
		return artifact, nil
	case errors.Is(err, fs.ErrNotExist):
		h.logger.Info("no model artifact found, training a new one", zap.String("path", path))
		return h.Retrain(ctx)
	default:
		return nil, err
	}
}

// Retrain generates a dataset, trains, persists and swaps in the new artifact.
func (h *ModelHolder) Retrain(ctx context.Context) (*Artifact, error) {
	h.trainMu.Lock()
	defer h.trainMu.Unlock()

	artifact, _, err := h.trainer.Train(ctx, GenerateDataset(h.dataset))
	if err != nil {
		return nil, err
	}
	h.current.Store(artifact)
	return artifact, nil
}

// Current returns the active artifact, or nil before LoadOrTrain.
func (h *ModelHolder) Current() *Artifact {
	return h.current.Load()
}

// Predictor returns a predictor bound to the active artifact.
func (h *ModelHolder) Predictor() *Predictor {
	return NewPredictor(h.Current(), h.logger)
}
