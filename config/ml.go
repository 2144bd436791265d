package config

import (
	"time"

	"diabetesrisk/ml"
)

// Training resolves the trainer and dataset settings. Both share one seed so
// a run is reproducible from the seed alone; seed 0 is replaced by the clock.
func (m MLConfig) Training() (ml.TrainerConfig, ml.DatasetConfig) {
	seed := m.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	trainer := ml.DefaultTrainerConfig()
	trainer.ModelPath = m.ModelPath
	if m.TestRatio > 0 {
		trainer.TestRatio = m.TestRatio
	}
	if m.Trees > 0 {
		trainer.Forest.NumTrees = m.Trees
	}
	trainer.Forest.MaxDepth = m.MaxDepth
	trainer.Forest.Seed = seed

	dataset := ml.DefaultDatasetConfig()
	if m.Samples > 0 {
		dataset.Samples = m.Samples
	}
	dataset.Seed = seed
	return trainer, dataset
}
