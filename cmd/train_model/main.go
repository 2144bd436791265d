package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"diabetesrisk/config"
	"diabetesrisk/db"
	"diabetesrisk/logging"
	"diabetesrisk/ml"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	modelPath := flag.String("model_path", "", "model output path (overrides config)")
	seed := flag.Int64("seed", -1, "random seed, 0 for a time based seed (overrides config)")
	samples := flag.Int("samples", 0, "synthetic samples (overrides config)")
	trees := flag.Int("trees", 0, "number of trees (overrides config)")
	maxDepth := flag.Int("max_depth", -1, "max tree depth, 0 for unlimited (overrides config)")
	testRatio := flag.Float64("test_ratio", 0, "test ratio (overrides config)")
	record := flag.Bool("record", true, "append the run to the training log")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Log.File = ""
	cfg.Log.Console = true
	logger, _, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *modelPath != "" {
		cfg.ML.ModelPath = *modelPath
	}
	if *seed >= 0 {
		cfg.ML.Seed = *seed
	}
	if *samples > 0 {
		cfg.ML.Samples = *samples
	}
	if *trees > 0 {
		cfg.ML.Trees = *trees
	}
	if *maxDepth >= 0 {
		cfg.ML.MaxDepth = *maxDepth
	}
	if *testRatio > 0 {
		cfg.ML.TestRatio = *testRatio
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid training settings", zap.Error(err))
	}

	ctx := context.Background()
	var recorder ml.TrainingRecorder
	if *record {
		store, err := db.Open(ctx, cfg.Database.Path, logger)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer store.Close()
		recorder = store
	}

	trainerConfig, datasetConfig := cfg.ML.Training()
	trainer := ml.NewTrainer(trainerConfig, logger, recorder)
	_, report, err := trainer.Train(ctx, ml.GenerateDataset(datasetConfig))
	if err != nil {
		logger.Fatal("failed to train model", zap.Error(err))
	}

	fmt.Printf("accuracy=%.2f precision=%.2f recall=%.2f seed=%d\n", report.Accuracy, report.Precision, report.Recall, datasetConfig.Seed)
	fmt.Printf("model saved to %s\n", trainerConfig.ModelPath)
}
