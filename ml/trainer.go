package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TrainerConfig controls a training run.
type TrainerConfig struct {
	ModelPath string
	TestRatio float64
	SplitSeed int64
	Forest    ForestConfig
}

func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		ModelPath: "./models/diabetes_model.json",
		TestRatio: 0.2,
		SplitSeed: 42,
		Forest:    DefaultForestConfig(),
	}
}

// TrainingReport summarizes a finished run.
type TrainingReport struct {
	RunID     string
	ModelName string
	Accuracy  float64
	Precision float64
	Recall    float64
	TrainSize int
	TestSize  int
	TrainedAt time.Time
	Duration  time.Duration
}

// TrainingRecorder stores training reports, typically in the training log table.
type TrainingRecorder interface {
	RecordTraining(ctx context.Context, report TrainingReport) error
}

type Trainer struct {
	config   TrainerConfig
	logger   *zap.Logger
	recorder TrainingRecorder
}

// NewTrainer returns a trainer. recorder may be nil.
func NewTrainer(config TrainerConfig, logger *zap.Logger, recorder TrainingRecorder) *Trainer {
	if config.TestRatio <= 0 || config.TestRatio >= 1 {
		config.TestRatio = 0.2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{config: config, logger: logger, recorder: recorder}
}

func (t *Trainer) ModelPath() string {
	return t.config.ModelPath
}

// Train fits a scaler and a forest on ds, evaluates them on the holdout split
// and persists the pair to the configured model path. Accuracy is reported,
// never enforced.
func (t *Trainer) Train(ctx context.Context, ds Dataset) (*Artifact, TrainingReport, error) {
	if err := ds.Validate(); err != nil {
		return nil, TrainingReport{}, err
	}
	if t.config.ModelPath == "" {
		return nil, TrainingReport{}, errors.New("model path is required")
	}
	start := time.Now()
	t.logger.Info("training diabetes model",
		zap.Int("samples", ds.Len()),
		zap.Int("trees", t.config.Forest.NumTrees))

	trainX, trainY, testX, testY := splitDataset(ds.X, ds.Y, t.config.TestRatio, t.config.SplitSeed)

	scaler := &StandardScaler{}
	scaledTrain, err := scaler.FitTransform(trainX)
	if err != nil {
		return nil, TrainingReport{}, fmt.Errorf("fit scaler: %w", err)
	}
	scaledTest, err := scaler.Transform(testX)
	if err != nil {
		return nil, TrainingReport{}, fmt.Errorf("scale test split: %w", err)
	}

	forest := NewRandomForest(t.config.Forest)
	if err := forest.Fit(scaledTrain, trainY); err != nil {
		return nil, TrainingReport{}, fmt.Errorf("fit forest: %w", err)
	}

	accuracy, precision, recall := evaluateModel(forest, scaledTest, testY)
	report := TrainingReport{
		RunID:     uuid.NewString(),
		ModelName: "random_forest",
		Accuracy:  accuracy,
		Precision: precision,
		Recall:    recall,
		TrainSize: len(trainX),
		TestSize:  len(testX),
		TrainedAt: time.Now().UTC(),
	}
	t.logger.Info("model evaluated",
		zap.String("run_id", report.RunID),
		zap.Float64("accuracy", accuracy),
		zap.Float64("precision", precision),
		zap.Float64("recall", recall))

	artifact := &Artifact{
		RunID:     report.RunID,
		TrainedAt: report.TrainedAt,
		Seed:      t.config.Forest.Seed,
		Accuracy:  accuracy,
		Scaler:    scaler,
		Forest:    forest,
	}
	if err := SaveArtifact(t.config.ModelPath, artifact); err != nil {
		return nil, report, fmt.Errorf("save model: %w", err)
	}
	report.Duration = time.Since(start)
	t.logger.Info("model saved",
		zap.String("path", t.config.ModelPath),
		zap.Duration("duration", report.Duration))

	if t.recorder != nil {
		if err := t.recorder.RecordTraining(ctx, report); err != nil {
			t.logger.Warn("failed to record training run", zap.String("run_id", report.RunID), zap.Error(err))
		}
	}
	return artifact, report, nil
}

// splitDataset shuffles with a fixed seed and holds out ceil(n*testRatio) rows.
func splitDataset(features [][]float64, labels []int, testRatio float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(len(features))

	testSize := int(math.Ceil(float64(len(features)) * testRatio))
	split := len(features) - testSize
	for i, idx := range indices {
		if i < split {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, labels[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, labels[idx])
		}
	}
	return trainX, trainY, testX, testY
}

func evaluateModel(model Classifier, testX [][]float64, testY []int) (accuracy, precision, recall float64) {
	if len(testX) == 0 {
		return 0, 0, 0
	}

	var correct int
	var truePositive int
	var predictedPositive int
	var actualPositive int

	for i, feature := range testX {
		p, err := model.PredictProba(feature)
		if err != nil {
			continue
		}
		label := labelFor(p)
		if label == testY[i] {
			correct++
		}
		if label == 1 {
			predictedPositive++
		}
		if testY[i] == 1 {
			actualPositive++
			if label == 1 {
				truePositive++
			}
		}
	}

	accuracy = float64(correct) / float64(len(testX))
	if predictedPositive > 0 {
		precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		recall = float64(truePositive) / float64(actualPositive)
	}
	return accuracy, precision, recall
}
