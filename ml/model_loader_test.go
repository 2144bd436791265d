package ml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
)

func newTestHolder(t *testing.T, path string) *ModelHolder {
	t.Helper()
	config := DefaultTrainerConfig()
	config.ModelPath = path
	config.Forest.NumTrees = 5
	logger := zaptest.NewLogger(t)
	return NewModelHolder(NewTrainer(config, logger, nil), DatasetConfig{Samples: 200, Seed: 42}, logger)
}

func TestModelHolderTrainsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	holder := newTestHolder(t, path)
	if holder.Current() != nil {
		t.Fatal("expected no artifact before load")
	}

	trained, err := holder.LoadOrTrain(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if holder.Current() != trained {
		t.Fatal("expected trained artifact to become current")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected artifact on disk: %v", err)
	}

	second := newTestHolder(t, path)
	loaded, err := second.LoadOrTrain(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.RunID != trained.RunID {
		t.Fatalf("expected persisted run %s to be loaded, got %s", trained.RunID, loaded.RunID)
	}
}

func TestModelHolderRejectsCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte("corrupt"), 0o600); err != nil {
		t.Fatal(err)
	}
	holder := newTestHolder(t, path)
	if _, err := holder.LoadOrTrain(context.Background()); err == nil {
		t.Fatal("expected error for corrupt artifact")
	}
	if holder.Current() != nil {
		t.Fatal("expected no artifact after failed load")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "corrupt" {
		t.Fatal("expected corrupt artifact to be left untouched")
	}
}

func TestModelHolderRetrainSwapsCurrent(t *testing.T) {
	holder := newTestHolder(t, filepath.Join(t.TempDir(), "model.json"))
	first, err := holder.LoadOrTrain(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := holder.Retrain(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.RunID == first.RunID {
		t.Fatal("expected a new run id after retraining")
	}
	if holder.Current() != second {
		t.Fatal("expected retrained artifact to become current")
	}

	row := []float64{2, 150, 70, 30, 100, 36, 0.6, 45}
	a := NewPredictor(first, zaptest.NewLogger(t)).Predict(row)
	b := holder.Predictor().Predict(row)
	if a.Label != b.Label || a.Probability != b.Probability {
		t.Fatalf("expected same seed to reproduce the model, got %+v and %+v", a, b)
	}
}
