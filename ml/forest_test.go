package ml

import (
	"errors"
	"math/rand"
	"testing"
)

func separableDataset(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	features := make([][]float64, n)
	labels := make([]int, n)
	for i := range features {
		label := i % 2
		offset := -2.0
		if label == 1 {
			offset = 2.0
		}
		features[i] = []float64{offset + rng.NormFloat64()*0.3, rng.NormFloat64(), offset + rng.NormFloat64()*0.3}
		labels[i] = label
	}
	return features, labels
}

func TestRandomForestFitPredict(t *testing.T) {
	features, labels := separableDataset(200, 1)
	forest := NewRandomForest(ForestConfig{NumTrees: 15, Seed: 3})
	if err := forest.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forest.Trees) != 15 {
		t.Fatalf("expected 15 trees, got %d", len(forest.Trees))
	}

	testX, testY := separableDataset(100, 2)
	accuracy, precision, recall := evaluateModel(forest, testX, testY)
	if accuracy < 0.95 {
		t.Fatalf("expected accuracy >= 0.95 on separable data, got %f", accuracy)
	}
	if precision == 0 || recall == 0 {
		t.Fatalf("expected non-zero precision and recall, got %f %f", precision, recall)
	}

	label, probability, err := forest.Predict([]float64{2, 0, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 || probability <= 0.5 {
		t.Fatalf("expected positive prediction, got label %d probability %f", label, probability)
	}
}

func TestRandomForestDeterministicForSeed(t *testing.T) {
	features, labels := separableDataset(80, 4)
	a := NewRandomForest(ForestConfig{NumTrees: 5, Seed: 11})
	b := NewRandomForest(ForestConfig{NumTrees: 5, Seed: 11})
	if err := a.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range features {
		pa, _ := a.PredictProba(row)
		pb, _ := b.PredictProba(row)
		if pa != pb {
			t.Fatalf("expected identical probabilities, got %f and %f", pa, pb)
		}
	}
}

func TestRandomForestPredictErrors(t *testing.T) {
	var empty *RandomForest
	if _, err := empty.PredictProba([]float64{1}); !errors.Is(err, ErrNotTrained) {
		t.Fatalf("expected ErrNotTrained, got %v", err)
	}

	features, labels := separableDataset(20, 5)
	forest := NewRandomForest(ForestConfig{NumTrees: 2, Seed: 1})
	if err := forest.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := forest.PredictProba([]float64{1, 2}); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v", err)
	}
}
