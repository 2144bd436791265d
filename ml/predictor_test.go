package ml

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap/zaptest"
)

func identityScaler() *StandardScaler {
	mean := make([]float64, FeatureCount)
	scale := make([]float64, FeatureCount)
	for i := range scale {
		scale[i] = 1
	}
	return &StandardScaler{Mean: mean, Scale: scale}
}

func leafTree(probability float64) *DecisionTree {
	return &DecisionTree{Nodes: []TreeNode{{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Probability: probability, IsLeaf: true}}}
}

func handmadeArtifact(probabilities ...float64) *Artifact {
	trees := make([]*DecisionTree, len(probabilities))
	for i, p := range probabilities {
		trees[i] = leafTree(p)
	}
	return &Artifact{
		RunID:  "handmade",
		Scaler: identityScaler(),
		Forest: &RandomForest{Trees: trees, NumFeatures: FeatureCount},
	}
}

func TestPredictorLowConfidenceIsNotFallback(t *testing.T) {
	features := []float64{1, 100, 70, 20, 80, 30, 0.5, 40}

	tests := []struct {
		name          string
		probabilities []float64
		wantLabel     int
	}{
		{name: "even split", probabilities: []float64{0.4, 0.6}, wantLabel: 0},
		{name: "barely positive", probabilities: []float64{0.5, 0.52}, wantLabel: 1},
		{name: "confident negative", probabilities: []float64{0, 0.1}, wantLabel: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewPredictor(handmadeArtifact(tt.probabilities...), zaptest.NewLogger(t)).Predict(features)
			if result.Fallback || result.Err != nil {
				t.Fatalf("expected a real prediction, got %+v", result)
			}
			if result.Label != tt.wantLabel {
				t.Fatalf("expected label %d, got %d", tt.wantLabel, result.Label)
			}
		})
	}
}

func TestPredictorFallback(t *testing.T) {
	valid := []float64{1, 100, 70, 20, 80, 30, 0.5, 40}
	corruptTree := &DecisionTree{Nodes: []TreeNode{{FeatureIdx: 0, LeftChild: 7, RightChild: 9}}}
	corrupted := handmadeArtifact(0.9)
	corrupted.Forest.Trees = append(corrupted.Forest.Trees, corruptTree)

	tests := []struct {
		name     string
		artifact *Artifact
		features []float64
		wantErr  error
	}{
		{name: "no artifact", artifact: nil, features: valid, wantErr: ErrNotTrained},
		{name: "no scaler", artifact: &Artifact{Forest: handmadeArtifact(1).Forest}, features: valid, wantErr: ErrNotTrained},
		{name: "no forest", artifact: &Artifact{Scaler: identityScaler()}, features: valid, wantErr: ErrNotTrained},
		{name: "short vector", artifact: handmadeArtifact(1), features: valid[:5], wantErr: ErrDimension},
		{name: "long vector", artifact: handmadeArtifact(1), features: append(append([]float64{}, valid...), 1), wantErr: ErrDimension},
		{name: "mismatched forest", artifact: &Artifact{Scaler: identityScaler(), Forest: &RandomForest{Trees: []*DecisionTree{leafTree(1)}, NumFeatures: 3}}, features: valid, wantErr: ErrDimension},
		{name: "not finite", artifact: handmadeArtifact(1), features: []float64{1, math.Inf(1), 70, 20, 80, 30, 0.5, 40}},
		{name: "corrupt tree", artifact: corrupted, features: valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewPredictor(tt.artifact, zaptest.NewLogger(t)).Predict(tt.features)
			if !result.Fallback {
				t.Fatalf("expected fallback, got %+v", result)
			}
			if result.Label != FallbackLabel {
				t.Fatalf("expected fallback label %d, got %d", FallbackLabel, result.Label)
			}
			if result.Err == nil {
				t.Fatal("expected fallback to carry its cause")
			}
			if tt.wantErr != nil && !errors.Is(result.Err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, result.Err)
			}
		})
	}
}

func TestPredictorDetectsTreeCycle(t *testing.T) {
	artifact := handmadeArtifact(1)
	artifact.Forest.Trees[0] = &DecisionTree{Nodes: []TreeNode{{FeatureIdx: 0, Threshold: math.NaN(), LeftChild: 0, RightChild: 0}}}
	result := NewPredictor(artifact, zaptest.NewLogger(t)).Predict([]float64{1, 1, 1, 1, 1, 1, 1, 1})
	if !result.Fallback {
		t.Fatalf("expected fallback, got %+v", result)
	}
}

func TestPredictorTrainedModel(t *testing.T) {
	artifact, _ := trainTestArtifact(t, 10)
	predictor := NewPredictor(artifact, zaptest.NewLogger(t))

	for _, row := range GenerateDataset(DatasetConfig{Samples: 100, Seed: 5}).X {
		result := predictor.Predict(row)
		if result.Fallback {
			t.Fatalf("unexpected fallback: %v", result.Err)
		}
		if result.Label != 0 && result.Label != 1 {
			t.Fatalf("label out of range: %d", result.Label)
		}
		if result.Probability < 0 || result.Probability > 1 {
			t.Fatalf("probability out of range: %f", result.Probability)
		}
	}
}
