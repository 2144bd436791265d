package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ForestConfig controls RandomForest training. MaxFeatures of zero means the
// square root of the feature count; MaxDepth of zero grows trees fully.
type ForestConfig struct {
	NumTrees    int
	MaxDepth    int
	MaxFeatures int
	Seed        int64
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{NumTrees: 100, Seed: 42}
}

// RandomForest is an ensemble of trees grown on bootstrap samples. Its
// probability is the mean of the per-tree leaf probabilities.
type RandomForest struct {
	Trees       []*DecisionTree `json:"trees"`
	NumFeatures int             `json:"num_features"`

	config ForestConfig
}

func NewRandomForest(config ForestConfig) *RandomForest {
	if config.NumTrees <= 0 {
		config.NumTrees = DefaultForestConfig().NumTrees
	}
	return &RandomForest{config: config}
}

func (f *RandomForest) Fit(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	numFeatures := len(features[0])
	maxFeatures := f.config.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(numFeatures)))))
	}
	numTrees := f.config.NumTrees
	if numTrees <= 0 {
		numTrees = DefaultForestConfig().NumTrees
	}

	rng := rand.New(rand.NewSource(f.config.Seed))
	trees := make([]*DecisionTree, 0, numTrees)
	n := len(features)
	for t := 0; t < numTrees; t++ {
		treeRng := rand.New(rand.NewSource(rng.Int63()))

		sampleX := make([][]float64, n)
		sampleY := make([]int, n)
		for i := 0; i < n; i++ {
			idx := treeRng.Intn(n)
			sampleX[i] = features[idx]
			sampleY[i] = labels[idx]
		}

		tree := NewDecisionTree(TreeConfig{
			MaxDepth:    f.config.MaxDepth,
			MaxFeatures: maxFeatures,
		}, treeRng)
		if err := tree.Fit(sampleX, sampleY); err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
		trees = append(trees, tree)
	}

	f.Trees = trees
	f.NumFeatures = numFeatures
	return nil
}

func (f *RandomForest) PredictProba(features []float64) (float64, error) {
	if f == nil || len(f.Trees) == 0 {
		return 0, ErrNotTrained
	}
	if len(features) != f.NumFeatures {
		return 0, fmt.Errorf("forest: %w: got %d, want %d", ErrDimension, len(features), f.NumFeatures)
	}
	var sum float64
	for i, tree := range f.Trees {
		if tree == nil {
			return 0, fmt.Errorf("tree %d: %w", i, ErrNotTrained)
		}
		p, err := tree.PredictProba(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += p
	}
	return sum / float64(len(f.Trees)), nil
}

// Predict returns the majority label and the mean positive probability.
func (f *RandomForest) Predict(features []float64) (int, float64, error) {
	p, err := f.PredictProba(features)
	if err != nil {
		return 0, 0, err
	}
	return labelFor(p), p, nil
}
