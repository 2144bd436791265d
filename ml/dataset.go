package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Column statistics approximating the Pima Indians diabetes dataset.
var (
	featureMeans = [FeatureCount]float64{3.8, 120.9, 69.1, 20.5, 79.8, 32.0, 0.47, 33.2}
	featureStds  = [FeatureCount]float64{3.4, 32.0, 19.4, 16.0, 115.2, 7.9, 0.3, 11.8}
)

const (
	glucoseIndex = 1
	bmiIndex     = 5
	ageIndex     = 7

	minAge = 21.0

	positiveRate     = 0.35
	highGlucose      = 140.0
	highGlucoseFlip  = 0.7
	highBMI          = 35.0
	highBMIFlip      = 0.6
	defaultSamples   = 768
	defaultDataSeed  = 42
)

// Dataset is a labelled feature matrix. Labels are 0 or 1.
type Dataset struct {
	X [][]float64
	Y []int
}

// DatasetConfig controls GenerateDataset.
type DatasetConfig struct {
	Samples int
	Seed    int64
}

func DefaultDatasetConfig() DatasetConfig {
	return DatasetConfig{Samples: defaultSamples, Seed: defaultDataSeed}
}

// GenerateDataset draws a synthetic training set. Each column is normal with
// the reference mean and deviation, clamped to non-negative values (age to at
// least 21). Labels start at a 35% positive rate and are pushed towards
// positive for high glucose and high BMI. The same seed yields the same data.
func GenerateDataset(cfg DatasetConfig) Dataset {
	if cfg.Samples <= 0 {
		cfg.Samples = defaultSamples
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	x := make([][]float64, cfg.Samples)
	for i := range x {
		x[i] = make([]float64, FeatureCount)
	}
	for col := 0; col < FeatureCount; col++ {
		for i := range x {
			value := featureMeans[col] + featureStds[col]*rng.NormFloat64()
			if col == ageIndex {
				value = math.Max(minAge, value)
			} else {
				value = math.Max(0, value)
			}
			x[i][col] = value
		}
	}

	y := make([]int, cfg.Samples)
	for i := range y {
		if rng.Float64() < positiveRate {
			y[i] = 1
		}
	}
	for i := range y {
		if x[i][glucoseIndex] > highGlucose && rng.Float64() < highGlucoseFlip {
			y[i] = 1
		}
		if x[i][bmiIndex] > highBMI && rng.Float64() < highBMIFlip {
			y[i] = 1
		}
	}

	return Dataset{X: x, Y: y}
}

func (d Dataset) Len() int {
	return len(d.Y)
}

// Validate checks shape and label domain.
func (d Dataset) Validate() error {
	if len(d.X) == 0 || len(d.Y) == 0 {
		return errors.New("features or labels empty")
	}
	if len(d.X) != len(d.Y) {
		return errors.New("features and labels size mismatch")
	}
	for i, row := range d.X {
		if len(row) != FeatureCount {
			return fmt.Errorf("row %d: %w: got %d features, want %d", i, ErrDimension, len(row), FeatureCount)
		}
	}
	for i, label := range d.Y {
		if label != 0 && label != 1 {
			return fmt.Errorf("row %d: label %d is not binary", i, label)
		}
	}
	return nil
}
