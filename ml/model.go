package ml

import "errors"

var (
	ErrNotTrained = errors.New("model not trained")
	ErrDimension  = errors.New("feature dimension mismatch")
)

// Classifier is a fitted binary model. PredictProba returns the probability
// of the positive class.
type Classifier interface {
	Fit(features [][]float64, labels []int) error
	PredictProba(features []float64) (float64, error)
}

var (
	_ Classifier = (*DecisionTree)(nil)
	_ Classifier = (*RandomForest)(nil)
)

func labelFor(probability float64) int {
	if probability > 0.5 {
		return 1
	}
	return 0
}
