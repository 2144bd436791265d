package ml

import (
	"fmt"

	"go.uber.org/zap"
)

// FallbackLabel is returned whenever the pipeline cannot produce a real answer.
const FallbackLabel = 0

// Result is the outcome of one prediction. Fallback is set only when the
// pipeline failed, in which case Label is FallbackLabel and Err holds the
// cause. A confident or unconfident real prediction never sets Fallback.
type Result struct {
	Label       int
	Probability float64
	Fallback    bool
	Err         error
}

// Predictor runs a feature vector through an artifact's scaler and forest.
type Predictor struct {
	artifact *Artifact
	logger   *zap.Logger
}

func NewPredictor(artifact *Artifact, logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Predictor{artifact: artifact, logger: logger}
}

// Predict never fails: any error or panic inside the pipeline turns into the
// fallback result.
func (p *Predictor) Predict(features []float64) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = p.fallback(fmt.Errorf("prediction panicked: %v", r))
		}
	}()

	if p.artifact == nil {
		return p.fallback(ErrNotTrained)
	}
	scaled, err := p.artifact.Scaler.TransformRow(features)
	if err != nil {
		return p.fallback(err)
	}
	probability, err := p.artifact.Forest.PredictProba(scaled)
	if err != nil {
		return p.fallback(err)
	}

	label := labelFor(probability)
	p.logger.Debug("prediction made",
		zap.Int("label", label),
		zap.Float64("probability", probability))
	return Result{Label: label, Probability: probability}
}

func (p *Predictor) fallback(err error) Result {
	p.logger.Error("prediction failed, using fallback label",
		zap.Int("label", FallbackLabel),
		zap.Error(err))
	return Result{Label: FallbackLabel, Fallback: true, Err: err}
}
