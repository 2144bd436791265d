package ml

import (
	"errors"
	"fmt"
	"math"
)

// StandardScaler rescales every column to zero mean and unit variance using
// statistics learned by Fit.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Fit(features [][]float64) error {
	if len(features) == 0 {
		return errors.New("features is empty")
	}
	width := len(features[0])
	mean := make([]float64, width)
	for i, row := range features {
		if len(row) != width {
			return fmt.Errorf("row %d: %w", i, ErrDimension)
		}
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(features))
	for j := range mean {
		mean[j] /= n
	}

	scale := make([]float64, width)
	for _, row := range features {
		for j, v := range row {
			diff := v - mean[j]
			scale[j] += diff * diff
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		// Constant columns pass through centred but unscaled.
		if scale[j] == 0 {
			scale[j] = 1
		}
	}

	s.Mean = mean
	s.Scale = scale
	return nil
}

// TransformRow standardizes one feature vector.
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if s == nil || len(s.Mean) == 0 {
		return nil, fmt.Errorf("scaler: %w", ErrNotTrained)
	}
	if len(row) != len(s.Mean) || len(s.Scale) != len(s.Mean) {
		return nil, fmt.Errorf("scaler: %w: got %d, want %d", ErrDimension, len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("scaler: feature %d is not finite", j)
		}
		out[j] = standardize(v, s.Mean[j], s.Scale[j])
	}
	return out, nil
}

func (s *StandardScaler) Transform(features [][]float64) ([][]float64, error) {
	out := make([][]float64, len(features))
	for i, row := range features {
		scaled, err := s.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

func (s *StandardScaler) FitTransform(features [][]float64) ([][]float64, error) {
	if err := s.Fit(features); err != nil {
		return nil, err
	}
	return s.Transform(features)
}

func standardize(value, mean, scale float64) float64 {
	if scale == 0 {
		return 0
	}
	return (value - mean) / scale
}
