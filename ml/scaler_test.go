package ml

import (
	"errors"
	"math"
	"testing"
)

func TestStandardScalerFitTransform(t *testing.T) {
	features := [][]float64{
		{1, 10, 5},
		{2, 20, 5},
		{3, 30, 5},
		{4, 40, 5},
	}
	scaler := &StandardScaler{}
	scaled, err := scaler.FitTransform(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for col := 0; col < 2; col++ {
		var mean, variance float64
		for _, row := range scaled {
			mean += row[col]
		}
		mean /= float64(len(scaled))
		for _, row := range scaled {
			variance += (row[col] - mean) * (row[col] - mean)
		}
		variance /= float64(len(scaled))
		if math.Abs(mean) > 1e-9 {
			t.Errorf("col %d: expected zero mean, got %f", col, mean)
		}
		if math.Abs(variance-1) > 1e-9 {
			t.Errorf("col %d: expected unit variance, got %f", col, variance)
		}
	}

	// constant column
	if scaler.Scale[2] != 1 {
		t.Fatalf("expected unit scale for constant column, got %f", scaler.Scale[2])
	}
	for _, row := range scaled {
		if row[2] != 0 {
			t.Fatalf("expected constant column to centre on zero, got %f", row[2])
		}
	}
}

func TestStandardScalerTransformRowErrors(t *testing.T) {
	var unfitted *StandardScaler
	if _, err := unfitted.TransformRow([]float64{1}); !errors.Is(err, ErrNotTrained) {
		t.Fatalf("expected ErrNotTrained, got %v", err)
	}

	scaler := &StandardScaler{}
	if err := scaler.Fit([][]float64{{1, 2}, {3, 4}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := scaler.TransformRow([]float64{1, 2, 3}); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v", err)
	}
	if _, err := scaler.TransformRow([]float64{math.NaN(), 1}); err == nil {
		t.Fatal("expected error for NaN input")
	}
	if err := scaler.Fit([][]float64{{1, 2}, {3}}); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension for ragged input, got %v", err)
	}
}
