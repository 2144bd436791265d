package ml

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeInput(t *testing.T) {
	input := map[string]any{
		"pregnancies":       "2",
		"glucose":           "148.5",
		"blood_pressure":    " 72 ",
		"skin_thickness":    "",
		"insulin":           nil,
		"bmi":               "33.6",
		"diabetes_pedigree": "0.627",
		"age":               "50",
		"submit":            "Predict",
	}

	got, err := NormalizeInput(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{
		"pregnancies":       2,
		"glucose":           148.5,
		"blood_pressure":    72.0,
		"skin_thickness":    0.0,
		"insulin":           0.0,
		"bmi":               33.6,
		"diabetes_pedigree": 0.627,
		"age":               50,
		"submit":            "Predict",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected result:\n got %#v\nwant %#v", got, want)
	}
}

func TestNormalizeInputDefaultsAbsentFields(t *testing.T) {
	got, err := NormalizeInput(map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["pregnancies"] != 0 || got["age"] != 0 {
		t.Fatalf("expected integer defaults, got %#v", got)
	}
	if got["glucose"] != 0.0 || got["diabetes_pedigree"] != 0.0 {
		t.Fatalf("expected real defaults, got %#v", got)
	}
}

func TestNormalizeInputIdempotent(t *testing.T) {
	first, err := NormalizeInput(map[string]any{
		"pregnancies": "1",
		"glucose":     "85",
		"bmi":         "26.6",
		"age":         "31",
		"note":        "checkup",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NormalizeInput(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization is not idempotent:\n first %#v\nsecond %#v", first, second)
	}
}

func TestNormalizeInputErrors(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		field string
	}{
		{name: "non numeric real", input: map[string]any{"glucose": "high"}, field: "glucose"},
		{name: "fractional integer", input: map[string]any{"age": "33.5"}, field: "age"},
		{name: "non numeric integer", input: map[string]any{"pregnancies": "two"}, field: "pregnancies"},
		{name: "negative real", input: map[string]any{"bmi": "-1"}, field: "bmi"},
		{name: "negative integer", input: map[string]any{"age": -4}, field: "age"},
		{name: "not finite", input: map[string]any{"insulin": "NaN"}, field: "insulin"},
		{name: "unsupported type", input: map[string]any{"glucose": []string{"1"}}, field: "glucose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeInput(tt.input)
			var inputErr *InputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("expected InputError, got %v", err)
			}
			if inputErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, inputErr.Field)
			}
		})
	}
}

func TestFeaturesFromInputOrder(t *testing.T) {
	features, err := FeaturesFromInput(map[string]any{
		"pregnancies":       "6",
		"glucose":           "148",
		"blood_pressure":    "72",
		"skin_thickness":    "35",
		"insulin":           "0",
		"bmi":               "33.6",
		"diabetes_pedigree": "0.627",
		"age":               "50",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{6, 148, 72, 35, 0, 33.6, 0.627, 50}
	if !reflect.DeepEqual(features.Vector(), want) {
		t.Fatalf("expected %v, got %v", want, features.Vector())
	}
	if len(FeatureNames()) != FeatureCount {
		t.Fatalf("expected %d feature names", FeatureCount)
	}
}
