package ml

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FeatureCount is the width of every feature vector the model sees.
const FeatureCount = 8

// Features are the health metrics submitted for one prediction.
type Features struct {
	Pregnancies      int     `json:"pregnancies"`
	Glucose          float64 `json:"glucose"`
	BloodPressure    float64 `json:"blood_pressure"`
	SkinThickness    float64 `json:"skin_thickness"`
	Insulin          float64 `json:"insulin"`
	BMI              float64 `json:"bmi"`
	DiabetesPedigree float64 `json:"diabetes_pedigree"`
	Age              int     `json:"age"`
}

// Vector returns the features in training order.
func (f Features) Vector() []float64 {
	return []float64{
		float64(f.Pregnancies),
		f.Glucose,
		f.BloodPressure,
		f.SkinThickness,
		f.Insulin,
		f.BMI,
		f.DiabetesPedigree,
		float64(f.Age),
	}
}

// FeatureNames returns the form field names in training order.
func FeatureNames() []string {
	return []string{
		"pregnancies",
		"glucose",
		"blood_pressure",
		"skin_thickness",
		"insulin",
		"bmi",
		"diabetes_pedigree",
		"age",
	}
}

var integerFields = map[string]bool{
	"pregnancies": true,
	"age":         true,
}

var realFields = map[string]bool{
	"glucose":           true,
	"blood_pressure":    true,
	"skin_thickness":    true,
	"insulin":           true,
	"bmi":               true,
	"diabetes_pedigree": true,
}

var (
	errNotNumber   = errors.New("not a number")
	errNotInteger  = errors.New("not an integer")
	errNegative    = errors.New("must not be negative")
	errNotFinite   = errors.New("must be finite")
	errUnsupported = errors.New("unsupported type")
)

// InputError reports a submitted value that could not be converted.
type InputError struct {
	Field string
	Value any
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %v (got %q)", e.Field, e.Err, fmt.Sprint(e.Value))
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// NormalizeInput converts raw form values into typed values. Integer fields
// become int, real fields become float64, and both default to zero when absent
// or empty. Keys it does not know are copied through untouched. Already typed
// input comes back unchanged.
func NormalizeInput(data map[string]any) (map[string]any, error) {
	normalized := make(map[string]any, len(data)+FeatureCount)
	for key, value := range data {
		switch {
		case integerFields[key]:
			v, err := normalizeInt(key, value)
			if err != nil {
				return nil, err
			}
			normalized[key] = v
		case realFields[key]:
			v, err := normalizeFloat(key, value)
			if err != nil {
				return nil, err
			}
			normalized[key] = v
		default:
			normalized[key] = value
		}
	}

	for key := range integerFields {
		if _, ok := normalized[key]; !ok {
			normalized[key] = 0
		}
	}
	for key := range realFields {
		if _, ok := normalized[key]; !ok {
			normalized[key] = 0.0
		}
	}
	return normalized, nil
}

// FeaturesFromInput normalizes data and collects the eight model inputs.
func FeaturesFromInput(data map[string]any) (Features, error) {
	normalized, err := NormalizeInput(data)
	if err != nil {
		return Features{}, err
	}
	return Features{
		Pregnancies:      normalized["pregnancies"].(int),
		Glucose:          normalized["glucose"].(float64),
		BloodPressure:    normalized["blood_pressure"].(float64),
		SkinThickness:    normalized["skin_thickness"].(float64),
		Insulin:          normalized["insulin"].(float64),
		BMI:              normalized["bmi"].(float64),
		DiabetesPedigree: normalized["diabetes_pedigree"].(float64),
		Age:              normalized["age"].(int),
	}, nil
}

func normalizeInt(field string, value any) (int, error) {
	var n int
	switch v := value.(type) {
	case nil:
		return 0, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return 0, &InputError{Field: field, Value: value, Err: errNotInteger}
		}
		n = parsed
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, &InputError{Field: field, Value: value, Err: errNotInteger}
		}
		n = int(v)
	default:
		return 0, &InputError{Field: field, Value: value, Err: errUnsupported}
	}
	if n < 0 {
		return 0, &InputError{Field: field, Value: value, Err: errNegative}
	}
	return n, nil
}

func normalizeFloat(field string, value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &InputError{Field: field, Value: value, Err: errNotNumber}
		}
		f = parsed
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return 0, &InputError{Field: field, Value: value, Err: errUnsupported}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &InputError{Field: field, Value: value, Err: errNotFinite}
	}
	if f < 0 {
		return 0, &InputError{Field: field, Value: value, Err: errNegative}
	}
	return f, nil
}
