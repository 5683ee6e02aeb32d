package embed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Shape identifies which variant a RawResponse holds.
type Shape int

const (
	// ShapeScalar is a single number.
	ShapeScalar Shape = iota + 1
	// ShapeFlat is a flat sequence of numbers.
	ShapeFlat
	// ShapeBatch is a sequence whose first element is itself a flat sequence.
	ShapeBatch
)

// String returns the shape name for logs.
func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeFlat:
		return "flat"
	case ShapeBatch:
		return "batch"
	default:
		return "unknown"
	}
}

// RawResponse is the provider's output before normalization: a number, a
// flat vector, or a batch of vectors. It can only be built through the
// constructors or ParseRaw, so its shape is always one of the three.
type RawResponse struct {
	shape  Shape
	scalar float32
	flat   []float32
	batch  [][]float32
}

// ScalarResponse wraps a single number.
func ScalarResponse(v float32) RawResponse {
	return RawResponse{shape: ShapeScalar, scalar: v}
}

// FlatResponse wraps a flat vector.
func FlatResponse(v []float32) RawResponse {
	return RawResponse{shape: ShapeFlat, flat: v}
}

// BatchResponse wraps a batch of vectors. rows must be non-empty.
func BatchResponse(rows [][]float32) RawResponse {
	return RawResponse{shape: ShapeBatch, batch: rows}
}

// Shape returns the response variant.
func (r RawResponse) Shape() Shape {
	return r.shape
}

// Normalize coerces any response shape into a single flat vector:
// a scalar becomes a one-element vector, a batch yields its first row,
// and a flat vector is returned unchanged.
func Normalize(r RawResponse) []float32 {
	switch r.shape {
	case ShapeScalar:
		return []float32{r.scalar}
	case ShapeBatch:
		if len(r.batch) == 0 {
			return nil
		}
		return r.batch[0]
	default:
		return r.flat
	}
}

// ParseRaw decodes a JSON provider payload into a RawResponse.
// Anything that is not a number, a numeric array, or an array of numeric
// arrays is rejected; the caller reports it as a provider error.
func ParseRaw(data []byte) (RawResponse, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return RawResponse{}, fmt.Errorf("empty embedding payload")
	}

	if trimmed[0] != '[' {
		var v float64
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return RawResponse{}, fmt.Errorf("unsupported embedding payload: %w", err)
		}
		vec, err := toVector([]*float64{&v})
		if err != nil {
			return RawResponse{}, fmt.Errorf("unsupported embedding payload: %w", err)
		}
		return ScalarResponse(vec[0]), nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return RawResponse{}, fmt.Errorf("unsupported embedding payload: %w", err)
	}
	if len(elems) == 0 {
		return FlatResponse([]float32{}), nil
	}

	first := bytes.TrimSpace(elems[0])
	if len(first) > 0 && first[0] == '[' {
		var rows [][]*float64
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return RawResponse{}, fmt.Errorf("unsupported batch payload: %w", err)
		}
		batch := make([][]float32, len(rows))
		for i, row := range rows {
			if row == nil {
				return RawResponse{}, fmt.Errorf("unsupported batch payload: row %d is null", i)
			}
			vec, err := toVector(row)
			if err != nil {
				return RawResponse{}, fmt.Errorf("unsupported batch payload: row %d: %w", i, err)
			}
			batch[i] = vec
		}
		return BatchResponse(batch), nil
	}

	var values []*float64
	if err := json.Unmarshal(trimmed, &values); err != nil {
		return RawResponse{}, fmt.Errorf("unsupported vector payload: %w", err)
	}
	flat, err := toVector(values)
	if err != nil {
		return RawResponse{}, fmt.Errorf("unsupported vector payload: %w", err)
	}
	return FlatResponse(flat), nil
}

// toVector converts decoded elements, rejecting null and values that do
// not fit a finite float32.
func toVector(values []*float64) ([]float32, error) {
	vec := make([]float32, len(values))
	for i, v := range values {
		if v == nil {
			return nil, fmt.Errorf("element %d is null", i)
		}
		f := float32(*v)
		if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) {
			return nil, fmt.Errorf("element %d is not a finite float32", i)
		}
		vec[i] = f
	}
	return vec, nil
}

// DecodeVector parses and normalizes a provider payload in one step.
// An empty result is an error: no similarity can be computed against it.
func DecodeVector(data []byte) ([]float32, error) {
	raw, err := ParseRaw(data)
	if err != nil {
		return nil, err
	}
	vec := Normalize(raw)
	if len(vec) == 0 {
		return nil, fmt.Errorf("provider returned an empty %s embedding", raw.Shape())
	}
	return vec, nil
}
