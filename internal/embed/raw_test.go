package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Shapes(t *testing.T) {
	assert.Equal(t, []float32{5}, Normalize(ScalarResponse(5)))
	assert.Equal(t, []float32{1, 2, 3}, Normalize(FlatResponse([]float32{1, 2, 3})))
	assert.Equal(t, []float32{1, 2, 3}, Normalize(BatchResponse([][]float32{{1, 2, 3}})))
}

func TestNormalize_BatchTakesFirstRow(t *testing.T) {
	got := Normalize(BatchResponse([][]float32{{1, 2}, {3, 4}}))
	assert.Equal(t, []float32{1, 2}, got)
}

func TestParseRaw(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		shape   Shape
		want    []float32
	}{
		{"scalar", `5`, ShapeScalar, []float32{5}},
		{"flat", `[1, 2, 3]`, ShapeFlat, []float32{1, 2, 3}},
		{"batch of one", `[[1, 2, 3]]`, ShapeBatch, []float32{1, 2, 3}},
		{"whitespace", "  \n[[0.5,-0.5]] ", ShapeBatch, []float32{0.5, -0.5}},
		{"negative scalar", `-0.25`, ShapeScalar, []float32{-0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ParseRaw([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.shape, raw.Shape())
			assert.Equal(t, tt.want, Normalize(raw))
		})
	}
}

func TestParseRaw_RejectsUnsupportedPayloads(t *testing.T) {
	for _, payload := range []string{
		``,
		`null`,
		`"text"`,
		`{"error":"Model is loading"}`,
		`[[[1,2],[3,4]]]`,
		`["a","b"]`,
		`[1,[2]]`,
		`[null]`,
		`[1, null, 3]`,
		`[[null, 2]]`,
		`[[1, 2], null]`,
		`[1e300]`,
		`1e300`,
	} {
		t.Run(payload, func(t *testing.T) {
			_, err := ParseRaw([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestDecodeVector_RejectsEmpty(t *testing.T) {
	_, err := DecodeVector([]byte(`[]`))
	assert.Error(t, err)

	_, err = DecodeVector([]byte(`[[]]`))
	assert.Error(t, err)

	vec, err := DecodeVector([]byte(`[[0.1, 0.2]]`))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "scalar", ShapeScalar.String())
	assert.Equal(t, "flat", ShapeFlat.String())
	assert.Equal(t, "batch", ShapeBatch.String())
	assert.Equal(t, "unknown", Shape(0).String())
}
