package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMetadata(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMetadataDefaults(t *testing.T) {
	md, err := LoadMetadata(writeMetadata(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "input", md.InputName)
	assert.Equal(t, "output", md.OutputName)
	assert.Equal(t, []int64{1, 784}, md.InputShape)
	assert.Equal(t, []int64{1, 10}, md.OutputShape)
	assert.Equal(t, 28, md.ImageSize)
	assert.Equal(t, "9", md.Classes[9])
	assert.False(t, md.OutputLogits)
}

func TestLoadMetadata(t *testing.T) {
	md, err := LoadMetadata(writeMetadata(t, `{
		"input_shape": [1, 1, 28, 28],
		"output_shape": [1, 10],
		"input_name": "x",
		"output_name": "logits",
		"image_size": 28,
		"stroke_polarity": "stroke-low",
		"output_logits": true
	}`))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 1, 28, 28}, md.InputShape)
	assert.Equal(t, "x", md.InputName)
	assert.Equal(t, "stroke-low", md.StrokePolarity)
	assert.True(t, md.OutputLogits)
}

func TestLoadMetadataErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad json", body: `{`},
		{name: "wrong input size", body: `{"input_shape": [1, 700]}`},
		{name: "wrong output size", body: `{"output_shape": [1, 7]}`},
		{name: "wrong class count", body: `{"classes": ["a", "b"]}`},
		{name: "wrong image size", body: `{"image_size": 48}`},
		{name: "unknown polarity", body: `{"stroke_polarity": "inverted"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMetadata(writeMetadata(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadMetadata(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadMetadataInputShapeMismatch(t *testing.T) {
	_, err := LoadMetadata(writeMetadata(t, `{"input_shape": [1, 700]}`))
	var shape *ShapeMismatchError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, 700, shape.Got)
}

func TestNewSessionMissingMetadata(t *testing.T) {
	_, err := NewSession("model.onnx", filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)
}
